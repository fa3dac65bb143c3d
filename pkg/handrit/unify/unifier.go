package unify

import (
	"math"

	"go.uber.org/zap"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
	"github.com/cognicore/handrit/pkg/handrit/logging"
)

// LargeGroupPolicy selects how groups of three or more entries are handled.
type LargeGroupPolicy string

const (
	// FoldPairwise merges large groups left to right, one entry at a time.
	FoldPairwise LargeGroupPolicy = "fold"
	// SkipLarge leaves large groups out of the unified output.
	SkipLarge LargeGroupPolicy = "skip"
)

// Valid reports whether p is a known policy.
func (p LargeGroupPolicy) Valid() bool {
	return p == FoldPairwise || p == SkipLarge
}

// Stats counts the outcome of a unification run.
type Stats struct {
	Groups    int
	Single    int
	Merged    int
	Folded    int
	Skipped   int
	Conflicts int
	// SkippedIDs lists the manuscript ids of skipped groups.
	SkippedIDs []string
}

// Result is the output of Unify.
type Result struct {
	Manuscripts []catalogue.Manuscript
	Stats       Stats
}

// Unifier merges catalogue entries describing the same manuscript.
type Unifier struct {
	rules  Rules
	policy LargeGroupPolicy
	log    *zap.Logger
}

// Options configures a Unifier.
type Options struct {
	Rules       *Rules
	LargeGroups LargeGroupPolicy
	Logger      *zap.Logger
}

// New creates a Unifier. Zero options select the default rules and
// pairwise folding.
func New(opts Options) *Unifier {
	rules := DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	policy := opts.LargeGroups
	if !policy.Valid() {
		policy = FoldPairwise
	}
	return &Unifier{rules: rules, policy: policy, log: logging.OrNop(opts.Logger).Named("unify")}
}

// Group partitions entries by manuscript id, keeping first-seen order.
// Degraded entries always form a group of their own.
func Group(entries []catalogue.Entry) [][]catalogue.Entry {
	index := make(map[string]int)
	var groups [][]catalogue.Entry
	for _, e := range entries {
		if e.Degraded() {
			groups = append(groups, []catalogue.Entry{e})
			continue
		}
		i, ok := index[e.ManuscriptID]
		if !ok {
			i = len(groups)
			index[e.ManuscriptID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], e)
	}
	return groups
}

// Unify groups entries by manuscript id and merges each group into one
// manuscript record.
func (u *Unifier) Unify(entries []catalogue.Entry) Result {
	var res Result
	for _, group := range Group(entries) {
		res.Stats.Groups++
		switch {
		case len(group) == 1:
			res.Stats.Single++
		case len(group) == 2:
			res.Stats.Merged++
		case u.policy == SkipLarge:
			res.Stats.Skipped++
			res.Stats.SkippedIDs = append(res.Stats.SkippedIDs, group[0].ManuscriptID)
			u.log.Warn("group too large to merge, skipped",
				zap.String("manuscript_id", group[0].ManuscriptID),
				zap.Int("entries", len(group)))
			continue
		default:
			res.Stats.Folded++
			u.log.Info("folding large group",
				zap.String("manuscript_id", group[0].ManuscriptID),
				zap.Int("entries", len(group)))
		}

		m, conflicts := u.Merge(group)
		res.Stats.Conflicts += conflicts
		res.Manuscripts = append(res.Manuscripts, m)
	}

	u.log.Info("unification complete",
		zap.Int("groups", res.Stats.Groups),
		zap.Int("merged", res.Stats.Merged),
		zap.Int("folded", res.Stats.Folded),
		zap.Int("skipped", res.Stats.Skipped),
		zap.Int("conflicts", res.Stats.Conflicts))
	return res
}

// Merge folds a non-empty group of entries into one manuscript and returns
// the number of conflicts met. All entries must share a manuscript id.
func (u *Unifier) Merge(group []catalogue.Entry) (catalogue.Manuscript, int) {
	m := catalogue.FromEntry(group[0])
	conflicts := 0
	for _, e := range group[1:] {
		conflicts += u.mergeEntry(&m, e)
	}
	if len(group) > 1 {
		applyDating(&m, group)
	}
	return m, conflicts
}

func (u *Unifier) mergeEntry(m *catalogue.Manuscript, e catalogue.Entry) int {
	conflicts := 0
	str := func(field string, dst *string, v string) {
		merged, conflict := u.rules.Strings(*dst, v)
		if conflict {
			conflicts++
			u.log.Warn("irreconcilable values",
				zap.String("manuscript_id", m.ManuscriptID),
				zap.String("field", field),
				zap.String("left", *dst),
				zap.String("right", v))
		}
		*dst = merged
	}
	num := func(field string, dst *int, v int) {
		merged, conflict := Ints(*dst, v)
		if conflict {
			conflicts++
			u.log.Warn("irreconcilable values",
				zap.String("manuscript_id", m.ManuscriptID),
				zap.String("field", field),
				zap.Int("left", *dst),
				zap.Int("right", v))
		}
		*dst = merged
	}

	if m.Shelfmark != e.Shelfmark {
		u.log.Warn("shelfmark mismatch",
			zap.String("manuscript_id", m.ManuscriptID),
			zap.String("kept", m.Shelfmark),
			zap.String("other", e.Shelfmark),
			zap.String("catalogue_id", e.CatalogueID))
		if m.Shelfmark == "" {
			m.Shelfmark = e.Shelfmark
		}
	}

	str("title", &m.Title, e.Title)
	str("description", &m.Description, e.Description)
	str("date_string", &m.DateString, e.DateString)
	str("support", &m.Support, e.Support)
	str("extent_text", &m.ExtentText, e.ExtentText)
	str("origin", &m.Origin, e.Origin)
	str("creator", &m.Creator, e.Creator)
	str("country", &m.Country, e.Country)
	str("settlement", &m.Settlement, e.Settlement)
	str("repository", &m.Repository, e.Repository)

	num("folio_count", &m.FolioCount, e.FolioCount)
	num("height", &m.Height, e.Height)
	num("width", &m.Width, e.Width)

	m.Texts = catalogue.UniqueSorted(append(m.Texts, e.Texts...))
	m.People = catalogue.UniqueSorted(append(m.People, e.People...))

	m.EntryCount++
	m.CatalogueIDs = append(m.CatalogueIDs, e.CatalogueID)
	if e.SourceFile != "" {
		m.SourceFilenames = append(m.SourceFilenames, e.SourceFile)
	}
	return conflicts
}

// applyDating widens the dating to the range spanned by all entries and
// records how far their mean dates disagree.
func applyDating(m *catalogue.Manuscript, group []catalogue.Entry) {
	post, ante := 0, 0
	var means []float64
	for _, e := range group {
		if e.PostQuem != 0 && (post == 0 || e.PostQuem < post) {
			post = e.PostQuem
		}
		if e.AnteQuem != 0 && e.AnteQuem > ante {
			ante = e.AnteQuem
		}
		if e.DateMean != 0 {
			means = append(means, float64(e.DateMean))
		}
	}

	m.PostQuem, m.AnteQuem = post, ante
	m.DateRange = 0
	if post != 0 && ante != 0 {
		m.DateRange = ante - post
	}
	m.DateMean, m.DateStdDev = 0, 0
	if len(means) == 0 {
		return
	}

	var sum float64
	for _, v := range means {
		sum += v
	}
	mean := sum / float64(len(means))
	var sq float64
	for _, v := range means {
		sq += (v - mean) * (v - mean)
	}
	m.DateMean = int(math.Floor(mean))
	m.DateStdDev = math.Sqrt(sq / float64(len(means)))
}
