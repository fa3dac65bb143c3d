package handrit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
	"github.com/cognicore/handrit/pkg/handrit/config"
	"github.com/cognicore/handrit/pkg/handrit/extract"
	"github.com/cognicore/handrit/pkg/handrit/groups"
	"github.com/cognicore/handrit/pkg/handrit/index"
	"github.com/cognicore/handrit/pkg/handrit/ingest"
	"github.com/cognicore/handrit/pkg/handrit/internalerr"
	"github.com/cognicore/handrit/pkg/handrit/logging"
	"github.com/cognicore/handrit/pkg/handrit/persons"
	"github.com/cognicore/handrit/pkg/handrit/store"
	"github.com/cognicore/handrit/pkg/handrit/unify"
)

// Handrit is the catalogue pipeline facade
type Handrit struct {
	store    store.Store
	settings config.Settings
	dir      *persons.Directory
	vocab    extract.Vocabulary
	rules    unify.Rules
	log      *zap.Logger

	mu  sync.Mutex
	idx *index.Index
}

// Options configures a Handrit instance
type Options struct {
	Store      store.Store
	Settings   config.Settings
	Directory  *persons.Directory
	Vocabulary *extract.Vocabulary
	Rules      *unify.Rules
	Logger     *zap.Logger
}

// New creates a Handrit instance with the given dependencies
func New(opts Options) *Handrit {
	h := &Handrit{
		store:    opts.Store,
		settings: opts.Settings,
		dir:      opts.Directory,
		vocab:    extract.DefaultVocabulary(),
		rules:    unify.DefaultRules(),
		log:      logging.OrNop(opts.Logger),
	}
	if opts.Vocabulary != nil {
		h.vocab = *opts.Vocabulary
	}
	if opts.Rules != nil {
		h.rules = *opts.Rules
	}
	if h.dir == nil {
		h.dir = persons.FromPersons(nil)
	}
	if h.settings.MaxResults <= 0 {
		h.settings.MaxResults = config.Defaults().MaxResults
	}
	if h.settings.Workers <= 0 {
		h.settings.Workers = config.Defaults().Workers
	}
	return h
}

// Close cleanly shuts down the Handrit instance
func (h *Handrit) Close() error {
	return h.store.Close()
}

// Report summarizes one build
type Report struct {
	RunID       string
	Walk        ingest.Stats
	Unify       unify.Stats
	Manuscripts int
}

// Build reads every catalogue file below dir, unifies the entries and
// replaces the stored corpus with the result.
func (h *Handrit) Build(ctx context.Context, dir string) (*Report, error) {
	started := time.Now().UTC()
	corpus, err := h.walker().WalkDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	return h.finish(ctx, started, corpus)
}

// BuildDocuments is Build over documents already held in memory.
func (h *Handrit) BuildDocuments(ctx context.Context, docs []ingest.RawDocument) (*Report, error) {
	started := time.Now().UTC()
	corpus, err := h.walker().WalkDocuments(ctx, docs)
	if err != nil {
		return nil, err
	}
	return h.finish(ctx, started, corpus)
}

func (h *Handrit) walker() *ingest.Walker {
	x := extract.New(extract.Options{
		Logger:     h.log,
		Persons:    h.dir,
		Vocabulary: &h.vocab,
	})
	return ingest.NewWalker(ingest.NewBuilder(x, h.log), h.settings.Workers, h.log)
}

func (h *Handrit) finish(ctx context.Context, started time.Time, corpus *ingest.Corpus) (*Report, error) {
	u := unify.New(unify.Options{
		Rules:       &h.rules,
		LargeGroups: unify.LargeGroupPolicy(h.settings.LargeGroups),
		Logger:      h.log,
	})
	res := u.Unify(corpus.Entries)

	// tuples come from the entries, keyed by manuscript id; skipped groups
	// are neither stored nor searchable
	personRels, textRels := withoutSkipped(corpus.Persons, corpus.Texts, res.Stats.SkippedIDs)

	snap := store.Snapshot{
		Entries:     corpus.Entries,
		Manuscripts: res.Manuscripts,
		Persons:     personRels,
		Texts:       textRels,
	}
	if err := h.store.ReplaceCorpus(ctx, snap); err != nil {
		return nil, fmt.Errorf("store corpus: %w", err)
	}
	if err := h.store.UpsertPersons(ctx, h.dir.Persons()); err != nil {
		return nil, fmt.Errorf("store persons: %w", err)
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	run := store.Run{
		ID:            runID.String(),
		StartedAt:     started,
		FinishedAt:    time.Now().UTC(),
		Documents:     corpus.Stats.Documents,
		Processed:     corpus.Stats.Processed,
		Degraded:      corpus.Stats.Degraded,
		Skipped:       corpus.Stats.Skipped,
		Manuscripts:   len(res.Manuscripts),
		FoldedGroups:  res.Stats.Folded,
		SkippedGroups: res.Stats.Skipped,
		Conflicts:     res.Stats.Conflicts,
	}
	if err := h.store.RecordRun(ctx, run); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	h.mu.Lock()
	h.idx = index.Build(personRels, textRels)
	h.mu.Unlock()

	h.log.Info("build complete",
		zap.String("run_id", run.ID),
		zap.Int("documents", run.Documents),
		zap.Int("manuscripts", run.Manuscripts),
		zap.Int("conflicts", run.Conflicts))

	return &Report{
		RunID:       run.ID,
		Walk:        corpus.Stats,
		Unify:       res.Stats,
		Manuscripts: len(res.Manuscripts),
	}, nil
}

func withoutSkipped(ps []catalogue.PersonRelation, ts []catalogue.TextRelation, skipped []string) ([]catalogue.PersonRelation, []catalogue.TextRelation) {
	if len(skipped) == 0 {
		return ps, ts
	}
	drop := make(map[string]struct{}, len(skipped))
	for _, id := range skipped {
		drop[id] = struct{}{}
	}
	var keptP []catalogue.PersonRelation
	for _, r := range ps {
		if _, ok := drop[r.ManuscriptID]; !ok {
			keptP = append(keptP, r)
		}
	}
	var keptT []catalogue.TextRelation
	for _, r := range ts {
		if _, ok := drop[r.ManuscriptID]; !ok {
			keptT = append(keptT, r)
		}
	}
	return keptP, keptT
}

// loadIndex returns the relationship index, loading it from the store after a
// restart.
func (h *Handrit) loadIndex(ctx context.Context) (*index.Index, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idx != nil {
		return h.idx, nil
	}
	ps, ts, err := h.store.Relations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load relations: %w", err)
	}
	h.idx = index.Build(ps, ts)
	return h.idx, nil
}

func (h *Handrit) capped(ids []string) []string {
	if len(ids) > h.settings.MaxResults {
		return ids[:h.settings.MaxResults]
	}
	return ids
}

// SearchManuscriptsByPersons returns the manuscripts referencing the given
// person ids.
func (h *Handrit) SearchManuscriptsByPersons(ctx context.Context, personIDs []string, mode index.Mode) ([]string, error) {
	idx, err := h.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	return h.capped(idx.ManuscriptsByPersons(personIDs, mode)), nil
}

// SearchManuscriptsByTexts returns the manuscripts containing the given texts.
func (h *Handrit) SearchManuscriptsByTexts(ctx context.Context, titles []string, mode index.Mode) ([]string, error) {
	idx, err := h.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	return h.capped(idx.ManuscriptsByTexts(titles, mode)), nil
}

// PersonsOf returns the persons referenced by the given manuscripts.
func (h *Handrit) PersonsOf(ctx context.Context, manuscriptIDs []string, mode index.Mode) ([]string, error) {
	idx, err := h.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	return h.capped(idx.PersonsByManuscripts(manuscriptIDs, mode)), nil
}

// TextsOf returns the texts contained in the given manuscripts.
func (h *Handrit) TextsOf(ctx context.Context, manuscriptIDs []string, mode index.Mode) ([]string, error) {
	idx, err := h.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	return h.capped(idx.TextsByManuscripts(manuscriptIDs, mode)), nil
}

// Manuscript returns one unified manuscript.
func (h *Handrit) Manuscript(ctx context.Context, id string) (catalogue.Manuscript, error) {
	m, ok, err := h.store.GetManuscript(ctx, catalogue.ManuscriptID(id))
	if err != nil {
		return catalogue.Manuscript{}, err
	}
	if !ok {
		return catalogue.Manuscript{}, fmt.Errorf("%w: manuscript %s", internalerr.ErrNotFound, id)
	}
	return m, nil
}

// Manuscripts lists unified manuscripts, at most max_results of them.
func (h *Handrit) Manuscripts(ctx context.Context) ([]catalogue.Manuscript, error) {
	return h.store.ListManuscripts(ctx, h.settings.MaxResults)
}

// Persons lists the stored person directory.
func (h *Handrit) Persons(ctx context.Context) ([]catalogue.Person, error) {
	return h.store.ListPersons(ctx)
}

// PersonIDs resolves a display name to person ids.
func (h *Handrit) PersonIDs(name string) []string {
	return h.dir.Lookup(name)
}

// CreateGroup stores a new group of ids.
func (h *Handrit) CreateGroup(ctx context.Context, t groups.Type, name string, items []string) (groups.Group, error) {
	g := groups.New(t, name, items)
	if err := h.store.SaveGroup(ctx, g); err != nil {
		return groups.Group{}, fmt.Errorf("save group: %w", err)
	}
	return g, nil
}

// CombineGroups stores the union or intersection of two stored groups.
func (h *Handrit) CombineGroups(ctx context.Context, aID, bID string, op groups.Op, name string) (groups.Group, error) {
	a, err := h.Group(ctx, aID)
	if err != nil {
		return groups.Group{}, err
	}
	b, err := h.Group(ctx, bID)
	if err != nil {
		return groups.Group{}, err
	}
	g, err := groups.Combine(a, b, op, name)
	if err != nil {
		return groups.Group{}, err
	}
	if err := h.store.SaveGroup(ctx, g); err != nil {
		return groups.Group{}, fmt.Errorf("save group: %w", err)
	}
	return g, nil
}

// Group returns a stored group.
func (h *Handrit) Group(ctx context.Context, id string) (groups.Group, error) {
	g, ok, err := h.store.GetGroup(ctx, id)
	if err != nil {
		return groups.Group{}, err
	}
	if !ok {
		return groups.Group{}, fmt.Errorf("%w: group %s", internalerr.ErrNotFound, id)
	}
	return g, nil
}

// Groups lists stored groups of type t, or all groups when t is empty.
func (h *Handrit) Groups(ctx context.Context, t groups.Type) ([]groups.Group, error) {
	return h.store.ListGroups(ctx, t)
}

// Runs lists recent builds, newest first.
func (h *Handrit) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	return h.store.ListRuns(ctx, limit)
}
