package catalogue

import (
	"sort"
	"strings"
)

// ErrorIDPrefix marks catalogue ids assigned to documents whose own id
// could not be read.
const ErrorIDPrefix = "!!ERROR-"

// Languages are the language-edition suffixes a catalogue id may carry.
var Languages = map[string]struct{}{
	"is": {},
	"da": {},
	"en": {},
}

// Entry is one manuscript description as found in one source document
// (one language edition). Numeric fields use 0 for unknown.
type Entry struct {
	CatalogueID  string
	ManuscriptID string
	Language     string
	SourceFile   string

	Shelfmark   string
	Title       string
	Description string

	DateString string
	PostQuem   int
	AnteQuem   int
	DateMean   int
	DateRange  int

	Support    string
	FolioCount int
	Height     int
	Width      int
	ExtentText string

	Origin  string
	Creator string

	Country    string
	Settlement string
	Repository string

	Texts  []string
	People []string

	// TextsMissing and PeopleMissing record that the document had no
	// contained-text titles or person references at all.
	TextsMissing  bool
	PeopleMissing bool
}

// Degraded reports whether the entry carries a sentinel error id.
func (e Entry) Degraded() bool {
	return strings.HasPrefix(e.CatalogueID, ErrorIDPrefix)
}

// SplitLanguage strips every trailing language-edition segment from a
// catalogue id and returns the manuscript id together with the outermost
// language code. Ids without a recognised suffix are returned unchanged.
func SplitLanguage(catalogueID string) (manuscriptID, lang string) {
	id := catalogueID
	for {
		idx := strings.LastIndex(id, "-")
		if idx <= 0 {
			return id, lang
		}
		suffix := strings.ToLower(id[idx+1:])
		if _, ok := Languages[suffix]; !ok {
			return id, lang
		}
		if lang == "" {
			lang = suffix
		}
		id = id[:idx]
	}
}

// ManuscriptID derives the manuscript id from a catalogue id.
// It is idempotent: ManuscriptID(ManuscriptID(x)) == ManuscriptID(x).
func ManuscriptID(catalogueID string) string {
	id, _ := SplitLanguage(catalogueID)
	return id
}

// UniqueSorted returns the distinct non-empty values of in, sorted.
func UniqueSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
