package index

import (
	"sort"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
)

// Mode selects how per-id result sets are combined.
type Mode int

const (
	// All intersects the per-id sets (AND).
	All Mode = iota
	// Any unions the per-id sets (OR).
	Any
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == Any {
		return "any"
	}
	return "all"
}

// ParseMode maps "all"/"and" and "any"/"or" to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "all", "and", "ALL", "AND":
		return All, true
	case "any", "or", "ANY", "OR":
		return Any, true
	}
	return All, false
}

// relation is a bidirectional many-to-many mapping.
type relation struct {
	forward map[string]map[string]struct{}
	inverse map[string]map[string]struct{}
}

func newRelation() relation {
	return relation{
		forward: make(map[string]map[string]struct{}),
		inverse: make(map[string]map[string]struct{}),
	}
}

func (r relation) add(left, right string) {
	if left == "" || right == "" {
		return
	}
	link(r.forward, left, right)
	link(r.inverse, right, left)
}

func link(m map[string]map[string]struct{}, k, v string) {
	set, ok := m[k]
	if !ok {
		set = make(map[string]struct{})
		m[k] = set
	}
	set[v] = struct{}{}
}

// Index answers set-based relationship queries. It is immutable once built
// and safe for concurrent use.
type Index struct {
	persons relation // manuscript -> person
	texts   relation // manuscript -> text
}

// Build indexes the given tuples; duplicates collapse.
func Build(persons []catalogue.PersonRelation, texts []catalogue.TextRelation) *Index {
	idx := &Index{persons: newRelation(), texts: newRelation()}
	for _, p := range persons {
		idx.persons.add(p.ManuscriptID, p.PersonID)
	}
	for _, t := range texts {
		idx.texts.add(t.ManuscriptID, t.Title)
	}
	return idx
}

// ManuscriptsByPersons returns the manuscripts referencing the given persons.
func (idx *Index) ManuscriptsByPersons(ids []string, mode Mode) []string {
	return lookup(idx.persons.inverse, ids, mode)
}

// PersonsByManuscripts returns the persons referenced by the given manuscripts.
func (idx *Index) PersonsByManuscripts(ids []string, mode Mode) []string {
	return lookup(idx.persons.forward, ids, mode)
}

// ManuscriptsByTexts returns the manuscripts containing the given texts.
func (idx *Index) ManuscriptsByTexts(titles []string, mode Mode) []string {
	return lookup(idx.texts.inverse, titles, mode)
}

// TextsByManuscripts returns the texts contained in the given manuscripts.
func (idx *Index) TextsByManuscripts(ids []string, mode Mode) []string {
	return lookup(idx.texts.forward, ids, mode)
}

// Persons returns every indexed person id.
func (idx *Index) Persons() []string { return keys(idx.persons.inverse) }

// Texts returns every indexed text title.
func (idx *Index) Texts() []string { return keys(idx.texts.inverse) }

// lookup combines the sets of keys. An empty key list yields an empty
// result, never the whole domain. The result is sorted.
func lookup(m map[string]map[string]struct{}, keysIn []string, mode Mode) []string {
	if len(keysIn) == 0 {
		return []string{}
	}

	var acc map[string]struct{}
	for i, k := range keysIn {
		set := m[k]
		if i == 0 {
			acc = make(map[string]struct{}, len(set))
			for v := range set {
				acc[v] = struct{}{}
			}
			continue
		}
		switch mode {
		case Any:
			for v := range set {
				acc[v] = struct{}{}
			}
		default:
			for v := range acc {
				if _, ok := set[v]; !ok {
					delete(acc, v)
				}
			}
		}
	}

	out := make([]string, 0, len(acc))
	for v := range acc {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func keys(m map[string]map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
