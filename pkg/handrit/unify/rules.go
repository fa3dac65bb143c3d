package unify

import "strings"

// ConflictSeparator joins two irreconcilable string values.
const ConflictSeparator = " | "

// Rules holds the string tables used when merging values.
type Rules struct {
	// Uninformative values lose against any other value (lower case).
	Uninformative map[string]struct{}
	// Aliases maps a lower-case spelling to its canonical form.
	Aliases map[string]string
}

// DefaultRules returns the built-in tables.
func DefaultRules() Rules {
	r := Rules{
		Uninformative: make(map[string]struct{}),
		Aliases:       make(map[string]string),
	}
	r.AddUninformative(
		"origin unknown",
		"n/a",
		"none",
		"scribe(s) unknown",
		"no dimensions given",
		"!! unknown country key",
	)
	r.AddAliases("Denmark", "Danmark", "Danmörk")
	r.AddAliases("Iceland", "Ísland", "Island")
	r.AddAliases("Norway", "Noregur", "Norge")
	r.AddAliases("Sweden", "Svíþjóð", "Sverige")
	r.AddAliases("Faroe Islands", "Færeyjar", "Færøerne")
	r.AddAliases("Copenhagen", "København", "Kaupmannahöfn", "KÃ¸benhavn")
	r.AddAliases("Reykjavík", "Reykjavik")
	r.AddAliases("Paper", "Pappír", "Papir")
	r.AddAliases("Parchment", "Skinn", "Pergament")
	return r
}

// AddUninformative registers values that carry no information.
func (r *Rules) AddUninformative(values ...string) {
	if r.Uninformative == nil {
		r.Uninformative = make(map[string]struct{})
	}
	for _, v := range values {
		r.Uninformative[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
}

// AddAliases registers alternative spellings of canonical.
func (r *Rules) AddAliases(canonical string, aliases ...string) {
	if r.Aliases == nil {
		r.Aliases = make(map[string]string)
	}
	r.Aliases[strings.ToLower(canonical)] = canonical
	for _, a := range aliases {
		r.Aliases[strings.ToLower(strings.TrimSpace(a))] = canonical
	}
}

// Strings merges two values of the same field. The second result reports
// an irreconcilable conflict, in which case both values are kept, joined
// by ConflictSeparator.
func (r Rules) Strings(a, b string) (string, bool) {
	if a == b {
		return a, false
	}
	if r.uninformative(a) {
		return b, false
	}
	if r.uninformative(b) {
		return a, false
	}

	la, lb := strings.ToLower(a), strings.ToLower(b)
	if strings.Contains(la, lb) {
		return a, false
	}
	if strings.Contains(lb, la) {
		return b, false
	}

	ca, okA := r.Aliases[la]
	cb, okB := r.Aliases[lb]
	if okA && okB && ca == cb {
		return ca, false
	}

	return a + ConflictSeparator + b, true
}

func (r Rules) uninformative(s string) bool {
	_, ok := r.Uninformative[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Ints merges two values of the same numeric field, where 0 means unknown.
// Disagreeing values are averaged, rounding down, and reported as a
// conflict.
func Ints(a, b int) (int, bool) {
	switch {
	case a == b:
		return a, false
	case a == 0:
		return b, false
	case b == 0:
		return a, false
	}
	return floorDiv(a+b, 2), true
}

// CombineStrings merges two strings with the default rules.
func CombineStrings(a, b string) string {
	s, _ := defaultRules.Strings(a, b)
	return s
}

// CombineInts merges two integers.
func CombineInts(a, b int) int {
	n, _ := Ints(a, b)
	return n
}

var defaultRules = DefaultRules()

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
