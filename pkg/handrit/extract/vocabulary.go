package extract

import "strings"

// Vocabulary holds the fixed lookup tables used by the extractors.
type Vocabulary struct {
	// CountryCodes maps controlled origin keys to country names.
	CountryCodes map[string]string
	// TotalMarkers introduce an explicit leaf total ("120 blöð alls").
	TotalMarkers []string
	// EmptyMarkers introduce a count of blank leaves ("5 auð").
	EmptyMarkers []string
}

// DefaultVocabulary returns the built-in tables.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		CountryCodes: map[string]string{
			"is": "Iceland",
			"dk": "Denmark",
			"fo": "Faroe Islands",
			"no": "Norway",
			"se": "Sweden",
			"ka": "Canada",
		},
		// longest first, the first hit wins
		TotalMarkers: []string{
			"blöð alls",
			"blað alls",
			"leaves in total",
			"blade i alt",
			"in total",
			"i alt",
			"alls",
			"total",
		},
		EmptyMarkers: []string{
			"auð",
			"blank",
			"tomme",
		},
	}
}

// Merge adds the entries of other to v. Country codes are lower-cased and
// override existing codes; marker phrases are appended when new.
func (v *Vocabulary) Merge(other Vocabulary) {
	if v.CountryCodes == nil {
		v.CountryCodes = make(map[string]string)
	}
	for code, name := range other.CountryCodes {
		v.CountryCodes[strings.ToLower(strings.TrimSpace(code))] = name
	}
	v.TotalMarkers = appendNew(v.TotalMarkers, other.TotalMarkers)
	v.EmptyMarkers = appendNew(v.EmptyMarkers, other.EmptyMarkers)
}

func appendNew(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range src {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}
