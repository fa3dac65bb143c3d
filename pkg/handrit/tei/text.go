package tei

import (
	"strings"

	"github.com/beevik/etree"
)

// Clean collapses every whitespace run (newlines and tabs included) to a
// single space and trims the result.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Text returns the cleaned text content of e and all of its descendants.
func Text(e *etree.Element) string {
	return TextExcluding(e)
}

// TextExcluding returns the cleaned text content of e, skipping any
// descendant subtree whose local name is listed in skip.
func TextExcluding(e *etree.Element, skip ...string) string {
	if e == nil {
		return ""
	}
	skipSet := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		skipSet[s] = struct{}{}
	}

	var buf strings.Builder
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		for _, tok := range el.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				buf.WriteString(t.Data)
			case *etree.Element:
				if _, ok := skipSet[t.Tag]; ok {
					// keep adjacent words apart
					buf.WriteByte(' ')
					continue
				}
				walk(t)
			}
		}
	}
	walk(e)

	return Clean(buf.String())
}
