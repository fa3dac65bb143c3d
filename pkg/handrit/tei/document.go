package tei

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/beevik/etree"
)

// Namespace URIs used by catalogue documents.
const (
	NamespaceTEI = "http://www.tei-c.org/ns/1.0"
	NamespaceXML = "http://www.w3.org/XML/1998/namespace"
)

// Namespaces maps prefixes to URIs; the empty prefix is the default namespace.
var Namespaces = map[string]string{
	"":    NamespaceTEI,
	"xml": NamespaceXML,
}

// ErrNoRoot is returned for documents without a root element.
var ErrNoRoot = errors.New("document has no root element")

// Document is a parsed catalogue document.
type Document struct {
	tree   *etree.Document
	source string
}

// Parse reads a TEI document from raw bytes. source names the origin of the
// bytes (usually a filename) and is carried through to the records built
// from the document.
func Parse(data []byte, source string) (*Document, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.Permissive = true
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("parse %s: %w", source, ErrNoRoot)
	}
	return &Document{tree: tree, source: source}, nil
}

// ParseFile reads and parses a TEI document from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Source returns the name the document was parsed from.
func (d *Document) Source() string { return d.source }

// Root returns the document element.
func (d *Document) Root() *etree.Element { return d.tree.Root() }

// MsDesc returns the manuscript description element, or the root when the
// document has none.
func (d *Document) MsDesc() *etree.Element {
	if ms, ok := First(d.Root(), "msDesc"); ok {
		return ms
	}
	return d.Root()
}

// First returns the first descendant of e with the given local name.
// Nested paths may be given with "/" (e.g. "msIdentifier/idno").
func First(e *etree.Element, path string) (*etree.Element, bool) {
	if e == nil {
		return nil, false
	}
	if e.Tag == path {
		return e, true
	}
	found := e.FindElement(".//" + path)
	return found, found != nil
}

// All returns every descendant of e with the given local name, shallowest first.
func All(e *etree.Element, path string) []*etree.Element {
	if e == nil {
		return nil
	}
	return e.FindElements(".//" + path)
}

// Attr returns the value of an attribute. Keys may carry a prefix
// ("xml:id"). Whitespace around the value is trimmed; a blank value counts
// as absent.
func Attr(e *etree.Element, key string) (string, bool) {
	if e == nil {
		return "", false
	}
	a := e.SelectAttr(key)
	if a == nil {
		return "", false
	}
	v := strings.TrimSpace(a.Value)
	return v, v != ""
}

// LocalName returns the tag of e without its namespace prefix.
func LocalName(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return e.Tag
}

// InTEI reports whether e belongs to the TEI namespace (or to no namespace,
// which some catalogue exports use).
func InTEI(e *etree.Element) bool {
	uri := e.NamespaceURI()
	return uri == "" || uri == NamespaceTEI
}
