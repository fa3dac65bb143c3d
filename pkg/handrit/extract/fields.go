package extract

import (
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/cognicore/handrit/pkg/handrit/tei"
)

// Location identifies where a manuscript is kept.
type Location struct {
	Country    string
	Settlement string
	Repository string
	Shelfmark  string
}

// Origin returns the place of origin. A controlled country key is mapped
// through the vocabulary; otherwise the cleaned text of the origin element
// is used.
func (x *Extractor) Origin(e *etree.Element) (origin string) {
	defer x.recover("origin", func() { origin = OriginUnknown })

	place, ok := tei.First(e, "origPlace")
	if !ok {
		x.log.Debug("no origin", zap.String("field", "origin"))
		return OriginUnknown
	}

	key, hasKey := "", false
	if country, ok := tei.First(place, "country"); ok {
		key, hasKey = tei.Attr(country, "key")
	}
	if !hasKey {
		key, hasKey = tei.Attr(place, "key")
	}
	if hasKey {
		if name, ok := x.vocab.CountryCodes[strings.ToLower(key)]; ok {
			return name
		}
		x.log.Warn("unknown country key", zap.String("key", key))
		return UnknownCountryKey
	}

	if text := tei.Text(place); text != "" {
		return text
	}
	return OriginUnknown
}

// Support returns the writing material: Paper, Parchment, the raw material
// value for anything else, or "" when no material is recorded.
func (x *Extractor) Support(e *etree.Element) (support string) {
	defer x.recover("support", func() { support = "" })

	for _, desc := range tei.All(e, "supportDesc") {
		material, ok := tei.Attr(desc, "material")
		if !ok {
			continue
		}
		return mapMaterial(material)
	}
	x.log.Debug("no support material", zap.String("field", "support"))
	return ""
}

func mapMaterial(material string) string {
	switch strings.ToLower(material) {
	case "chart":
		return SupportPaper
	case "perg":
		return SupportParchment
	default:
		return tei.Clean(material)
	}
}

// Location reads country, settlement, repository and shelfmark from the
// manuscript identifier.
func (x *Extractor) Location(e *etree.Element) (loc Location) {
	defer x.recover("location", func() { loc = Location{} })

	ident, ok := tei.First(e, "msIdentifier")
	if !ok {
		x.log.Debug("no manuscript identifier", zap.String("field", "location"))
		return Location{}
	}
	return Location{
		Country:    childText(ident, "country"),
		Settlement: childText(ident, "settlement"),
		Repository: childText(ident, "repository"),
		Shelfmark:  childText(ident, "idno"),
	}
}

// ShortTitle returns the first non-empty of: manuscript name, header title,
// summary title, first contained-item title.
func (x *Extractor) ShortTitle(e *etree.Element) (title string) {
	defer x.recover("title", func() { title = TitleNone })

	root := rootOf(e)
	candidates := []struct {
		scope *etree.Element
		path  string
	}{
		{e, "msName"},
		{root, "titleStmt/title"},
		{e, "summary/title"},
		{e, "msItem/title"},
	}
	for _, c := range candidates {
		if el, ok := tei.First(c.scope, c.path); ok {
			if text := tei.Text(el); text != "" {
				return text
			}
		}
	}
	x.log.Debug("no title", zap.String("field", "title"))
	return TitleNone
}

// Creators returns the scribes named in the hand description, resolved
// through the person directory and joined with "; ".
func (x *Extractor) Creators(e *etree.Element) (creators string) {
	defer x.recover("creator", func() { creators = ScribesUnknown })

	var names []string
	seen := make(map[string]struct{})
	for _, hand := range tei.All(e, "handDesc") {
		for _, ref := range tei.All(hand, "name") {
			if kind, _ := tei.Attr(ref, "type"); kind != "person" {
				continue
			}
			name := x.resolveName(ref)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		x.log.Debug("no scribes", zap.String("field", "creator"))
		return ScribesUnknown
	}
	return strings.Join(names, "; ")
}

func (x *Extractor) resolveName(ref *etree.Element) string {
	raw := tei.Text(ref)
	key, ok := tei.Attr(ref, "key")
	if !ok {
		return raw
	}
	if x.persons != nil {
		if name, found := x.persons.DisplayName(key); found && name != "" {
			return name
		}
	}
	if raw != "" {
		return raw
	}
	return key
}

// Texts returns the titles of the top-level contained items. Sub-items,
// whose level marker contains a ".", are skipped. The result is empty when
// no titled item exists.
func (x *Extractor) Texts(e *etree.Element) (texts []string) {
	defer x.recover("texts", func() { texts = nil })

	seen := make(map[string]struct{})
	for _, item := range tei.All(e, "msItem") {
		if n, ok := tei.Attr(item, "n"); ok && strings.Contains(n, ".") {
			continue
		}
		titleEl := item.SelectElement("title")
		if titleEl == nil {
			continue
		}
		title := tei.Text(titleEl)
		if title == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		texts = append(texts, title)
	}
	if len(texts) == 0 {
		x.log.Debug("no contained texts", zap.String("field", "texts"))
	}
	return texts
}

// People returns every person-authority key referenced by a name element
// anywhere in the document.
func (x *Extractor) People(e *etree.Element) (people []string) {
	defer x.recover("people", func() { people = nil })

	seen := make(map[string]struct{})
	for _, ref := range tei.All(rootOf(e), "name") {
		key, ok := tei.Attr(ref, "key")
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		people = append(people, key)
	}
	if len(people) == 0 {
		x.log.Debug("no person references", zap.String("field", "people"))
	}
	return people
}

func childText(e *etree.Element, tag string) string {
	child := e.SelectElement(tag)
	if child == nil {
		return ""
	}
	return tei.Text(child)
}
