package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
	"github.com/cognicore/handrit/pkg/handrit/extract"
	"github.com/cognicore/handrit/pkg/handrit/logging"
	"github.com/cognicore/handrit/pkg/handrit/tei"
)

// Record is the output of building one document: its catalogue entry and
// the relationship tuples it implies.
type Record struct {
	Entry   catalogue.Entry
	Persons []catalogue.PersonRelation
	Texts   []catalogue.TextRelation
}

// Builder turns parsed documents into catalogue entries.
type Builder struct {
	x   *extract.Extractor
	log *zap.Logger
}

// NewBuilder creates a builder on top of the given extractor.
func NewBuilder(x *extract.Extractor, log *zap.Logger) *Builder {
	return &Builder{x: x, log: logging.OrNop(log).Named("builder")}
}

// Build extracts one catalogue entry from doc. A document whose id cannot
// be read still yields a record, under a sentinel id named after its source.
func (b *Builder) Build(doc *tei.Document) Record {
	return b.BuildAs(doc, sourceStem(doc.Source()))
}

// BuildAs is Build with the name used for the sentinel id. Callers building
// many documents pass a name unique to each one.
func (b *Builder) BuildAs(doc *tei.Document, fallback string) Record {
	ms := doc.MsDesc()

	catalogueID, ok := tei.Attr(ms, "xml:id")
	if !ok {
		catalogueID = catalogue.ErrorIDPrefix + fallback
		b.log.Error("manuscript id unresolvable", zap.String("source", doc.Source()), zap.String("assigned", catalogueID))
	}
	manuscriptID, lang := catalogue.SplitLanguage(catalogueID)

	loc := b.x.Location(ms)
	dating := b.x.Dating(ms)
	dims := b.x.Dimensions(ms)
	support := b.x.Support(ms)
	folios := b.x.FolioCount(ms)
	texts := b.x.Texts(ms)
	people := b.x.People(ms)

	entry := catalogue.Entry{
		CatalogueID:   catalogueID,
		ManuscriptID:  manuscriptID,
		Language:      lang,
		SourceFile:    sourceName(doc.Source()),
		Shelfmark:     loc.Shelfmark,
		Title:         b.x.ShortTitle(ms),
		Description:   describe(support, folios, dims),
		DateString:    dating.DateString,
		PostQuem:      dating.PostQuem,
		AnteQuem:      dating.AnteQuem,
		DateMean:      dating.Mean,
		DateRange:     dating.Range,
		Support:       support,
		FolioCount:    folios,
		Height:        dims.Height,
		Width:         dims.Width,
		ExtentText:    dims.Text,
		Origin:        b.x.Origin(ms),
		Creator:       b.x.Creators(ms),
		Country:       loc.Country,
		Settlement:    loc.Settlement,
		Repository:    loc.Repository,
		Texts:         catalogue.UniqueSorted(texts),
		People:        catalogue.UniqueSorted(people),
		TextsMissing:  len(texts) == 0,
		PeopleMissing: len(people) == 0,
	}

	return Record{
		Entry:   entry,
		Persons: PersonRelations(entry),
		Texts:   TextRelations(entry),
	}
}

// PersonRelations returns the deduplicated manuscript-person tuples of an entry.
func PersonRelations(e catalogue.Entry) []catalogue.PersonRelation {
	ids := catalogue.UniqueSorted(e.People)
	out := make([]catalogue.PersonRelation, 0, len(ids))
	for _, id := range ids {
		out = append(out, catalogue.PersonRelation{ManuscriptID: e.ManuscriptID, PersonID: id})
	}
	return out
}

// TextRelations returns the deduplicated manuscript-text tuples of an entry.
func TextRelations(e catalogue.Entry) []catalogue.TextRelation {
	titles := catalogue.UniqueSorted(e.Texts)
	out := make([]catalogue.TextRelation, 0, len(titles))
	for _, t := range titles {
		out = append(out, catalogue.TextRelation{ManuscriptID: e.ManuscriptID, Title: t})
	}
	return out
}

// describe summarizes support and extent in one line.
func describe(support string, folios int, dims extract.Dimensions) string {
	var parts []string
	if support != "" {
		parts = append(parts, support)
	}
	if folios > 0 {
		parts = append(parts, fmt.Sprintf("%d folios", folios))
	}
	if dims.Height > 0 {
		parts = append(parts, dims.Text)
	}
	return strings.Join(parts, ", ")
}

func sourceName(source string) string {
	if source == "" {
		return ""
	}
	return filepath.Base(source)
}

func sourceStem(source string) string {
	if source == "" {
		return "unknown"
	}
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
