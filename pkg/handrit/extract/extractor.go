package extract

import (
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/cognicore/handrit/pkg/handrit/logging"
)

// Defaults returned when a field cannot be read.
const (
	OriginUnknown     = "Origin unknown"
	UnknownCountryKey = "!! unknown country key"
	ScribesUnknown    = "Scribe(s) unknown"
	TitleNone         = "None"
	NoDimensions      = "No dimensions given"
	DimensionsNA      = "N/A"
	SupportPaper      = "Paper"
	SupportParchment  = "Parchment"
)

// Resolver resolves a person-authority id to a display name.
type Resolver interface {
	DisplayName(id string) (string, bool)
}

// Extractor pulls single normalized fields out of a catalogue document.
// Every method is safe to call on any element of the document and never
// panics past its own boundary: failures yield the field default and a log
// record. An Extractor holds no mutable state and may be shared between
// goroutines.
type Extractor struct {
	log     *zap.Logger
	persons Resolver
	vocab   Vocabulary
}

// Options configures an Extractor.
type Options struct {
	Logger     *zap.Logger
	Persons    Resolver
	Vocabulary *Vocabulary
}

// New creates an Extractor. A nil Vocabulary selects DefaultVocabulary.
func New(opts Options) *Extractor {
	vocab := DefaultVocabulary()
	if opts.Vocabulary != nil {
		vocab = *opts.Vocabulary
	}
	return &Extractor{
		log:     logging.OrNop(opts.Logger).Named("extract"),
		persons: opts.Persons,
		vocab:   vocab,
	}
}

// recover turns a panic inside an extractor into a logged fallback.
func (x *Extractor) recover(field string, fallback func()) {
	if r := recover(); r != nil {
		x.log.Error("extractor failed", zap.String("field", field), zap.String("panic", fmt.Sprint(r)))
		fallback()
	}
}

// rootOf walks up to the document element.
func rootOf(e *etree.Element) *etree.Element {
	for e != nil && e.Parent() != nil {
		e = e.Parent()
	}
	return e
}
