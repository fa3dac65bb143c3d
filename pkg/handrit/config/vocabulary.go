package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/handrit/pkg/handrit/extract"
	"github.com/cognicore/handrit/pkg/handrit/unify"
)

// VocabularyFile extends the built-in lookup tables.
//
//	countries:
//	  gl: Greenland
//	aliases:
//	  Copenhagen: [Kjøbenhavn]
//	uninformative:
//	  - unknown
//	total_markers: [ark i alt]
//	empty_markers: [ubeskrevne]
type VocabularyFile struct {
	Countries     map[string]string   `yaml:"countries"`
	Aliases       map[string][]string `yaml:"aliases"`
	Uninformative []string            `yaml:"uninformative"`
	TotalMarkers  []string            `yaml:"total_markers"`
	EmptyMarkers  []string            `yaml:"empty_markers"`
}

// LoadVocabulary loads a vocabulary file from YAML
func LoadVocabulary(path string) (*VocabularyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var vf VocabularyFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, err
	}

	return &vf, nil
}

// Apply merges the file into the extractor vocabulary and the merge rules.
func (vf *VocabularyFile) Apply(vocab *extract.Vocabulary, rules *unify.Rules) {
	if vf == nil {
		return
	}
	if vocab != nil {
		vocab.Merge(extract.Vocabulary{
			CountryCodes: vf.Countries,
			TotalMarkers: vf.TotalMarkers,
			EmptyMarkers: vf.EmptyMarkers,
		})
	}
	if rules != nil {
		rules.AddUninformative(vf.Uninformative...)
		for canonical, aliases := range vf.Aliases {
			rules.AddAliases(canonical, aliases...)
		}
	}
}

// Loader builds the lookup tables used by a pipeline run
type Loader struct {
	VocabularyPath string
}

// Components holds the loaded tables
type Components struct {
	Vocabulary extract.Vocabulary
	Rules      unify.Rules
}

// Load returns the built-in tables, extended by the vocabulary file when set
func (l *Loader) Load() (*Components, error) {
	comp := &Components{
		Vocabulary: extract.DefaultVocabulary(),
		Rules:      unify.DefaultRules(),
	}

	if l.VocabularyPath != "" {
		vf, err := LoadVocabulary(l.VocabularyPath)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		vf.Apply(&comp.Vocabulary, &comp.Rules)
	}

	return comp, nil
}
