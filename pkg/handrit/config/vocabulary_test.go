package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderEmpty(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}
	if comp.Vocabulary.CountryCodes["is"] != "Iceland" {
		t.Error("Should carry built-in country codes")
	}
	if _, ok := comp.Rules.Uninformative["origin unknown"]; !ok {
		t.Error("Should carry built-in uninformative values")
	}
}

func TestLoaderNonExistentVocabulary(t *testing.T) {
	loader := Loader{VocabularyPath: "/nonexistent/vocabulary.yaml"}

	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent vocabulary")
	}
}

func TestLoaderVocabulary(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "vocabulary.yaml")

	content := `countries:
  GL: Greenland
aliases:
  Copenhagen:
    - Kjøbenhavn
uninformative:
  - Unknown
total_markers:
  - ark i alt
empty_markers:
  - ubeskrevne
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	comp, err := (&Loader{VocabularyPath: path}).Load()
	if err != nil {
		t.Fatalf("Failed to load vocabulary: %v", err)
	}

	if comp.Vocabulary.CountryCodes["gl"] != "Greenland" {
		t.Errorf("Country code should be lower-cased, got %v", comp.Vocabulary.CountryCodes)
	}
	if comp.Vocabulary.CountryCodes["is"] != "Iceland" {
		t.Error("Built-in codes should survive")
	}
	if comp.Rules.Aliases["kjøbenhavn"] != "Copenhagen" {
		t.Errorf("Alias not registered: %v", comp.Rules.Aliases["kjøbenhavn"])
	}
	if _, ok := comp.Rules.Uninformative["unknown"]; !ok {
		t.Error("Uninformative value not registered")
	}

	found := false
	for _, m := range comp.Vocabulary.TotalMarkers {
		if m == "ark i alt" {
			found = true
		}
	}
	if !found {
		t.Error("Total marker not appended")
	}
	last := comp.Vocabulary.EmptyMarkers[len(comp.Vocabulary.EmptyMarkers)-1]
	if last != "ubeskrevne" {
		t.Errorf("Expected appended empty marker, got %q", last)
	}
}

func TestLoadVocabularyMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("countries: [a, b"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadVocabulary(path); err == nil {
		t.Error("Should error on malformed YAML")
	}
}
