package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/handrit/pkg/handrit/config"
	"github.com/cognicore/handrit/pkg/handrit/internalerr"
)

const authorityXML = `<TEI xmlns="http://www.tei-c.org/ns/1.0"><text><body><listPerson>
<person xml:id="JonOla"><persName><forename>Jón</forename><surname>Ólafsson</surname></persName></person>
</listPerson></body></text></TEI>`

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	tmpDir := t.TempDir()
	s := config.Defaults()
	s.DBPath = filepath.Join(tmpDir, "db", "handrit.db")
	s.DataDir = filepath.Join(tmpDir, "xml")
	s.AuthorityFile = filepath.Join(tmpDir, "persons.xml")
	return s
}

// TestOpenHandrit tests that openHandrit wires the facade with the authority file
func TestOpenHandrit(t *testing.T) {
	settings = testSettings(t)
	if err := os.WriteFile(settings.AuthorityFile, []byte(authorityXML), 0644); err != nil {
		t.Fatal(err)
	}

	h, err := openHandrit(context.Background(), true)
	if err != nil {
		t.Fatalf("openHandrit failed: %v", err)
	}
	defer h.Close()

	ids := h.PersonIDs("Jón Ólafsson")
	if len(ids) != 1 || ids[0] != "JonOla" {
		t.Errorf("Expected [JonOla], got %v", ids)
	}
}

// TestOpenHandritMissingAuthority tests that a build cannot start without the authority file
func TestOpenHandritMissingAuthority(t *testing.T) {
	settings = testSettings(t)

	_, err := openHandrit(context.Background(), true)
	if !errors.Is(err, internalerr.ErrAuthorityUnreadable) {
		t.Fatalf("Expected ErrAuthorityUnreadable, got %v", err)
	}
}

// TestOpenHandritWithoutAuthority tests that queries do not need the authority file
func TestOpenHandritWithoutAuthority(t *testing.T) {
	settings = testSettings(t)

	h, err := openHandrit(context.Background(), false)
	if err != nil {
		t.Fatalf("openHandrit failed: %v", err)
	}
	defer h.Close()
}

// TestOpenHandritBadVocabulary tests that a missing vocabulary file is a config error
func TestOpenHandritBadVocabulary(t *testing.T) {
	settings = testSettings(t)
	settings.VocabularyFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := openHandrit(context.Background(), false)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
}
