package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/handrit/pkg/handrit/internalerr"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("Defaults should validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Settings){
		"max_results":  func(s *Settings) { s.MaxResults = 0 },
		"workers":      func(s *Settings) { s.Workers = -1 },
		"large_groups": func(s *Settings) { s.LargeGroups = "explode" },
		"log_level":    func(s *Settings) { s.LogLevel = "loud" },
		"data_dir":     func(s *Settings) { s.DataDir = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := Defaults()
			mutate(&s)
			err := s.Validate()
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Fatalf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLevelVerbose(t *testing.T) {
	s := Defaults()
	if s.Level() != "info" {
		t.Errorf("Expected info, got %q", s.Level())
	}
	s.Verbose = true
	if s.Level() != "debug" {
		t.Errorf("Verbose should force debug, got %q", s.Level())
	}
}

func TestLoadSettings(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "handrit.yaml")

	content := `max_results: 25
large_groups: skip
use_cache: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if s.MaxResults != 25 {
		t.Errorf("Expected max_results 25, got %d", s.MaxResults)
	}
	if s.LargeGroups != "skip" {
		t.Errorf("Expected large_groups skip, got %q", s.LargeGroups)
	}
	if s.UseCache {
		t.Error("use_cache should be false")
	}
	if s.Workers != Defaults().Workers {
		t.Errorf("Unset keys should keep defaults, workers = %d", s.Workers)
	}
}

func TestLoadSettingsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("max_results: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
}
