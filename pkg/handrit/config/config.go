package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/handrit/pkg/handrit/internalerr"
	"github.com/cognicore/handrit/pkg/handrit/logging"
	"github.com/cognicore/handrit/pkg/handrit/unify"
)

// Settings configures a pipeline run. The CLI fills it from viper; library
// callers build it directly.
type Settings struct {
	UseCache       bool   `yaml:"use_cache" mapstructure:"use_cache"`
	MaxResults     int    `yaml:"max_results" mapstructure:"max_results"`
	LogLevel       string `yaml:"log_level" mapstructure:"log_level"`
	Verbose        bool   `yaml:"verbose" mapstructure:"verbose"`
	DataDir        string `yaml:"data_dir" mapstructure:"data_dir"`
	CacheDir       string `yaml:"cache_dir" mapstructure:"cache_dir"`
	DBPath         string `yaml:"db_path" mapstructure:"db_path"`
	AuthorityFile  string `yaml:"authority_file" mapstructure:"authority_file"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	Workers        int    `yaml:"workers" mapstructure:"workers"`
	LargeGroups    string `yaml:"large_groups" mapstructure:"large_groups"`
	VocabularyFile string `yaml:"vocabulary_file" mapstructure:"vocabulary_file"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		UseCache:      true,
		MaxResults:    100,
		LogLevel:      "info",
		DataDir:       filepath.Join("data", "xml"),
		CacheDir:      filepath.Join("data", "cache"),
		DBPath:        filepath.Join("data", "handrit.db"),
		AuthorityFile: filepath.Join("data", "persons.xml"),
		BaseURL:       "https://handrit.is",
		Workers:       4,
		LargeGroups:   string(unify.FoldPairwise),
	}
}

// Validate checks the settings for values no component can work with.
func (s Settings) Validate() error {
	if s.MaxResults <= 0 {
		return fmt.Errorf("%w: max_results must be positive, got %d", internalerr.ErrInvalidConfig, s.MaxResults)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", internalerr.ErrInvalidConfig, s.Workers)
	}
	if !unify.LargeGroupPolicy(s.LargeGroups).Valid() {
		return fmt.Errorf("%w: large_groups must be %q or %q, got %q",
			internalerr.ErrInvalidConfig, unify.FoldPairwise, unify.SkipLarge, s.LargeGroups)
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if strings.TrimSpace(s.DataDir) == "" {
		return fmt.Errorf("%w: data_dir is empty", internalerr.ErrInvalidConfig)
	}
	return nil
}

// Level returns the effective log level; Verbose forces debug.
func (s Settings) Level() string {
	if s.Verbose {
		return "debug"
	}
	return s.LogLevel
}

// LoadSettings reads settings from a YAML file on top of Defaults.
func LoadSettings(path string) (Settings, error) {
	s := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return s, nil
}
