package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cognicore/handrit/pkg/handrit/config"
	"github.com/cognicore/handrit/pkg/handrit/internalerr"
)

const (
	configFileName = "handrit"
	configFileType = "yaml"
	envPrefix      = "HANDRIT"
)

var (
	flagConfigFile string
	v              = viper.New()
)

// bindFlags registers the persistent flags and binds each to its settings
// key. Precedence: flag > HANDRIT_* env > config file > default.
func bindFlags(cmd *cobra.Command) {
	d := config.Defaults()
	f := cmd.PersistentFlags()

	f.StringVar(&flagConfigFile, "config", "", "config file (default: ./handrit.yaml)")
	f.String("db", d.DBPath, "SQLite database path")
	f.String("data-dir", d.DataDir, "directory holding the catalogue XML files")
	f.String("cache-dir", d.CacheDir, "download cache directory")
	f.Bool("use-cache", d.UseCache, "serve downloads from the cache directory")
	f.String("authority", d.AuthorityFile, "person authority file")
	f.String("vocabulary", d.VocabularyFile, "YAML file extending the built-in vocabulary")
	f.String("base-url", d.BaseURL, "catalogue base URL")
	f.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	f.BoolP("verbose", "v", d.Verbose, "debug logging")
	f.Int("max-results", d.MaxResults, "maximum number of search results")
	f.Int("workers", d.Workers, "concurrent documents or downloads")
	f.String("large-groups", d.LargeGroups, "groups of three or more entries: fold or skip")

	for key, flag := range map[string]string{
		"db_path":         "db",
		"data_dir":        "data-dir",
		"cache_dir":       "cache-dir",
		"use_cache":       "use-cache",
		"authority_file":  "authority",
		"vocabulary_file": "vocabulary",
		"base_url":        "base-url",
		"log_level":       "log-level",
		"verbose":         "verbose",
		"max_results":     "max-results",
		"workers":         "workers",
		"large_groups":    "large-groups",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
}

// loadSettings resolves the settings from flags, environment and config file.
func loadSettings() (config.Settings, error) {
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if flagConfigFile != "" {
		v.SetConfigFile(flagConfigFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config.Settings{}, fmt.Errorf("%w: read config: %v", internalerr.ErrInvalidConfig, err)
		}
	}

	s := config.Defaults()
	if err := v.Unmarshal(&s); err != nil {
		return config.Settings{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}
