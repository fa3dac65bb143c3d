// Command handrit builds and queries a unified manuscript catalogue from
// TEI catalogue files.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/handrit/pkg/handrit"
	"github.com/cognicore/handrit/pkg/handrit/config"
	"github.com/cognicore/handrit/pkg/handrit/internalerr"
	"github.com/cognicore/handrit/pkg/handrit/logging"
	"github.com/cognicore/handrit/pkg/handrit/persons"
	"github.com/cognicore/handrit/pkg/handrit/store/sqlite"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

var (
	settings config.Settings
	logger   *zap.Logger
)

func main() {
	os.Exit(run())
}

func run() int {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, internalerr.ErrInvalidInput),
		errors.Is(err, internalerr.ErrInvalidConfig),
		errors.Is(err, internalerr.ErrNotFound),
		errors.Is(err, internalerr.ErrTypeMismatch):
		return exitUserError
	default:
		return exitSysError
	}
}

var rootCmd = &cobra.Command{
	Use:   "handrit",
	Short: "Build and query a unified manuscript catalogue",
	Long: `handrit reads TEI catalogue descriptions (one file per catalogue language),
merges the descriptions of the same manuscript and answers relationship
queries between manuscripts, persons and texts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		settings = s

		l, err := logging.New(settings.Level())
		if err != nil {
			return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
		}
		logger = l
		return nil
	},
}

func init() {
	bindFlags(rootCmd)

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(personsCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(runsCmd)
}

// openHandrit opens the store and wires the facade. The build needs the
// authority file; every other command reads persons back from the store.
func openHandrit(ctx context.Context, withAuthority bool) (*handrit.Handrit, error) {
	if dir := filepath.Dir(settings.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	st, err := sqlite.OpenSQLite(ctx, settings.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	var dir *persons.Directory
	if withAuthority {
		dir, err = persons.Load(settings.AuthorityFile, logger)
		if err != nil {
			st.Close()
			return nil, err
		}
	} else {
		list, err := st.ListPersons(ctx)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("load persons: %w", err)
		}
		dir = persons.FromPersons(list)
	}

	comp, err := (&config.Loader{VocabularyPath: settings.VocabularyFile}).Load()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}

	return handrit.New(handrit.Options{
		Store:      st,
		Settings:   settings,
		Directory:  dir,
		Vocabulary: &comp.Vocabulary,
		Rules:      &comp.Rules,
		Logger:     logger,
	}), nil
}
