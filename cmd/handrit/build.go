package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Build the unified catalogue from a directory of XML files",
	Long: `Build walks the directory (default: the configured data directory), reads
every catalogue entry, merges the entries of each manuscript and replaces
the stored catalogue with the result. The person authority file must be
readable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := settings.DataDir
	if len(args) == 1 {
		dir = args[0]
	}

	h, err := openHandrit(ctx, true)
	if err != nil {
		return err
	}
	defer h.Close()

	rep, err := h.Build(ctx, dir)
	if err != nil {
		return err
	}

	fmt.Printf("%s run %s\n", color.New(color.FgGreen).Sprint("OK"), rep.RunID)
	fmt.Printf("  documents:   %d (processed %d, skipped %d, degraded %d)\n",
		rep.Walk.Documents, rep.Walk.Processed, rep.Walk.Skipped, rep.Walk.Degraded)
	fmt.Printf("  manuscripts: %d (merged %d, folded %d)\n",
		rep.Manuscripts, rep.Unify.Merged, rep.Unify.Folded)
	if rep.Unify.Skipped > 0 {
		fmt.Printf("  %s %d large groups skipped\n", color.New(color.FgYellow).Sprint("SKIPPED"), rep.Unify.Skipped)
	}
	if rep.Unify.Conflicts > 0 {
		fmt.Printf("  %s %d irreconcilable values\n", color.New(color.FgYellow).Sprint("CONFLICT"), rep.Unify.Conflicts)
	}
	for _, f := range rep.Walk.Failures {
		fmt.Printf("  %s %s\n", color.New(color.FgRed).Sprint("UNREADABLE"), f)
	}
	return nil
}
