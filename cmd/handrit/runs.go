package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var flagRunLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent builds",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := openHandrit(ctx, false)
		if err != nil {
			return err
		}
		defer h.Close()

		runs, err := h.Runs(ctx, flagRunLimit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  docs=%d manuscripts=%d skipped=%d conflicts=%d (%s)\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04"), r.Documents, r.Manuscripts,
				r.Skipped, r.Conflicts, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&flagRunLimit, "limit", 10, "number of runs to list")
}
