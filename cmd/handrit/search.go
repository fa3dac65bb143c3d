package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cognicore/handrit/pkg/handrit"
	"github.com/cognicore/handrit/pkg/handrit/groups"
	"github.com/cognicore/handrit/pkg/handrit/index"
)

var (
	flagAny    bool
	flagByName bool
	flagSave   string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Query manuscripts, persons and texts by relationship",
	Long: `Search combines the result sets of several ids. By default a result must
be related to every id (all); with --any it may be related to any of them.
An empty query returns no results. Use --save to store the result as a group.`,
}

var searchPersonsCmd = &cobra.Command{
	Use:   "persons <person-id|name>...",
	Short: "Manuscripts referencing the given persons",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, groups.TypeManuscript, func(ctx context.Context, h *handrit.Handrit, mode index.Mode) ([]string, error) {
			ids := args
			if flagByName {
				ids = nil
				for _, name := range args {
					ids = append(ids, h.PersonIDs(name)...)
				}
			}
			return h.SearchManuscriptsByPersons(ctx, ids, mode)
		})
	},
}

var searchTextsCmd = &cobra.Command{
	Use:   "texts <title>...",
	Short: "Manuscripts containing the given texts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, groups.TypeManuscript, func(ctx context.Context, h *handrit.Handrit, mode index.Mode) ([]string, error) {
			return h.SearchManuscriptsByTexts(ctx, args, mode)
		})
	},
}

var searchPersonsOfCmd = &cobra.Command{
	Use:   "persons-of <manuscript-id>...",
	Short: "Persons referenced by the given manuscripts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, groups.TypePerson, func(ctx context.Context, h *handrit.Handrit, mode index.Mode) ([]string, error) {
			return h.PersonsOf(ctx, args, mode)
		})
	},
}

var searchTextsOfCmd = &cobra.Command{
	Use:   "texts-of <manuscript-id>...",
	Short: "Texts contained in the given manuscripts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, groups.TypeText, func(ctx context.Context, h *handrit.Handrit, mode index.Mode) ([]string, error) {
			return h.TextsOf(ctx, args, mode)
		})
	},
}

func init() {
	searchCmd.PersistentFlags().BoolVar(&flagAny, "any", false, "match any id instead of all")
	searchCmd.PersistentFlags().StringVar(&flagSave, "save", "", "store the result as a group with this name")
	searchPersonsCmd.Flags().BoolVar(&flagByName, "name", false, "arguments are person names, not ids")

	searchCmd.AddCommand(searchPersonsCmd)
	searchCmd.AddCommand(searchTextsCmd)
	searchCmd.AddCommand(searchPersonsOfCmd)
	searchCmd.AddCommand(searchTextsOfCmd)
}

type searchFunc func(ctx context.Context, h *handrit.Handrit, mode index.Mode) ([]string, error)

func runSearch(cmd *cobra.Command, resultType groups.Type, search searchFunc) error {
	ctx := cmd.Context()
	h, err := openHandrit(ctx, false)
	if err != nil {
		return err
	}
	defer h.Close()

	mode := index.All
	if flagAny {
		mode = index.Any
	}
	results, err := search(ctx, h, mode)
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Println(r)
	}
	if len(results) == 0 {
		fmt.Println(color.New(color.FgYellow).Sprint("no results"))
	}

	if flagSave != "" {
		g, err := h.CreateGroup(ctx, resultType, flagSave, results)
		if err != nil {
			return err
		}
		fmt.Printf("%s saved as group %s (%d items)\n", color.New(color.FgGreen).Sprint("OK"), g.ID, len(g.Items))
	}
	return nil
}
