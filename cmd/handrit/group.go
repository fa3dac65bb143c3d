package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cognicore/handrit/pkg/handrit/groups"
	"github.com/cognicore/handrit/pkg/handrit/internalerr"
)

var (
	flagOp        string
	flagGroupName string
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage named groups of manuscripts, texts or persons",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <type> <name> <id>...",
	Short: "Create a group (type: manuscript, text or person)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := groups.ParseType(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		h, err := openHandrit(ctx, false)
		if err != nil {
			return err
		}
		defer h.Close()

		g, err := h.CreateGroup(ctx, t, args[1], args[2:])
		if err != nil {
			return err
		}
		fmt.Printf("%s group %s (%d items)\n", color.New(color.FgGreen).Sprint("CREATE"), g.ID, len(g.Items))
		return nil
	},
}

var groupCombineCmd = &cobra.Command{
	Use:   "combine <group-id> <group-id>",
	Short: "Combine two groups of the same type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var op groups.Op
		switch strings.ToLower(flagOp) {
		case "union", "or":
			op = groups.Union
		case "intersection", "and":
			op = groups.Intersection
		default:
			return fmt.Errorf("%w: operation %q", internalerr.ErrInvalidInput, flagOp)
		}

		ctx := cmd.Context()
		h, err := openHandrit(ctx, false)
		if err != nil {
			return err
		}
		defer h.Close()

		g, err := h.CombineGroups(ctx, args[0], args[1], op, flagGroupName)
		if err != nil {
			return err
		}
		fmt.Printf("%s group %s %q (%d items)\n", color.New(color.FgGreen).Sprint("CREATE"), g.ID, g.Name, len(g.Items))
		return nil
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list [type]",
	Short: "List groups",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var t groups.Type
		if len(args) == 1 {
			parsed, err := groups.ParseType(args[0])
			if err != nil {
				return err
			}
			t = parsed
		}

		ctx := cmd.Context()
		h, err := openHandrit(ctx, false)
		if err != nil {
			return err
		}
		defer h.Close()

		list, err := h.Groups(ctx, t)
		if err != nil {
			return err
		}
		for _, g := range list {
			fmt.Printf("%s  %-10s %-30s %d items\n", g.ID, g.Type, g.Name, len(g.Items))
		}
		return nil
	},
}

func init() {
	groupCombineCmd.Flags().StringVar(&flagOp, "op", "union", "union or intersection")
	groupCombineCmd.Flags().StringVar(&flagGroupName, "name", "", "name of the new group")

	groupCmd.AddCommand(groupCreateCmd)
	groupCmd.AddCommand(groupCombineCmd)
	groupCmd.AddCommand(groupListCmd)
}
