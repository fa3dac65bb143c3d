package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/handrit/pkg/handrit/internalerr"
)

var personsCmd = &cobra.Command{
	Use:   "persons [name]",
	Short: "List the person directory or look up a name",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPersons,
}

func runPersons(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	h, err := openHandrit(ctx, false)
	if err != nil {
		return err
	}
	defer h.Close()

	if len(args) == 1 {
		ids := h.PersonIDs(args[0])
		if len(ids) == 0 {
			return fmt.Errorf("%w: person %q", internalerr.ErrNotFound, args[0])
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	list, err := h.Persons(ctx)
	if err != nil {
		return err
	}
	for _, p := range list {
		fmt.Printf("%-16s %s\n", p.PersID, p.DisplayName())
	}
	return nil
}
