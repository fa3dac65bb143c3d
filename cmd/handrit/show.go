package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cognicore/handrit/pkg/handrit/catalogue"
)

var showCmd = &cobra.Command{
	Use:   "show <manuscript-id>",
	Short: "Show a unified manuscript",
	Long: `Show prints the unified record of a manuscript. A catalogue id with a
language suffix is accepted and resolved to its manuscript.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	h, err := openHandrit(ctx, false)
	if err != nil {
		return err
	}
	defer h.Close()

	m, err := h.Manuscript(ctx, args[0])
	if err != nil {
		return err
	}
	printManuscript(os.Stdout, m)
	return nil
}

func printManuscript(w io.Writer, m catalogue.Manuscript) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "%s  %s\n", m.ManuscriptID, m.Shelfmark)

	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
	}
	row("Title", m.Title)
	row("Description", m.Description)
	row("Date", m.DateString)
	if m.PostQuem != 0 || m.AnteQuem != 0 {
		row("Dating", fmt.Sprintf("%d-%d (mean %d, range %d, sd %.1f)",
			m.PostQuem, m.AnteQuem, m.DateMean, m.DateRange, m.DateStdDev))
	}
	row("Support", m.Support)
	if m.FolioCount > 0 {
		row("Folios", fmt.Sprint(m.FolioCount))
	}
	// as recorded, with its own unit
	if m.Height > 0 && m.Width > 0 {
		row("Size", m.ExtentText)
	}
	row("Origin", m.Origin)
	row("Creator", m.Creator)
	row("Location", strings.Join(nonEmpty(m.Repository, m.Settlement, m.Country), ", "))
	row("Texts", strings.Join(m.Texts, "; "))
	row("People", strings.Join(m.People, ", "))
	row("Entries", fmt.Sprintf("%d (%s)", m.EntryCount, strings.Join(m.CatalogueIDs, ", ")))
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
