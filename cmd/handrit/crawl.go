package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cognicore/handrit/internal/crawl"
	"github.com/cognicore/handrit/pkg/handrit/internalerr"
)

var flagBrowse string

var crawlCmd = &cobra.Command{
	Use:   "crawl [catalogue-id...]",
	Short: "Download catalogue XML files into the data directory",
	Long: `Crawl downloads the TEI description of each catalogue id into the data
directory. With --browse, the ids are read from the links of a catalogue
browse page instead.

Example:
  handrit crawl AM02-0115-is AM02-0115-da
  handrit crawl --browse https://handrit.is/search/results/...`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().StringVar(&flagBrowse, "browse", "", "browse page listing the manuscripts to download")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts := crawl.Options{BaseURL: settings.BaseURL, Logger: logger}
	if settings.UseCache {
		opts.CacheDir = settings.CacheDir
	}
	src := crawl.NewHTTPSource(opts)

	ids := args
	if flagBrowse != "" {
		listed, err := src.ListManuscriptIDs(ctx, flagBrowse)
		if err != nil {
			return err
		}
		ids = append(ids, listed...)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no catalogue ids given", internalerr.ErrInvalidInput)
	}

	res, err := crawl.FetchAll(ctx, src, ids, settings.Workers, logger)
	if err != nil {
		return err
	}
	if err := crawl.WriteDocuments(settings.DataDir, res.Documents); err != nil {
		return err
	}

	fmt.Printf("%s %d documents written to %s\n",
		color.New(color.FgGreen).Sprint("OK"), len(res.Documents), settings.DataDir)
	for _, id := range res.Missing {
		fmt.Printf("  %s %s\n", color.New(color.FgYellow).Sprint("MISSING"), id)
	}
	for _, id := range res.Failed {
		fmt.Printf("  %s %s\n", color.New(color.FgRed).Sprint("FAILED "), id)
	}
	return nil
}
