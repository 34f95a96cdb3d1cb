package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fortuna/hoopsight/internal/ingest/espn"
)

var (
	injuriesOut     string
	injuriesDryRun  bool
	injuriesBrowser bool
)

func newInjuriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "injuries",
		Short: "Manage the injury table",
	}

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Scrape the ESPN injury report into the injuries CSV",
		Args:  cobra.NoArgs,
		RunE:  runInjuriesFetch,
	}
	fetchCmd.Flags().StringVar(&injuriesOut, "out", "", "output path (default: INJURIES_PATH)")
	fetchCmd.Flags().BoolVar(&injuriesDryRun, "dry-run", false, "print the parsed rows without writing")
	fetchCmd.Flags().BoolVar(&injuriesBrowser, "browser", true, "fall back to headless Chrome when curl fails")

	cmd.AddCommand(fetchCmd)
	return cmd
}

func runInjuriesFetch(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}

	out := cfg.InjuriesPath
	if injuriesOut != "" {
		out = injuriesOut
	}

	ingester := espn.NewIngester(cfg.ESPNInjuriesURL, out, log).
		AddFetcher("curl", espn.NewClient(log))
	if injuriesBrowser {
		browser := espn.NewBrowser()
		defer browser.Close()
		ingester.AddFetcher("chrome", browser)
	}

	if !injuriesDryRun {
		n, err := ingester.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d injuries to %s\n", n, out)
		return nil
	}

	records, err := ingester.Fetch(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEAM\tPLAYER\tPOS\tRETURN\tSTATUS")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Team, r.Player, r.Position, r.ReturnDate, r.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d injuries (dry run, nothing written)\n", len(records))
	return nil
}
