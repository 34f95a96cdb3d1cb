package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fortuna/hoopsight/internal/injury"
	"github.com/fortuna/hoopsight/internal/service"
)

var (
	reportTeam string
	reportJSON bool
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the accuracy report, or one team's game log",
		Args:  cobra.NoArgs,
		RunE:  runReport,
	}

	cmd.Flags().StringVar(&reportTeam, "team", "", "show the game log for a team (code, abbreviation or full name)")
	cmd.Flags().BoolVar(&reportJSON, "json", false, "print JSON instead of tables")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}

	dashboards := newDashboardService(cfg, log)
	out := cmd.OutOrStdout()

	if reportTeam != "" {
		gameLog, err := dashboards.TeamGames(cmd.Context(), reportTeam)
		if err != nil {
			return err
		}
		injuries, err := dashboards.TeamInjuries(cmd.Context(), reportTeam)
		if err != nil {
			return err
		}
		if reportJSON {
			return writeJSON(out, map[string]interface{}{
				"games":    gameLog,
				"injuries": injuries,
			})
		}
		if err := printGameLog(out, gameLog); err != nil {
			return err
		}
		return printInjuries(out, injuries)
	}

	d, err := dashboards.Build(cmd.Context())
	if err != nil {
		return err
	}
	if reportJSON {
		return writeJSON(out, d)
	}
	return printDashboard(out, d)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDashboard(w io.Writer, d *service.Dashboard) error {
	if !d.HasData {
		fmt.Fprintln(w, "No prediction history found.")
		return nil
	}

	o := d.Overall
	fmt.Fprintf(w, "HoopSight  %s  (%s)\n", o.HoopsightPercent, o.HoopsightSummary)
	fmt.Fprintf(w, "ESPN       %s  (%s)\n", o.ESPNPercent, o.ESPNSummary)
	fmt.Fprintf(w, "Advantage  %s  %s\n", o.AdvantageText, o.AdvantageLabel)
	fmt.Fprintf(w, "Team avg   %s vs %s  (%s)\n", o.TeamAvgHoopsight, o.TeamAvgESPN, o.TeamAdvantageText)
	fmt.Fprintf(w, "Games      %d predicted, %d completed, avg margin error %s\n\n",
		o.TotalPredictions, o.CompletedGames, o.AvgMarginText)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEAM\tGAMES\tHOOPSIGHT\tESPN\tEDGE\tAVG MARGIN\tWITHIN 5\tINJURIES")
	for _, row := range d.Teams {
		injuries := row.InjuryBadge.Severity
		if row.InjuryBadge.Count > 0 {
			injuries = fmt.Sprintf("%s (%d, -%.1f)", injuries, row.InjuryBadge.Count, row.InjuryBadge.Impact)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.FullName, row.Games, row.AccuracyText, row.ESPNText,
			row.AdvantageText, row.AvgMarginText, row.WithinText, injuries)
	}
	return tw.Flush()
}

func printGameLog(w io.Writer, log *service.TeamGameLog) error {
	fmt.Fprintf(w, "%s\n\n", log.FullName)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tOPPONENT\tLOCATION\tPICK\tESPN\tCONFIDENCE\tPROJECTED\tACTUAL\tWINNER\tRESULT")
	for _, g := range log.Games {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			g.Date, g.Opponent, g.Location, g.PredictedWinner, g.ESPNPick,
			g.ConfidenceText, g.ProjectedText, g.ActualMarginText, g.ActualWinner, g.ResultText)
	}
	return tw.Flush()
}

func printInjuries(w io.Writer, report *injury.Report) error {
	if report.Healthy {
		fmt.Fprintln(w, "\nNo reported injuries.")
		return nil
	}

	fmt.Fprintf(w, "\nInjuries  (total impact -%.1f)\n\n", report.TotalImpact)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tPOS\tSTATUS\tRETURN\tSCORE\tIMPACT\tCOMMENT")
	for _, e := range report.Injuries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t-%.1f\t%s\n",
			e.Player, e.Position, e.Status, e.ReturnDate, e.PlayerScore, e.Impact, e.Comment)
	}
	return tw.Flush()
}
