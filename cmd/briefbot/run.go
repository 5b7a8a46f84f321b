package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dthevenow/briefbot/internal/theme"
)

var runDate string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one brief pass now and send it to Slack",
	Long: `Runs the full pipeline once: fetches today's meetings, extracts
action items, collects completed and overdue tasks, checks for
unanswered @mentions, and delivers the brief to Slack. Fridays produce
the weekly summary.

Use --date to run as if it were another day (for backfills and testing).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(logger)
		if err != nil {
			return err
		}
		defer app.close()

		day := time.Now().In(app.loc)
		if runDate != "" {
			day, err = time.ParseInLocation("2006-01-02", runDate, app.loc)
			if err != nil {
				return fmt.Errorf("invalid --date %q (want YYYY-MM-DD): %w", runDate, err)
			}
		}

		fmt.Println(theme.HeaderStyle.Render(
			fmt.Sprintf("Running brief for %s", day.Format("Monday, January 2, 2006"))))

		rec, err := app.coord.RunFor(context.Background(), day)
		if err != nil {
			return err
		}

		status := theme.RunStatusStyle(rec.Status).Render(rec.Status)
		fmt.Printf("\n%s %s (%s brief, %s)\n",
			theme.LabelStyle.Render("Status:"), status,
			rec.Kind, rec.FinishedAt.Sub(rec.StartedAt).Round(time.Second))
		fmt.Printf("%s %d meetings, %d action items, %d completed, %d overdue, %d mentions (%d new)\n",
			theme.LabelStyle.Render("Sections:"),
			rec.Meetings, rec.ActionItems, rec.CompletedTasks,
			rec.OverdueTasks, rec.Mentions, rec.NewMentions)
		if rec.Error != "" {
			fmt.Printf("%s %s\n", theme.WarnStyle.Render("Problems:"), rec.Error)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "run as if it were this day (YYYY-MM-DD)")
}
