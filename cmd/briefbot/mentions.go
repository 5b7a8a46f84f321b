package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dthevenow/briefbot/internal/mention"
	"github.com/dthevenow/briefbot/internal/theme"
)

var mentionsCmd = &cobra.Command{
	Use:   "mentions",
	Short: "List unanswered @mentions without sending anything",
	Long: `Scans recently active tasks for unanswered @mentions of the monitored
users and prints them. Nothing is sent to Slack, no tracker tasks are
created, and the processed-mentions ledger is left untouched, so the
next scheduled run behaves exactly as if this command never ran.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(logger)
		if err != nil {
			return err
		}
		defer app.close()

		monitored := app.cfg.Mentions.MonitoredUsers
		if len(monitored) == 0 {
			fmt.Println("No monitored users configured.")
			return nil
		}

		lookback := time.Duration(app.cfg.Mentions.LookbackHours) * time.Hour
		fmt.Println(theme.HeaderStyle.Render(
			fmt.Sprintf("Unanswered @mentions (last %dh)", app.cfg.Mentions.LookbackHours)))

		reconciler := mention.NewReconciler(app.tracker, logger.Named("mentions"))
		events, err := reconciler.FindUnanswered(context.Background(), monitored, lookback)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println(theme.SuccessStyle.Render("All caught up."))
			return nil
		}

		newIDs := make(map[string]bool)
		for _, e := range app.ledger.FilterNew(events) {
			newIDs[e.ID()] = true
		}

		for _, e := range events {
			marker := theme.SubtleStyle.Render("[seen]")
			if newIDs[e.ID()] {
				marker = theme.WarnStyle.Render("[new]")
			}
			fmt.Printf("\n%s %s %s %s\n",
				theme.LabelStyle.Render(e.User.Name),
				marker,
				e.Item.Name,
				theme.SubtleStyle.Render(fmt.Sprintf("(%.0fh ago)", e.HoursSince)))
			fmt.Printf("  %s %s\n", theme.SubtleStyle.Render("from"), e.Comment.AuthorName)
			fmt.Printf("  %s\n", clipText(e.Comment.Text, 160))
			if e.Item.URL != "" {
				fmt.Printf("  %s\n", theme.SubtleStyle.Render(e.Item.URL))
			}
		}
		fmt.Printf("\n%d mention(s), %d new\n", len(events), len(newIDs))
		return nil
	},
}

func clipText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
