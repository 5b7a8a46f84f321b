package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dthevenow/briefbot/internal/theme"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent brief runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(logger)
		if err != nil {
			return err
		}
		defer app.close()

		runs, err := app.store.ListRuns(context.Background(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		fmt.Println(theme.HeaderStyle.Render("Run history"))
		for _, r := range runs {
			status := theme.RunStatusStyle(r.Status).Render(fmt.Sprintf("%-8s", r.Status))
			fmt.Printf("%s  %s  %-6s  %d meetings, %d items, %d done, %d overdue, %d mentions\n",
				r.StartedAt.In(app.loc).Format("2006-01-02 15:04"),
				status, r.Kind,
				r.Meetings, r.ActionItems, r.CompletedTasks, r.OverdueTasks, r.Mentions)
			if r.Error != "" {
				fmt.Printf("  %s\n", theme.SubtleStyle.Render(r.Error))
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
}
