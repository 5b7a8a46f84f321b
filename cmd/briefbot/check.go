package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dthevenow/briefbot/internal/theme"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify every configured connection",
	Long: `Exercises each collaborator with a minimal real call: the task
tracker, Slack, every enabled meeting source, and the Claude API.
Exits non-zero if any check fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(logger)
		if err != nil {
			return err
		}
		defer app.close()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		fmt.Println(theme.HeaderStyle.Render("Connection checks"))
		failures := 0

		name, err := app.tracker.WhoAmI(ctx)
		report("Asana", fmt.Sprintf("authenticated as %s", name), err, &failures)

		err = app.slack.ValidateConnection(ctx)
		report("Slack", fmt.Sprintf("channel %s reachable", app.cfg.Slack.ChannelID), err, &failures)

		for _, src := range app.sources {
			detail, err := src.ValidateConnection(ctx)
			report(fmt.Sprintf("%s (%s)", src.Name(), src.Type()), detail, err, &failures)
		}

		_, err = app.llm.Complete(ctx, "Reply with the single word: ok", 10)
		report("Claude", fmt.Sprintf("model %s responding", app.cfg.AI.Model), err, &failures)

		if failures > 0 {
			return fmt.Errorf("%d of the checks failed", failures)
		}
		fmt.Println(theme.SuccessStyle.Render("\nAll connections OK."))
		return nil
	},
}

func report(name, detail string, err error, failures *int) {
	if err != nil {
		*failures++
		fmt.Printf("%s %s: %v\n", theme.ErrorStyle.Render("✗"), name, err)
		return
	}
	fmt.Printf("%s %s: %s\n", theme.SuccessStyle.Render("✓"), name,
		theme.SubtleStyle.Render(detail))
}
