package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dthevenow/briefbot/internal/sched"
	"github.com/dthevenow/briefbot/internal/theme"
)

var scheduleNow bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run as a daemon, sending the brief daily at the configured time",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(logger)
		if err != nil {
			return err
		}
		defer app.close()

		scheduler, err := sched.New(app.coord, app.cfg.Schedule.RunAt, app.loc, logger.Named("sched"))
		if err != nil {
			return err
		}

		scheduler.Start()
		defer scheduler.Stop()
		if scheduleNow {
			scheduler.Trigger()
		}

		st := scheduler.Status()
		fmt.Println(theme.HeaderStyle.Render("briefbot scheduler"))
		fmt.Printf("%s %s %s\n",
			theme.LabelStyle.Render("Daily run:"),
			app.cfg.Schedule.RunAt, app.cfg.Schedule.Timezone)
		fmt.Printf("%s %s\n",
			theme.LabelStyle.Render("Next run:"),
			st.NextRun.Format("Mon Jan 2 15:04 MST"))
		fmt.Println(theme.SubtleStyle.Render("Press Ctrl+C to stop."))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		fmt.Printf("\nReceived %s, shutting down.\n", sig)
		return nil
	},
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false,
		"also run one brief immediately on startup")
}
