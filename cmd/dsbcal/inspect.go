package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dsbcal/internal/ics"
	"dsbcal/internal/tz"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.ics>",
	Short: "Show the event stored in a generated .ics file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		ev, err := ics.ParseEvent(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		c, err := tz.New(cfg.Timezone)
		if err != nil {
			return err
		}
		loc := c.Location()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(ev.Summary))
		row := func(label, value string) {
			fmt.Fprintln(out, "  "+labelStyle.Render(label)+valueStyle.Render(value))
		}
		row("Start", ev.Start.In(loc).Format("2006-01-02 15:04 MST"))
		row("End", ev.End.In(loc).Format("2006-01-02 15:04 MST"))
		row("Duration", ev.End.Sub(ev.Start).String())
		row("Location", ev.Location)
		row("UID", ev.UID)
		if ev.Description != "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, ev.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
