package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dsbcal/internal/ics"
	"dsbcal/internal/pdftext"
	"dsbcal/internal/tz"
)

var convertCmd = &cobra.Command{
	Use:   "convert <ticket.pdf|ticket.txt> [output.ics]",
	Short: "Convert a ticket into an .ics file",
	Long: `Convert reads a DSB ticket PDF (or a text file holding its text) and writes
the journey as a single-event calendar file. Without an output path the
input name is reused with an .ics extension.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().Bool("json", false, "print the extracted record as JSON instead of writing a calendar file")
	convertCmd.Flags().String("today", "", "reference date YYYY-MM-DD used to infer the ticket year (default today)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	today, _ := cmd.Flags().GetString("today")

	input := args[0]
	output := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".ics"
	if len(args) == 2 {
		output = args[1]
	}

	ref, err := referenceTime(today)
	if err != nil {
		return err
	}

	text, err := readTicketText(input)
	if err != nil {
		return err
	}

	conv, err := newConverter()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		j, err := conv.Inspect(text, ref)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(j.Record())
	}

	fmt.Fprintln(out, "Processing: "+input)
	res, err := conv.Convert(text, ref)
	if err != nil && !errors.Is(err, ics.ErrIncompleteJourney) {
		return err
	}
	fmt.Fprintln(out)
	printJourney(out, res.Journey)
	if err != nil {
		return err
	}

	if err := ics.WriteFile(output, res.ICS); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, okStyle.Render("ICS file created: ")+output)
	return nil
}

// readTicketText returns the text of a PDF ticket, or the contents of any
// other file as-is.
func readTicketText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pdftext.Extract(data)
	}
	return string(data), nil
}

// referenceTime parses --today in the configured zone, defaulting to now.
func referenceTime(today string) (time.Time, error) {
	if today == "" {
		return time.Now(), nil
	}
	c, err := tz.New(cfg.Timezone)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation("2006-01-02", today, c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --today %q: want YYYY-MM-DD", today)
	}
	return t, nil
}
