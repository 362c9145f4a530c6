package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dsbcal/internal/sample"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a demonstration ticket PDF",
	Long: `Sample renders a DSB-style demo ticket (Aarhus H to København H) that
"dsbcal convert" can read back. The PDF is marked as not valid for travel.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		output, _ := cmd.Flags().GetString("output")

		data, err := sample.Bytes(sample.Default())
		if err != nil {
			return fmt.Errorf("render sample ticket: %w", err)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Sample ticket written: ")+output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().StringP("output", "o", "Billet.pdf", "output PDF path")
}
