package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/equitle/enrichment-cli/internal/sheet"
)

var sampleOut string

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a template workbook showing the accepted column headers",
	RunE: func(_ *cobra.Command, _ []string) error {
		buf, err := sheet.Sample()
		if err != nil {
			return err
		}
		if err := os.WriteFile(sampleOut, buf, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", sampleOut)
		}

		fmt.Fprintf(os.Stderr, "Wrote %s\n", sampleOut)
		for _, line := range sheet.HeaderGuide {
			fmt.Fprintln(os.Stderr, "  "+line)
		}
		return nil
	},
}

func init() {
	sampleCmd.Flags().StringVar(&sampleOut, "out", sheet.SampleFileName, "path of the template workbook")
	rootCmd.AddCommand(sampleCmd)
}
