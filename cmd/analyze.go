package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapping-tomorrow/riskmap-cli/internal/analysis"
)

var (
	analyzePlace string
	analyzeJSON  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one exposure analysis and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		place := cfg.Place
		if analyzePlace != "" {
			place = analyzePlace
		}

		result, err := e.pipeline(place).Run(cmd.Context())
		if err != nil {
			return err
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printSummary(os.Stdout, result)
		return nil
	},
}

// printSummary renders the dashboard metric row in plain text.
func printSummary(w io.Writer, r *analysis.Result) {
	fmt.Fprintf(w, "Place:                %s\n", r.Place)
	fmt.Fprintf(w, "Waste/recycling pts:  %d\n", len(r.Points))
	fmt.Fprintf(w, "Hazard zones:         %d\n", len(r.Zones))
	fmt.Fprintf(w, "Points in risk areas: %d (%.1f%% of total)\n",
		r.ExposedPoints(), r.ExposureShare()*100)
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzePlace, "place", "", "override the configured place name")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
