package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-index/internal/config"
	"github.com/kozaktomas/photo-index/internal/facematch"
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show the recommended face distance thresholds",
	Long: `Print the recommended threshold for every face model and distance metric.
Any value can be used with --threshold or FACE_THRESHOLD; lower values
split people into more identities, higher values merge different people.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprint(w, "MODEL")
		for _, m := range facematch.Metrics {
			fmt.Fprintf(w, "\t%s", m)
		}
		fmt.Fprintln(w, "\t")

		for _, model := range cfg.ModelNames() {
			fmt.Fprint(w, model)
			for _, m := range facematch.Metrics {
				if t, err := cfg.RecommendedThreshold(model, m); err == nil {
					fmt.Fprintf(w, "\t%g", t)
				} else {
					fmt.Fprint(w, "\t-")
				}
			}
			if model == cfg.Face.Model {
				fmt.Fprint(w, "\t(current)")
			}
			fmt.Fprintln(w)
		}
		w.Flush()

		if metric, threshold, err := cfg.ResolveFace(); err == nil {
			fmt.Printf("\nCurrent: model=%s metric=%s threshold=%g\n", cfg.Face.Model, metric, threshold)
		}
	},
}

func init() {
	rootCmd.AddCommand(thresholdsCmd)
}
