package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-index/internal/config"
	"github.com/kozaktomas/photo-index/internal/constants"
	"github.com/kozaktomas/photo-index/internal/facematch"
)

var facesSimilarCmd = &cobra.Command{
	Use:   "similar <identity-key>",
	Short: "Find identities that may be the same person",
	Long: `Find the identities whose faces are closest to the faces of the given
identity. Useful to spot one person that was split into several identities;
give them the same name to search them together.

Distances below the threshold are marked, they would have matched if the
faces had been indexed in a different order.

Examples:
  photo-index faces similar 4e3b1f0a9c2d4e8f9a7b6c5d4e3f2a1b
  photo-index faces similar 4e3b1f0a9c2d4e8f9a7b6c5d4e3f2a1b --limit 10 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runFacesSimilar,
}

func init() {
	facesCmd.AddCommand(facesSimilarCmd)

	addFaceFlags(facesSimilarCmd)
	facesSimilarCmd.Flags().Int("limit", constants.DefaultSimilarLimit, "Maximum number of identities")
	facesSimilarCmd.Flags().Bool("json", false, "Output as JSON")
}

// SimilarIdentityOutput is one identity in the JSON output
type SimilarIdentityOutput struct {
	Key         string  `json:"key"`
	Name        string  `json:"name,omitempty"`
	Distance    float64 `json:"distance"`
	WithinRange bool    `json:"within_threshold"`
}

func runFacesSimilar(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	key := args[0]
	limit := mustGetInt(cmd, "limit")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	applyFaceFlags(cmd, &cfg.Face)

	deps, err := openFaceStore(cfg)
	if err != nil {
		return err
	}

	if _, err := deps.store.GetIdentity(ctx, key); err != nil {
		return err
	}

	idx, err := facematch.BuildIndex(ctx, deps.store, deps.metric)
	if err != nil {
		return err
	}

	similar, err := facematch.FindSimilar(ctx, deps.store, idx, key, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		out := make([]SimilarIdentityOutput, len(similar))
		for i, s := range similar {
			out[i] = SimilarIdentityOutput{Key: s.Key, Name: s.Name, Distance: s.Distance, WithinRange: s.Distance <= deps.threshold}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(similar) == 0 {
		fmt.Println("No other identities found.")
		return nil
	}

	fmt.Printf("Identities closest to %s (%s, threshold %g):\n\n", key, deps.metric, deps.threshold)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tDISTANCE\t")
	for _, s := range similar {
		name := s.Name
		if name == "" {
			name = "-"
		}
		mark := ""
		if s.Distance <= deps.threshold {
			mark = "within threshold"
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%s\n", s.Key, name, s.Distance, mark)
	}
	w.Flush()
	return nil
}
