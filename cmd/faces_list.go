package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-index/internal/config"
	"github.com/kozaktomas/photo-index/internal/database/filestore"
)

var facesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known identities",
	Long: `List every identity in the embedding store with its display name and
the number of faces stored for it.

Examples:
  photo-index faces list
  photo-index faces list --unnamed
  photo-index faces list --json`,
	Args: cobra.NoArgs,
	RunE: runFacesList,
}

func init() {
	facesCmd.AddCommand(facesListCmd)

	facesListCmd.Flags().Bool("unnamed", false, "Only list identities without a name")
	facesListCmd.Flags().Bool("json", false, "Output as JSON")
}

// IdentityOutput is one identity in the JSON output
type IdentityOutput struct {
	Key   string `json:"key"`
	Name  string `json:"name,omitempty"`
	Faces int    `json:"faces"`
	Crop  string `json:"crop,omitempty"`
}

func runFacesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	unnamed := mustGetBool(cmd, "unnamed")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	store, err := filestore.Open(cfg.StorePath())
	if err != nil {
		return fmt.Errorf("failed to open embedding store: %w", err)
	}

	identities, err := store.ListIdentities(ctx)
	if err != nil {
		return fmt.Errorf("failed to list identities: %w", err)
	}

	out := make([]IdentityOutput, 0, len(identities))
	for _, id := range identities {
		if unnamed && id.Name != "" {
			continue
		}
		row := IdentityOutput{Key: id.Key, Name: id.Name, Faces: id.Embeddings}
		crops, err := store.ListCrops(ctx, id.Key)
		if err != nil {
			return fmt.Errorf("failed to list crops of %s: %w", id.Key, err)
		}
		if len(crops) > 0 {
			row.Crop = crops[0].Path
		}
		out = append(out, row)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(out) == 0 {
		fmt.Println("No identities found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tFACES\tCROP")
	for _, row := range out {
		name := row.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", row.Key, name, row.Faces, row.Crop)
	}
	w.Flush()
	fmt.Printf("\n%d identities\n", len(out))
	return nil
}
