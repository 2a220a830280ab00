package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-index/internal/config"
	"github.com/kozaktomas/photo-index/internal/database"
	"github.com/kozaktomas/photo-index/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search indexed photos by name, caption or path",
	Long: `Search the photo index. Every word of the query must appear in the
image path, the faces or the caption. Common English stop words are ignored.

Examples:
  photo-index search alice
  photo-index search alice bob beach
  photo-index search --all
  photo-index search dog --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Bool("all", false, "List every indexed photo")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
	searchCmd.Flags().Int("limit", 0, "Maximum number of results (0 = no limit)")
}

// SearchResult is one photo in the JSON output
type SearchResult struct {
	ImagePath string   `json:"image_path"`
	Faces     []string `json:"faces"`
	Caption   string   `json:"caption"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	all := mustGetBool(cmd, "all")
	jsonOutput := mustGetBool(cmd, "json")
	limit := mustGetInt(cmd, "limit")

	if !all && len(args) == 0 {
		return errors.New("requires a query or --all")
	}

	cfg := config.Load()
	idx, err := openIndex(cfg, false)
	if err != nil {
		return err
	}
	defer idx.Close()

	var records []database.Record
	if all {
		records, err = idx.All(ctx)
	} else {
		match := search.BuildMatchQuery(strings.Join(args, " "))
		records, err = idx.Search(ctx, match)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	if jsonOutput {
		out := make([]SearchResult, len(records))
		for i, r := range records {
			out[i] = SearchResult{ImagePath: r.ImagePath, Faces: r.Faces, Caption: r.Caption}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(records) == 0 {
		fmt.Println("No images found.")
		return nil
	}

	for _, r := range records {
		fmt.Println(formatRecord(r))
	}
	fmt.Printf("\n%d images\n", len(records))
	return nil
}

// formatRecord renders one result as "faces | caption || path"
func formatRecord(r database.Record) string {
	return r.FacesText() + " | " + r.Caption + " || " + r.ImagePath
}
