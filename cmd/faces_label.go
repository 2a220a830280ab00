package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-index/internal/config"
	"github.com/kozaktomas/photo-index/internal/database/filestore"
	"github.com/kozaktomas/photo-index/internal/relabel"
	"github.com/kozaktomas/photo-index/internal/tui"
)

var facesLabelCmd = &cobra.Command{
	Use:   "label",
	Short: "Name identities interactively",
	Long: `Walk through the identities one at a time and type a name for each.
Leave the name empty to skip an identity.

Set PREVIEW_COMMAND to a program that shows an image in the terminal, for
example "kitty icat" or "chafa", and the face crop of every identity is
shown before asking for its name (ctrl+p shows it again).

Examples:
  photo-index faces label
  photo-index faces label --all
  PREVIEW_COMMAND="kitty icat" photo-index faces label`,
	Args: cobra.NoArgs,
	RunE: runFacesLabel,
}

func init() {
	facesCmd.AddCommand(facesLabelCmd)

	facesLabelCmd.Flags().Bool("all", false, "Include identities that already have a name")
}

func runFacesLabel(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	includeNamed := mustGetBool(cmd, "all")

	cfg := config.Load()
	idx, err := openIndex(cfg, false)
	if err != nil {
		return err
	}
	defer idx.Close()

	store, err := filestore.Open(cfg.StorePath())
	if err != nil {
		return fmt.Errorf("failed to open embedding store: %w", err)
	}

	identities, err := store.ListIdentities(ctx)
	if err != nil {
		return fmt.Errorf("failed to list identities: %w", err)
	}

	var items []tui.Item
	for _, id := range identities {
		if id.Name != "" && !includeNamed {
			continue
		}
		crops, err := store.ListCrops(ctx, id.Key)
		if err != nil {
			return fmt.Errorf("failed to list crops of %s: %w", id.Key, err)
		}
		item := tui.Item{Key: id.Key, Name: id.Name, Embeddings: id.Embeddings}
		if len(crops) > 0 {
			item.CropPath = crops[0].Path
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		fmt.Println("No identities to name.")
		return nil
	}

	model := tui.NewLabelModel(ctx, items, relabel.New(idx, store), tui.CommandPreviewer(cfg.PreviewCommand), nil)
	summary, err := tui.Run(model)
	if err != nil {
		return err
	}

	fmt.Printf("Named %d identities, skipped %d, updated %d photos\n", summary.Renamed, summary.Skipped, summary.Records)
	if !summary.Quit {
		fmt.Println("Names changed successfully!")
	}
	return nil
}
