package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-index/internal/config"
	"github.com/kozaktomas/photo-index/internal/database/filestore"
	"github.com/kozaktomas/photo-index/internal/relabel"
)

var facesRenameCmd = &cobra.Command{
	Use:   "rename <identity-key> <name>",
	Short: "Give an identity a name",
	Long: `Replace an identity key with a name in every indexed photo, so the photos
can be searched by that name. Renaming again with the same name changes
nothing.

Examples:
  photo-index faces rename 4e3b1f0a9c2d4e8f9a7b6c5d4e3f2a1b Alice`,
	Args: cobra.ExactArgs(2),
	RunE: runFacesRename,
}

func init() {
	facesCmd.AddCommand(facesRenameCmd)
}

func runFacesRename(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	key, name := args[0], args[1]

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

	updated, err := relabel.New(idx, store).Rename(ctx, key, name)
	if err != nil {
		return err
	}

	fmt.Printf("Renamed %s to %s in %d photos\n", key, name, updated)
	return nil
}
