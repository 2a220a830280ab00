package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-index/internal/ai"
	"github.com/kozaktomas/photo-index/internal/config"
	"github.com/kozaktomas/photo-index/internal/facematch"
	"github.com/kozaktomas/photo-index/internal/fingerprint"
	"github.com/kozaktomas/photo-index/internal/indexer"
)

var indexCmd = &cobra.Command{
	Use:   "index <directory>",
	Short: "Detect faces and caption every image in a directory",
	Long: `Walk a directory tree, detect faces in every image and group them into
identities, caption the image and store the result in the search index.

Faces are compared against every face seen before. A face closer than the
threshold to a known face gets that identity, otherwise a new identity is
created. The model and metric are fixed by the first run over a data
directory; later runs must use the same ones.

Videos are skipped. Files that fail are reported and the run continues.

Requires the face embedding server (EMBEDDING_URL) and a caption provider
(CAPTION_PROVIDER: ollama, openai or gemini).

Examples:
  photo-index index ~/Pictures
  photo-index index ~/Pictures --model ArcFace --metric cosine
  photo-index index ~/Pictures --threshold 0.9 --skip-indexed`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	addFaceFlags(indexCmd)
	indexCmd.Flags().Bool("skip-indexed", false, "Skip images already in the index instead of reporting duplicates")
	indexCmd.Flags().Int("resize", -1, "Square size images are resized to before face detection, 0 keeps the original (default from FACE_RESIZE or 300)")
	indexCmd.Flags().Bool("no-progress", false, "Hide the progress bar")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	cfg := config.Load()
	applyFaceFlags(cmd, &cfg.Face)
	if resize := mustGetInt(cmd, "resize"); resize >= 0 {
		cfg.Face.Resize = resize
	}

	deps, err := openFaceStore(cfg)
	if err != nil {
		return err
	}

	idx, err := openIndex(cfg, true)
	if err != nil {
		return err
	}
	defer idx.Close()

	captioner, err := ai.NewCaptioner(ctx, cfg)
	if err != nil {
		return err
	}

	assigner := facematch.NewAssigner(deps.store, deps.metric, deps.threshold)
	ix := indexer.New(fingerprint.NewFaceClient(cfg.Embedding.URL), captioner, assigner, idx, cfg.Face.Model, cfg.Face.Resize)

	fmt.Printf("Directory:       %s\n", dir)
	fmt.Printf("Model:           %s\n", cfg.Face.Model)
	fmt.Printf("Distance metric: %s\n", deps.metric)
	fmt.Printf("Threshold:       %g\n", deps.threshold)
	fmt.Printf("Captions:        %s\n", captioner.Name())
	fmt.Printf("Data directory:  %s\n\n", cfg.DataDir)

	result, err := ix.IndexDirectory(ctx, dir, indexer.IndexOptions{
		SkipIndexed:  mustGetBool(cmd, "skip-indexed"),
		ShowProgress: !mustGetBool(cmd, "no-progress"),
	})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	printIndexResult(result)
	if result.ProcessedCount == 0 {
		fmt.Println("No files found.")
		return nil
	}
	if len(result.Errors) > 0 && result.IndexedCount == 0 && result.SkippedCount == 0 {
		return errors.New("no image could be indexed")
	}

	fmt.Println("Completed successfully.")
	if result.NewIdentities > 0 {
		fmt.Println("Now name the faces with 'photo-index faces label' to search photos by name.")
	}
	return nil
}

func printIndexResult(r *indexer.IndexResult) {
	fmt.Printf("Files processed: %d\n", r.ProcessedCount)
	fmt.Printf("Images indexed:  %d\n", r.IndexedCount)
	if r.SkippedCount > 0 {
		fmt.Printf("Already indexed: %d\n", r.SkippedCount)
	}
	if r.DuplicateCount > 0 {
		fmt.Printf("Duplicates:      %d (kept existing records)\n", r.DuplicateCount)
	}
	if r.VideoCount > 0 {
		fmt.Printf("Videos skipped:  %d\n", r.VideoCount)
	}
	if r.UnknownCount > 0 {
		fmt.Printf("Unknown types:   %d\n", r.UnknownCount)
	}
	fmt.Printf("Faces:           %d (%d new identities)\n", r.FaceCount, r.NewIdentities)
	if len(r.Errors) > 0 {
		fmt.Printf("Errors:          %d\n", len(r.Errors))
		for _, err := range r.Errors {
			fmt.Printf("  - %v\n", err)
		}
	}
	fmt.Println()
}
