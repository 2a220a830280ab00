package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-index/internal/config"
)

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined in init() - errors indicate programming bugs.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetFloat64 gets a float64 flag value or panics if the flag doesn't exist.
func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	val, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// applyFaceFlags copies face settings given on the command line over the
// environment defaults. Only flags the user actually set are applied.
func applyFaceFlags(cmd *cobra.Command, cfg *config.FaceConfig) {
	if cmd.Flags().Changed("model") {
		cfg.Model = mustGetString(cmd, "model")
	}
	if cmd.Flags().Changed("metric") {
		cfg.Metric = mustGetString(cmd, "metric")
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Threshold = mustGetFloat64(cmd, "threshold")
	}
}

// addFaceFlags registers the face model flags shared by commands that
// compare embeddings.
func addFaceFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "Face recognition model (default from FACE_MODEL or Facenet512)")
	cmd.Flags().String("metric", "", "Distance metric: cosine, euclidean or euclidean_l2 (default from FACE_DISTANCE_METRIC)")
	cmd.Flags().Float64("threshold", 0, "Maximum distance for two faces to be the same person (default: recommended for model and metric)")
}
