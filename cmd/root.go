package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-index/internal/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "photo-index",
	Short: "A terminal photo search engine with face recognition",
	Long: `Photo Index walks a directory of photos, groups the faces it finds into
identities and captions every image, then lets you search the result from
the terminal by name, caption or path.

Typical workflow:
  photo-index index ~/Pictures      # detect faces and caption photos
  photo-index faces label           # name the identities that were found
  photo-index search alice beach    # find photos`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs to stderr")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
