package cmd

import (
	"github.com/spf13/cobra"
)

var facesCmd = &cobra.Command{
	Use:   "faces",
	Short: "Inspect and name face identities",
	Long: `Commands for the identities found while indexing: list them, give them
names interactively or one by one, and find identities that may be the same
person.`,
}

func init() {
	rootCmd.AddCommand(facesCmd)
}
