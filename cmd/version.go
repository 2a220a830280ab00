package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set by -ldflags at release time. `go install` builds fall back to the
// module version and VCS stamp embedded in the binary.
var (
	Version   = "dev"
	CommitSHA = ""
	BuildDate = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version, commit, built := buildVersion()
		fmt.Printf("photo-index %s (%s)\n", version, runtime.Version())
		if commit != "" {
			fmt.Printf("  Commit: %s\n", commit)
		}
		if built != "" {
			fmt.Printf("  Built:  %s\n", built)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func buildVersion() (version, commit, built string) {
	version, commit, built = Version, CommitSHA, BuildDate

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version, commit, built
	}
	if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "" {
				commit = s.Value
			}
		case "vcs.time":
			if built == "" {
				built = s.Value
			}
		}
	}
	return version, commit, built
}
