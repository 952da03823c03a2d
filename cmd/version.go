package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped by the release build with -ldflags "-X ...cmd.version=".
// Local builds fall back to the module version Go records in the binary.
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the classmate build version",
	Run: func(cmd *cobra.Command, args []string) {
		bi, _ := debug.ReadBuildInfo()
		fmt.Fprintln(cmd.OutOrStdout(), versionLine(version, bi))
	},
}

// versionLine renders "classmate <version> (<commit>, go1.x)".
func versionLine(stamped string, bi *debug.BuildInfo) string {
	v, commit := stamped, ""
	if bi != nil {
		if v == "" && bi.Main.Version != "" {
			v = bi.Main.Version
		}
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				commit = s.Value[:7]
			}
		}
	}
	if v == "" {
		v = "(devel)"
	}
	if commit == "" {
		commit = "unknown commit"
	}
	return fmt.Sprintf("classmate %s (%s, %s)", v, commit, runtime.Version())
}
