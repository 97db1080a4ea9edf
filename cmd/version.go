package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the jolt build information",
		Long:  "Print the module version, the Go toolchain that built the binary and the VCS revision when stamped.",
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := debug.ReadBuildInfo()
			if !ok {
				cmd.Println("jolt (build info unavailable)")
				return
			}

			version := info.Main.Version
			if version == "" {
				version = "(devel)"
			}

			cmd.Printf("jolt %s %s\n", version, info.GoVersion)

			if rev := buildSetting(info, "vcs.revision"); rev != "" {
				cmd.Printf("revision %s\n", rev)
			}
		},
	}
}

// buildSetting looks up one key of the stamped build metadata.
func buildSetting(info *debug.BuildInfo, key string) string {
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}

	return ""
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
