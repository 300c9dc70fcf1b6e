package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Overridden at build time with -ldflags
var (
	version   = "dev"
	gitCommit = ""
	buildDate = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), GetVersionInfo())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func GetVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func GetVersionInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mjpeg-reader version %s", GetVersion())
	if gitCommit != "" {
		fmt.Fprintf(&b, "\ncommit: %s", gitCommit)
	}
	if buildDate != "" {
		fmt.Fprintf(&b, "\nbuilt: %s", buildDate)
	}
	return b.String()
}
