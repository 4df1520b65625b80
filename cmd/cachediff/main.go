package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cachediff/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "cachediff",
	Short: "Generate cache comparison methods for annotated Go structs",
	Long:  `cachediff reads //cache_diff: annotations on struct fields and writes a CacheDiff method that reports which fields changed`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cleanCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics to show (0 uses the manifest value)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
