package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kolkov/addrsanitizer/asan"
)

var rootCmd = &cobra.Command{
	Use:          "asancheck",
	Short:        "Inspect and self-check the Pure-Go Address Sanitizer runtime",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print runtime version information",
	Run: func(cmd *cobra.Command, _ []string) {
		info := asan.GetInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "asancheck %s (%s)\n", info.Version, info.Strategy)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(selfcheckCmd)
}
