package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kolkov/addrsanitizer/internal/asan/config"
)

var (
	optionsFile   string
	optionsString string
)

// optionsCmd resolves sanitizer flags the same way bootstrap does:
// defaults, then TOML file, then options string. It prints the result,
// so a misbehaving GOASAN_OPTIONS can be debugged without running the
// target program.
var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Resolve and print effective sanitizer options",
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := config.Defaults()

		var err error
		if optionsFile != "" {
			flags, err = config.LoadFile(flags, optionsFile)
			if err != nil {
				return err
			}
		}

		opts := optionsString
		if opts == "" {
			opts = os.Getenv(config.EnvVar)
		}
		flags, err = config.Parse(flags, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "replace_intrin       = %v\n", flags.ReplaceIntrin)
		fmt.Fprintf(out, "replace_str          = %v\n", flags.ReplaceStr)
		fmt.Fprintf(out, "verbosity            = %d\n", flags.Verbosity)
		fmt.Fprintf(out, "handle_segv          = %v\n", flags.HandleSegv)
		fmt.Fprintf(out, "handle_sigbus        = %v\n", flags.HandleSigbus)
		fmt.Fprintf(out, "alias_index          = %v\n", flags.AliasIndex)
		fmt.Fprintf(out, "intercept_siglongjmp = %v\n", flags.InterceptSiglongjmp)
		fmt.Fprintf(out, "intercept_strnlen    = %v\n", flags.InterceptStrnlen)
		return nil
	},
}

func init() {
	optionsCmd.Flags().StringVar(&optionsFile, "config", "", "TOML options file applied over defaults")
	optionsCmd.Flags().StringVar(&optionsString, "options", "", "options string (default: $"+config.EnvVar+")")
}
