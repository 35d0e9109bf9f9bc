// Package main implements the asancheck CLI tool.
//
// asancheck is the companion tool for the Pure-Go Address Sanitizer
// runtime. It resolves and prints effective sanitizer options, runs a
// benign self-check of the interception layer against the reference
// collaborators, and reports version information.
//
// Usage:
//
//	asancheck options [--config file.toml] [--options k=v:k=v]
//	asancheck selfcheck
//	asancheck version
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
