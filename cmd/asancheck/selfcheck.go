package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"github.com/spf13/cobra"
	"golang.org/x/mod/modfile"

	"github.com/kolkov/addrsanitizer/asan"
)

// selfcheckCmd exercises the interception layer end to end with legal
// inputs: every check here must pass on a healthy runtime, so any fatal
// report means the installation is broken. Violation paths are left to the
// test suite, which can intercept termination; a CLI run cannot.
var selfcheckCmd = &cobra.Command{
	Use:   "selfcheck",
	Short: "Run a benign end-to-end check of the interception layer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()

		if path := enclosingModule(); path != "" {
			fmt.Fprintf(out, "module under check: %s\n", path)
		}

		asan.Init()

		// Block routines round-trip.
		src := append(make([]byte, 0, 16), []byte("hello, sanitizer")...)
		dst := make([]byte, 16)
		asan.Memcpy(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), 16)
		if !bytes.Equal(dst, src) {
			return fmt.Errorf("selfcheck: memcpy mismatch: %q != %q", dst, src)
		}
		if asan.Memcmp(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), 16) != 0 {
			return fmt.Errorf("selfcheck: memcmp disagreement on equal buffers")
		}
		fmt.Fprintln(out, "block routines: ok")

		// String routines round-trip.
		s := append([]byte("spot check"), 0)
		if n := asan.Strlen(unsafe.Pointer(&s[0])); n != 10 {
			return fmt.Errorf("selfcheck: strlen = %d, want 10", n)
		}
		fmt.Fprintln(out, "string routines: ok")

		// Thread interception registers before user code runs.
		var wg sync.WaitGroup
		wg.Add(1)
		rc := asan.SpawnThread(func(unsafe.Pointer) unsafe.Pointer {
			wg.Done()
			return nil
		}, nil)
		if rc != 0 {
			return fmt.Errorf("selfcheck: spawn returned %d", rc)
		}
		wg.Wait()
		fmt.Fprintln(out, "thread interception: ok")

		// Lock family is an always-succeeds no-op.
		if asan.Mlockall(0) != 0 || asan.Munlockall() != 0 {
			return fmt.Errorf("selfcheck: mlock family returned nonzero")
		}
		fmt.Fprintln(out, "memory-lock no-ops: ok")

		fmt.Fprintln(out, "selfcheck passed")
		return nil
	},
}

// enclosingModule walks up from the working directory looking for a go.mod
// and returns its module path, or "" when not inside a module.
func enclosingModule() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, "go.mod")
		if data, err := os.ReadFile(candidate); err == nil {
			return modfile.ModulePath(data)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
