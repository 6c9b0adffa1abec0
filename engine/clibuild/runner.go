package clibuild

import "fmt"

// RunnerEntrypoint generates a cobra-based CLI entrypoint for the go
// ecosystem's generated project tree, grounded on the pack's Use/Short/RunE
// command convention (theRebelliousNerd-codenerd's cmd/nerd package). It
// gives the generated test binary a "run" subcommand instead of a bare
// `go test` invocation, so it behaves like the rest of the fleet's tooling.
func RunnerEntrypoint(reproID string) string {
	return fmt.Sprintf(`package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "runner",
	Short: "Run the repro-%s regression test",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the generated test suite",
	RunE: func(cmd *cobra.Command, args []string) error {
		test := exec.CommandContext(cmd.Context(), "go", "test", "-v", "./...")
		test.Stdout = os.Stdout
		test.Stderr = os.Stderr
		return test.Run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
`, reproID)
}
