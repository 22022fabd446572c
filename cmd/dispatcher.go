package cmd

import (
	"fmt"
	"io"
	"os"
)

// ExitFailure is the exit code for any failure, as in the rest of the
// gtclock tools.
const ExitFailure = 111

// MainDispatcher runs "gtleap <subcommand>" and returns the exit code.
func MainDispatcher(args []string) int {
	return run(args, os.Stdin, os.Stdout, os.Stderr)
}

// GTAILocalRun is called if run as "gtailocal".
func GTAILocalRun(args []string) int {
	return MainDispatcher(append([]string{"tailocal"}, args...))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, "gtleap:", err)
		return ExitFailure
	}
	return 0
}
