package main

import (
	goflag "flag"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/limaJavier/ilpenum/pkg/logging"
	"github.com/limaJavier/ilpenum/pkg/solver"
)

const (
	exitFailure   = 1
	exitTimeout   = 2
	exitCancelled = 130
)

var errCancelled = errors.New("enumeration cancelled")

func main() {
	pflag.CommandLine.AddGoFlagSet(goflag.CommandLine) // glog flags (-v, --logtostderr...)

	err := newRootCommand(os.Stdout, os.Stderr).Execute()
	if err != nil && !errors.Is(err, errCancelled) {
		logging.NewConsole(os.Stdout, os.Stderr, "ilpenum", false).Errorf("%v", err)
	}
	os.Exit(exitCode(err))
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "ilpenum",
		Short:         "Enumerates the solutions of a 0/1 ILP by excluding each one found",
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newEnumerateCommand(stdout, stderr), newNormalizeCommand(stdout))
	return root
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errCancelled):
		return exitCancelled
	case errors.Is(err, solver.ErrSolverTimeout):
		return exitTimeout
	}
	return exitFailure
}
