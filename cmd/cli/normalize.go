package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/limaJavier/ilpenum/pkg/model"
)

func newNormalizeCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <ilp-file>",
		Short: "Prints a model the way it is handed to the solvers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := model.LoadFile(args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(stdout, document.Serialize())
			return err
		},
	}
}
