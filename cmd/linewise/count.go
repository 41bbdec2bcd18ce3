package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ygrebnov/linewise"
)

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count FILE",
		Short: "Count lines the way run splits them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", linewise.ErrInputNotFound, err)
			}
			defer f.Close()

			fi, err := f.Stat()
			if err != nil {
				return err
			}
			n, err := linewise.CountLines(f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s lines, %s\n",
				args[0], humanize.Comma(int64(n)), humanize.Bytes(uint64(fi.Size())))
			return nil
		},
	}
}
