package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-spw/trace"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect trace files written by run",
	}

	var samples bool
	dump := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the summary of every trace in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return dumpTraces(cmd.OutOrStdout(), f, samples)
		},
	}
	dump.Flags().BoolVar(&samples, "samples", false, "Print every sample too")
	cmd.AddCommand(dump)

	return cmd
}

func dumpTraces(w io.Writer, r io.Reader, samples bool) error {
	traces, err := trace.DecodeAll(r)
	if err != nil {
		return err
	}

	for _, t := range traces {
		fmt.Fprintf(w, "%s: %s\n", t.Link, t.Summarize())
		if !samples {
			continue
		}
		for _, s := range t.Samples {
			fmt.Fprintf(w, "  %8d %-10s %-9s tx=%-2d rx=%-2d txq=%-3d rxq=%-3d errors=%s\n",
				s.Tick, s.State, s.Recovery, s.TxCredit, s.RxCredit, s.TxQueueLen, s.RxQueueLen, s.Errors)
		}
	}

	return nil
}
