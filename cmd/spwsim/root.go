package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spwsim",
		Short: "Link-layer simulator for DS-encoded point-to-point links",
		Long: `spwsim connects two link endpoints with simulated wires and ticks them.

The run command establishes the link, sends a packet, optionally injects
faults and prints what each end received. Traces of the link status can be
written as CBOR and inspected with the trace command.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newTraceCmd())

	return root
}
