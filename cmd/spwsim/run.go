package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-spw/bench"
	"github.com/arloliu/go-spw/link"
	"github.com/arloliu/go-spw/logger"
	"github.com/arloliu/go-spw/spw"
	"github.com/arloliu/go-spw/trace"
)

type runOptions struct {
	ticks        int
	message      string
	tickRate     float64
	userRate     float64
	flipAt       int
	cutAt        int
	restoreAfter int
	tracePath    string
	logLevel     string
	logFormat    string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Establish a link, send a packet and report the outcome",
		Long: `Run ticks two endpoints named a and b. Once both are running, a sends
the message as one packet terminated by EOP.

Faults are injected on the wire from a to b: --flip-at inverts one bit at the
given tick, --cut-at freezes the wire at the given tick and restores it
--restore-after ticks later.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSim(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.ticks, "ticks", "n", 200000, "Number of ticks to run")
	f.StringVarP(&opts.message, "message", "m", "hello, link", "Packet payload sent from a to b")
	f.Float64Var(&opts.tickRate, "tick-rate", link.DefaultTickRate, "Tick rate in ticks per second")
	f.Float64Var(&opts.userRate, "tx-rate", 0, "Transmit rate in Run in bits per second (0 keeps the reset rate)")
	f.IntVar(&opts.flipAt, "flip-at", -1, "Tick at which one bit from a to b is inverted")
	f.IntVar(&opts.cutAt, "cut-at", -1, "Tick at which the wire from a to b is cut")
	f.IntVar(&opts.restoreAfter, "restore-after", 5000, "Ticks after which a cut wire is restored")
	f.StringVar(&opts.tracePath, "trace", "", "Write CBOR traces of both links to this file")
	f.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "auto", "Log format (auto, json, console, text)")

	return cmd
}

func (o *runOptions) linkOptions(name string, log logger.Logger) []link.Option {
	opts := []link.Option{
		link.WithName(name),
		link.WithLogger(log),
		link.WithTickRate(o.tickRate),
		link.WithLinkStart(true),
	}
	if o.userRate > 0 {
		opts = append(opts, link.WithUserTxRate(o.userRate))
	}

	return opts
}

func runSim(stdout, stderr io.Writer, o *runOptions) error {
	if o.ticks <= 0 {
		return errors.New("ticks must be positive")
	}
	level, err := logger.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	format, err := logger.ParseFormat(o.logFormat)
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Output: stderr, Level: level, Format: format})

	a, err := link.NewWithOptions(o.linkOptions("a", log)...)
	if err != nil {
		return err
	}
	b, err := link.NewWithOptions(o.linkOptions("b", log)...)
	if err != nil {
		return err
	}

	bn := bench.New(bench.WithLogger(log))
	if err := bn.Add(a, b); err != nil {
		return err
	}
	ab, _, err := bn.Connect("a", "b")
	if err != nil {
		return err
	}

	recA, recB := trace.NewRecorder(a), trace.NewRecorder(b)
	var received []spw.Character
	sent := false
	restoreAt := -1

	for tick := 0; tick < o.ticks; tick++ {
		if tick == o.flipAt {
			ab.FlipNext(1)
		}
		if tick == o.cutAt {
			ab.Cut()
			restoreAt = tick + o.restoreAfter
		} else if tick == restoreAt {
			ab.Restore()
		}
		if !sent && a.State().IsRun() && b.State().IsRun() {
			if err := a.SendPacket([]byte(o.message)); err != nil {
				return err
			}
			sent = true
		}

		bn.Step()
		recA.Observe()
		recB.Observe()
		for {
			c, ok := b.Receive()
			if !ok {
				break
			}
			received = append(received, c)
		}
	}

	printReport(stdout, a, b, received)

	if o.tracePath != "" {
		if err := writeTraces(o.tracePath, recA.Trace(), recB.Trace()); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "trace written to %s\n", o.tracePath)
	}

	return nil
}

func printReport(w io.Writer, a, b *link.Link, received []spw.Character) {
	for _, l := range []*link.Link{a, b} {
		st := l.Status()
		m := l.Metrics()
		fmt.Fprintf(w, "%s: state=%s errors=%s tx_credit=%d rx_credit=%d runs=%d resets=%d sent=%d recv=%d\n",
			l.Name(), st.State, st.Errors, st.TxCredit, st.RxCredit,
			m.RunEntryCount.Load(), m.LinkResetCount.Load(),
			m.NCharSendCount.Load(), m.NCharRecvCount.Load())
	}

	var payload []byte
	for _, c := range received {
		switch c.Kind {
		case spw.KindData:
			payload = append(payload, c.Value)
		case spw.KindEOP:
			fmt.Fprintf(w, "b received packet %q\n", payload)
			payload = payload[:0]
		case spw.KindEEP:
			fmt.Fprintf(w, "b received truncated packet %q\n", payload)
			payload = payload[:0]
		}
	}
}

func writeTraces(path string, traces ...*trace.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, t := range traces {
		if err := t.Encode(f); err != nil {
			f.Close()
			return err
		}
	}

	return f.Close()
}
