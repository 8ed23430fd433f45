package link

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-spw/ds"
	"github.com/arloliu/go-spw/logger"
	"github.com/arloliu/go-spw/spw"
)

func quietLogger() logger.Logger {
	return logger.Discard()
}

func newTestLink(t testing.TB, name string, opts ...Option) *Link {
	t.Helper()

	opts = append([]Option{WithName(name), WithLogger(quietLogger()), WithLinkStart(true)}, opts...)
	l, err := NewWithOptions(opts...)
	require.NoError(t, err)

	return l
}

// pair wires two links back to back with one tick of delay per direction.
type pair struct {
	t      testing.TB
	a, b   *Link
	aLines ds.BitPair
	bLines ds.BitPair
}

func newPair(t testing.TB, opts ...Option) *pair {
	t.Helper()

	return &pair{t: t, a: newTestLink(t, "a", opts...), b: newTestLink(t, "b", opts...)}
}

func (p *pair) run(ticks int) {
	for i := 0; i < ticks; i++ {
		outA := p.a.Tick(p.bLines)
		outB := p.b.Tick(p.aLines)
		p.aLines, p.bLines = outA, outB
	}
}

// runUntil ticks until cond holds and reports whether it did within maxTicks.
func (p *pair) runUntil(cond func() bool, maxTicks int) bool {
	for i := 0; i < maxTicks; i++ {
		if cond() {
			return true
		}
		p.run(1)
	}
	return cond()
}

func (p *pair) bothRunning() bool {
	return p.a.State().IsRun() && p.b.State().IsRun()
}

func (p *pair) waitRun() {
	p.t.Helper()

	if !p.runUntil(p.bothRunning, 5000) {
		p.t.Fatalf("link not running: a=%s b=%s", p.a.State(), p.b.State())
	}
}

// drain removes every character from the inbound queue of l.
func drain(l *Link) []spw.Character {
	var out []spw.Character
	for {
		c, ok := l.Receive()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}
