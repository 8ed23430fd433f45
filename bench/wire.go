package bench

import (
	"sync/atomic"

	"github.com/arloliu/go-spw/ds"
)

// Wire carries the line pair driven by one link to the input of another,
// one tick late.
//
// A wire re-encodes every bit it carries, which keeps the output a valid DS
// stream while FlipNext inverts bit values.
type Wire struct {
	name     string
	from, to string

	flips atomic.Int64
	cut   atomic.Bool

	in      ds.BitPair
	enc     ds.Encoder
	bits    uint64
	flipped uint64

	ch chan ds.BitPair
}

func newWire(from, to string) *Wire {
	return &Wire{name: from + "->" + to, from: from, to: to}
}

func (w *Wire) Name() string { return w.name }

// From returns the name of the driving link.
func (w *Wire) From() string { return w.from }

// To returns the name of the receiving link.
func (w *Wire) To() string { return w.to }

// FlipNext inverts the value of the next n bits carried by the wire.
func (w *Wire) FlipNext(n int) {
	w.flips.Add(int64(n))
}

// Cut freezes the wire output. The receiving end sees no more transitions.
func (w *Wire) Cut() { w.cut.Store(true) }

// Restore resumes a cut wire.
func (w *Wire) Restore() { w.cut.Store(false) }

func (w *Wire) IsCut() bool { return w.cut.Load() }

// Bits returns the number of bits carried, including flipped ones.
func (w *Wire) Bits() uint64 { return w.bits }

// Flipped returns the number of bits inverted by FlipNext.
func (w *Wire) Flipped() uint64 { return w.flipped }

// Output returns the line pair presented to the receiving link.
func (w *Wire) Output() ds.BitPair { return w.enc.Lines() }

// Drive feeds the pair driven by the sending link this tick and returns the
// new output.
func (w *Wire) Drive(lines ds.BitPair) ds.BitPair {
	if lines == w.in {
		return w.enc.Lines()
	}
	w.in = lines
	if w.cut.Load() {
		return w.enc.Lines()
	}

	bit := lines.D
	if w.flips.Load() > 0 && w.flips.Add(-1) >= 0 {
		bit = !bit
		w.flipped++
	}
	w.bits++

	return w.enc.Encode(bit)
}
