// Package trace records the link telemetry over a run and stores it as CBOR.
//
// A Recorder keeps one Sample per change of the observed link status, so a
// run of millions of ticks in Run compresses to a handful of samples.
package trace

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/arloliu/go-spw/internal/util"
	"github.com/arloliu/go-spw/link"
	"github.com/arloliu/go-spw/spw"
)

// Version is the trace format version written by Encode.
const Version = 1

// ErrVersion is returned by Decode for traces of an unknown format version.
var ErrVersion = errors.New("trace: unsupported version")

// Sample is the link status at the tick it changed.
type Sample struct {
	Tick       uint64            `cbor:"1,keyasint"`
	State      spw.LinkState     `cbor:"2,keyasint"`
	Recovery   spw.RecoveryState `cbor:"3,keyasint"`
	Errors     spw.ErrorFlags    `cbor:"4,keyasint"`
	TxCredit   int               `cbor:"5,keyasint"`
	RxCredit   int               `cbor:"6,keyasint"`
	TxQueueLen int               `cbor:"7,keyasint"`
	RxQueueLen int               `cbor:"8,keyasint"`
	D          bool              `cbor:"9,keyasint,omitempty"`
	S          bool              `cbor:"10,keyasint,omitempty"`
}

// sameAs reports whether s and o differ only by tick.
func (s Sample) sameAs(o Sample) bool {
	s.Tick = o.Tick
	return s == o
}

// Trace is a recorded run of one link.
type Trace struct {
	Version  int      `cbor:"1,keyasint"`
	Link     string   `cbor:"2,keyasint"`
	TickRate float64  `cbor:"3,keyasint"`
	Ticks    uint64   `cbor:"4,keyasint"`
	Samples  []Sample `cbor:"5,keyasint"`
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLines records the driven line pair too. Lines change on every bit, so
// this grows the trace to one sample per bit.
func WithLines() Option {
	return func(r *Recorder) { r.lines = true }
}

// WithLimit caps the number of recorded samples. Samples past the limit are
// counted as dropped.
func WithLimit(n int) Option {
	return func(r *Recorder) { r.limit = n }
}

// Recorder samples the status of one link. It is not safe for concurrent use.
type Recorder struct {
	l       *link.Link
	lines   bool
	limit   int
	samples []Sample
	last    Sample
	ticks   uint64
	dropped int
}

// NewRecorder creates a recorder for l.
func NewRecorder(l *link.Link, opts ...Option) *Recorder {
	r := &Recorder{l: l}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Observe takes a snapshot of the link and records it if anything but the
// tick changed. It reports whether a sample was recorded.
func (r *Recorder) Observe() bool {
	st := r.l.Status()
	r.ticks = st.Tick

	s := Sample{
		Tick:       st.Tick,
		State:      st.State,
		Recovery:   st.Recovery,
		Errors:     st.Errors,
		TxCredit:   st.TxCredit,
		RxCredit:   st.RxCredit,
		TxQueueLen: st.TxQueueLen,
		RxQueueLen: st.RxQueueLen,
	}
	if r.lines {
		s.D, s.S = st.Lines.D, st.Lines.S
	}

	if len(r.samples) > 0 && s.sameAs(r.last) {
		return false
	}
	r.last = s
	if r.limit > 0 && len(r.samples) >= r.limit {
		r.dropped++
		return false
	}
	r.samples = append(r.samples, s)

	return true
}

func (r *Recorder) Len() int { return len(r.samples) }

// Dropped returns the number of changes not recorded because of the limit.
func (r *Recorder) Dropped() int { return r.dropped }

// Samples returns a copy of the recorded samples.
func (r *Recorder) Samples() []Sample {
	return util.CloneSlice(r.samples, 0)
}

// Reset discards all recorded samples.
func (r *Recorder) Reset() {
	r.samples = r.samples[:0]
	r.last = Sample{}
	r.dropped = 0
}

// Trace returns the recorded run.
func (r *Recorder) Trace() *Trace {
	return &Trace{
		Version:  Version,
		Link:     r.l.Name(),
		TickRate: r.l.Config().TickRate(),
		Ticks:    r.ticks,
		Samples:  r.Samples(),
	}
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Encode writes t to w as deterministic CBOR.
func (t *Trace) Encode(w io.Writer) error {
	if err := encMode.NewEncoder(w).Encode(t); err != nil {
		return fmt.Errorf("trace: encode: %w", err)
	}
	return nil
}

// Marshal returns t as deterministic CBOR.
func (t *Trace) Marshal() ([]byte, error) {
	data, err := encMode.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("trace: encode: %w", err)
	}
	return data, nil
}

// Decode reads one trace from r.
func Decode(r io.Reader) (*Trace, error) {
	return decodeNext(cbor.NewDecoder(r))
}

// DecodeAll reads every trace written back to back to r.
func DecodeAll(r io.Reader) ([]*Trace, error) {
	dec := cbor.NewDecoder(r)

	var out []*Trace
	for {
		t, err := decodeNext(dec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
}

func decodeNext(dec *cbor.Decoder) (*Trace, error) {
	var t Trace
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("trace: decode: %w", err)
	}
	if t.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, t.Version)
	}

	return &t, nil
}
