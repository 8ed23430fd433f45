package xcvr

import (
	"github.com/arloliu/go-spw/ds"
	"github.com/arloliu/go-spw/spw"
)

type rxState uint8

const (
	rxSync rxState = iota
	rxHeader
	rxControl
	rxData
	rxError
)

func (s rxState) String() string {
	switch s {
	case rxSync:
		return "sync"
	case rxHeader:
		return "header"
	case rxControl:
		return "control"
	case rxData:
		return "data"
	default:
		return "error"
	}
}

// escPattern is the ESC character with its parity bit masked out, as it
// appears in the sync window (first received bit in bit 0).
const (
	escPattern = 0b1110
	escMask    = 0b1110
)

// Receiver decodes characters from the sampled line pair.
//
// A decoded character is held as pending until the header of the following
// character validates the parity that closes over it. Only then is it
// committed and turned into an event.
type Receiver struct {
	enabled bool
	state   rxState
	dec     ds.Decoder
	reg     ds.InputRegister
	disc    DisconnectDetector

	window     uint8
	windowLen  int
	prevParity bool

	pending    spw.Character
	hasPending bool
	escPending bool

	errs spw.ErrorFlags
}

// NewReceiver creates a disabled receiver tripping a disconnect after
// disconnectTicks silent ticks.
func NewReceiver(disconnectTicks int) *Receiver {
	return &Receiver{disc: NewDisconnectDetector(disconnectTicks)}
}

// SetEnabled enables or disables the receiver. Disabling it discards any
// partial character and clears the error flags.
func (r *Receiver) SetEnabled(enabled bool) {
	if r.enabled == enabled {
		return
	}
	r.enabled = enabled
	r.reset()
}

func (r *Receiver) Enabled() bool {
	return r.enabled
}

// SetDisconnectTicks changes the disconnect timeout.
func (r *Receiver) SetDisconnectTicks(ticks int) {
	r.disc.SetLimit(ticks)
}

// Errors returns the faults detected since the receiver was enabled.
func (r *Receiver) Errors() spw.ErrorFlags {
	return r.errs
}

// Failed reports whether the receiver stopped decoding after a fault.
func (r *Receiver) Failed() bool {
	return r.state == rxError
}

// Synced reports whether the receiver has locked onto the character stream.
func (r *Receiver) Synced() bool {
	return r.state != rxSync
}

// Pending returns the decoded character awaiting confirmation.
func (r *Receiver) Pending() (spw.Character, bool) {
	return r.pending, r.hasPending
}

func (r *Receiver) reset() {
	r.state = rxSync
	r.dec.Reset()
	r.reg.Reset()
	r.disc.Reset()
	r.window, r.windowLen = 0, 0
	r.prevParity = false
	r.pending, r.hasPending, r.escPending = spw.Character{}, false, false
	r.errs = 0
}

// Step processes the line pair sampled on one tick and returns the
// confirmed event, if any.
func (r *Receiver) Step(p ds.BitPair) RxEvent {
	if !r.enabled {
		return RxEvent{}
	}

	s := r.dec.Decode(p)
	if s.Violation {
		r.fail(spw.ErrRead)
	}
	if r.disc.Step(s.Clock) {
		r.fail(spw.ErrDisconnect)
	}
	if r.state == rxError || !s.Clock {
		return RxEvent{}
	}

	return r.shift(s.Bit)
}

func (r *Receiver) shift(bit bool) RxEvent {
	switch r.state {
	case rxSync:
		r.window >>= 1
		if bit {
			r.window |= 1 << 3
		}
		if r.windowLen < spw.ControlCharBits {
			r.windowLen++
		}
		if r.windowLen == spw.ControlCharBits && r.window&escMask == escPattern {
			r.pending, r.hasPending = spw.ESC, true
			r.prevParity = false
			r.reg.Reset()
			r.state = rxHeader
		}

	case rxHeader:
		r.reg.Shift(bit)
		if r.reg.Len() < 2 {
			return RxEvent{}
		}
		if !ds.HeaderValid(r.prevParity, r.reg.Parity(), r.reg.IsControl()) {
			r.fail(spw.ErrParity)
			return RxEvent{}
		}
		ev := r.commit()
		if r.state == rxError {
			return RxEvent{}
		}
		if r.reg.IsControl() {
			r.state = rxControl
		} else {
			r.state = rxData
		}
		return ev

	case rxControl, rxData:
		r.reg.Shift(bit)
		if !r.reg.Complete() {
			return RxEvent{}
		}
		if c, ok := r.reg.ClassifyControl(); ok {
			r.pending = c
		} else if b, ok := r.reg.DataByte(); ok {
			r.pending = spw.Data(b)
		} else {
			r.fail(spw.ErrRead)
			return RxEvent{}
		}
		r.hasPending = true
		r.prevParity = r.reg.PayloadParity()
		r.reg.Reset()
		r.state = rxHeader
	}

	return RxEvent{}
}

// commit turns the pending character into an event, resolving escape
// sequences.
func (r *Receiver) commit() RxEvent {
	if !r.hasPending {
		return RxEvent{}
	}
	c := r.pending
	r.hasPending = false

	esc := r.escPending
	r.escPending = false

	switch c.Kind {
	case spw.KindFCT:
		if esc {
			return RxEvent{Kind: RxNull}
		}
		return RxEvent{Kind: RxFCT}

	case spw.KindEOP, spw.KindEEP, spw.KindESC:
		if esc {
			r.fail(spw.ErrEscape)
			return RxEvent{}
		}
		if c.Kind == spw.KindESC {
			r.escPending = true
			return RxEvent{}
		}
		return RxEvent{Kind: RxNChar, Char: c}

	default:
		if esc {
			return RxEvent{Kind: RxTimecode, Char: spw.Timecode(c.Value)}
		}
		return RxEvent{Kind: RxNChar, Char: c}
	}
}

func (r *Receiver) fail(flag spw.ErrorFlags) {
	r.errs |= flag
	r.state = rxError
}
