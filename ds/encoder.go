package ds

// BitPair is the state of the data and strobe lines for one tick.
type BitPair struct {
	D bool
	S bool
}

// Clock returns the recovered bit clock of the pair.
func (p BitPair) Clock() bool {
	return p.D != p.S
}

// String renders the pair as "DS" with 0/1 digits.
func (p BitPair) String() string {
	b := [2]byte{'0', '0'}
	if p.D {
		b[0] = '1'
	}
	if p.S {
		b[1] = '1'
	}
	return string(b[:])
}

// ResetHoldBits is the number of bit periods both lines stay low after a
// reset before the encoder accepts bits again.
const ResetHoldBits = 4

// Encoder drives the line pair from a bit stream.
//
// The zero value is an encoder with both lines low, ready to transmit.
type Encoder struct {
	lines     BitPair
	resetting bool
	hold      int
}

// Encode puts one bit on the lines. While the encoder is resetting the bit
// is ignored and the reset sequence advances instead.
func (e *Encoder) Encode(bit bool) BitPair {
	if !e.Ready() {
		return e.Idle()
	}
	if e.lines.D == bit {
		e.lines.S = !e.lines.S
	}
	e.lines.D = bit

	return e.lines
}

// Reset starts the reset sequence: the strobe line drops, then the data line
// drops on the following bit period, then both stay low for ResetHoldBits
// periods.
func (e *Encoder) Reset() {
	e.resetting = true
	e.hold = ResetHoldBits
}

// Idle advances the reset sequence by one bit period and returns the lines.
// It leaves a ready encoder untouched.
func (e *Encoder) Idle() BitPair {
	if !e.resetting {
		return e.lines
	}

	switch {
	case e.lines.S:
		e.lines.S = false
	case e.lines.D:
		e.lines.D = false
	default:
		e.hold--
		if e.hold <= 0 {
			e.resetting = false
		}
	}

	return e.lines
}

// Ready reports whether the encoder accepts bits.
func (e *Encoder) Ready() bool {
	return !e.resetting
}

// Lines returns the current line pair.
func (e *Encoder) Lines() BitPair {
	return e.lines
}
