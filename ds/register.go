package ds

import (
	"math/bits"

	"github.com/arloliu/go-spw/spw"
)

const (
	parityBit = 0
	flagBit   = 1
)

// InputRegister accumulates the bits of one received character.
// Bit i of the register is the i-th bit received.
type InputRegister struct {
	bits uint16
	n    int
}

// Shift appends one received bit.
func (r *InputRegister) Shift(bit bool) {
	if r.n >= spw.DataCharBits {
		return
	}
	if bit {
		r.bits |= 1 << r.n
	}
	r.n++
}

func (r *InputRegister) Reset() {
	r.bits, r.n = 0, 0
}

// Len returns the number of bits shifted in since the last reset.
func (r *InputRegister) Len() int {
	return r.n
}

// Bits returns the raw register content.
func (r *InputRegister) Bits() uint16 {
	return r.bits
}

// Parity returns the parity bit of the character.
func (r *InputRegister) Parity() bool {
	return r.bits&(1<<parityBit) != 0
}

// IsControl returns the control flag of the character.
func (r *InputRegister) IsControl() bool {
	return r.bits&(1<<flagBit) != 0
}

// Complete reports whether every bit of the character announced by the
// header has been shifted in. It is false before the header is complete.
func (r *InputRegister) Complete() bool {
	switch {
	case r.n < 2:
		return false
	case r.IsControl():
		return r.n == spw.ControlCharBits
	default:
		return r.n == spw.DataCharBits
	}
}

// ClassifyControl matches a complete control register against the four
// control characters. ok is false when the register does not hold a
// complete control character.
func (r *InputRegister) ClassifyControl() (c spw.Character, ok bool) {
	if r.n != spw.ControlCharBits || !r.IsControl() {
		return spw.Character{}, false
	}
	return spw.ControlFromCode(uint8(r.bits >> 2)), true
}

// DataByte returns the payload of a complete data register.
func (r *InputRegister) DataByte() (b uint8, ok bool) {
	if r.n != spw.DataCharBits || r.IsControl() {
		return 0, false
	}
	return uint8(r.bits >> 2), true
}

// PayloadParity returns the XOR of the payload bits shifted in so far.
func (r *InputRegister) PayloadParity() bool {
	return bits.OnesCount16(r.bits>>2)&1 == 1
}

// HeaderValid reports whether the parity bit and the control flag in the
// register keep the running parity odd given the payload parity of the
// previous character.
func HeaderValid(prevPayloadParity, parity, control bool) bool {
	return prevPayloadParity != parity != control
}

// ParityBit returns the parity bit to send ahead of a character.
func ParityBit(prevPayloadParity, control bool) bool {
	return prevPayloadParity == control
}

// OutputRegister serializes one character at a time.
//
// It carries the payload parity of the last loaded character, which decides
// the parity bit of the next one.
type OutputRegister struct {
	bits       uint16
	n          int
	pos        int
	prevParity bool
}

// Load replaces the register content with c. A timecode is loaded as its
// data byte; the escape ahead of it is loaded separately.
func (r *OutputRegister) Load(c spw.Character) {
	control := c.Kind.IsControl()

	var payload uint16
	if control {
		payload = uint16(c.ControlCode())
		r.n = spw.ControlCharBits
	} else {
		payload = uint16(c.Value)
		r.n = spw.DataCharBits
	}

	r.bits = payload << 2
	if control {
		r.bits |= 1 << flagBit
	}
	if ParityBit(r.prevParity, control) {
		r.bits |= 1 << parityBit
	}
	r.pos = 0
	r.prevParity = bits.OnesCount16(payload)&1 == 1
}

// Next returns the next bit to send and whether it is the last bit of the
// character. It returns false, true on an empty register.
func (r *OutputRegister) Next() (bit bool, last bool) {
	if r.pos >= r.n {
		return false, true
	}
	bit = r.bits&(1<<r.pos) != 0
	r.pos++

	return bit, r.pos == r.n
}

// Empty reports whether every loaded bit has been sent.
func (r *OutputRegister) Empty() bool {
	return r.pos >= r.n
}

// Reset empties the register and restarts the parity chain.
func (r *OutputRegister) Reset() {
	*r = OutputRegister{}
}
