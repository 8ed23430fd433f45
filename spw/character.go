package spw

import (
	"errors"
	"fmt"
)

// Kind identifies the variant of a Character.
type Kind uint8

const (
	KindFCT Kind = iota
	KindEOP
	KindEEP
	KindESC
	KindData
	KindTimecode
)

var kindNames = [...]string{"FCT", "EOP", "EEP", "ESC", "Data", "Timecode"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsControl reports whether characters of kind k serialize to 4 bits.
func (k Kind) IsControl() bool {
	return k <= KindESC
}

// Control codes as transmitted: the low bit of the code is sent first.
const (
	CodeFCT uint8 = 0b00
	CodeEEP uint8 = 0b01
	CodeEOP uint8 = 0b10
	CodeESC uint8 = 0b11
)

const (
	// ControlCharBits is the length of a control character on the wire.
	ControlCharBits = 4
	// DataCharBits is the length of a data character on the wire.
	DataCharBits = 10
	// TimecodeMask selects the time value of a timecode.
	TimecodeMask uint8 = 0x3f
	// TimecodeFlagsShift is the position of the two control-flag bits of a timecode.
	TimecodeFlagsShift = 6
)

var ErrInvalidCharacter = errors.New("spw: invalid character")

// Character is one symbol of the link protocol.
//
// Value carries the byte of a Data character and the timecode byte of a
// Timecode character. It is zero for the control kinds.
type Character struct {
	Kind  Kind
	Value uint8
}

var (
	FCT = Character{Kind: KindFCT}
	EOP = Character{Kind: KindEOP}
	EEP = Character{Kind: KindEEP}
	ESC = Character{Kind: KindESC}
)

// Data returns a data character carrying b.
func Data(b uint8) Character {
	return Character{Kind: KindData, Value: b}
}

// Timecode returns a timecode character carrying the full timecode byte,
// time value in bits 0-5 and control flags in bits 6-7.
func Timecode(tc uint8) Character {
	return Character{Kind: KindTimecode, Value: tc}
}

// ControlCode returns the 2-bit code of a control character.
func (c Character) ControlCode() uint8 {
	switch c.Kind {
	case KindEOP:
		return CodeEOP
	case KindEEP:
		return CodeEEP
	case KindESC:
		return CodeESC
	default:
		return CodeFCT
	}
}

// ControlFromCode maps a 2-bit control code to its character.
func ControlFromCode(code uint8) Character {
	switch code & 0b11 {
	case CodeEOP:
		return EOP
	case CodeEEP:
		return EEP
	case CodeESC:
		return ESC
	default:
		return FCT
	}
}

// IsNChar reports whether c is a normal character: data, EOP or EEP.
// Only normal characters consume flow-control credit.
func (c Character) IsNChar() bool {
	return c.Kind == KindData || c.Kind == KindEOP || c.Kind == KindEEP
}

// IsEndOfPacket reports whether c terminates a packet.
func (c Character) IsEndOfPacket() bool {
	return c.Kind == KindEOP || c.Kind == KindEEP
}

// Bits returns the number of bits c occupies on the wire, not counting the
// escape that precedes a timecode.
func (c Character) Bits() int {
	if c.Kind.IsControl() {
		return ControlCharBits
	}
	return DataCharBits
}

// TimeValue returns the 6-bit time of a timecode.
func (c Character) TimeValue() uint8 {
	return c.Value & TimecodeMask
}

// TimeFlags returns the two control flags of a timecode.
func (c Character) TimeFlags() uint8 {
	return c.Value >> TimecodeFlagsShift
}

// Validate returns ErrInvalidCharacter for an unknown kind or a control
// character carrying a value.
func (c Character) Validate() error {
	if c.Kind > KindTimecode {
		return fmt.Errorf("%w: kind %d", ErrInvalidCharacter, uint8(c.Kind))
	}
	if c.Kind.IsControl() && c.Value != 0 {
		return fmt.Errorf("%w: %s with value %#02x", ErrInvalidCharacter, c.Kind, c.Value)
	}
	return nil
}

func (c Character) String() string {
	switch c.Kind {
	case KindData:
		return fmt.Sprintf("Data(%#02x)", c.Value)
	case KindTimecode:
		return fmt.Sprintf("Timecode(%d/%d)", c.TimeValue(), c.TimeFlags())
	default:
		return c.Kind.String()
	}
}
