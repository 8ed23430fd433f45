package spw

import "strings"

// ErrorFlags is a set of detected link faults.
type ErrorFlags uint8

const (
	ErrParity ErrorFlags = 1 << iota
	ErrRead
	ErrEscape
	ErrDisconnect
	ErrCredit
	ErrLinkDisabled
)

// ReceiveErrors are the faults reported by the character receiver.
const ReceiveErrors = ErrParity | ErrRead | ErrEscape | ErrDisconnect

// RecoveryTriggers are the faults that start the recovery procedure in Run.
const RecoveryTriggers = ErrDisconnect | ErrParity | ErrEscape | ErrCredit | ErrLinkDisabled

var flagNames = [...]string{"parity", "read", "escape", "disconnect", "credit", "link-disabled"}

// Has reports whether every flag in mask is set.
func (f ErrorFlags) Has(mask ErrorFlags) bool {
	return f&mask == mask
}

// Any reports whether any flag in mask is set.
func (f ErrorFlags) Any(mask ErrorFlags) bool {
	return f&mask != 0
}

// IsZero reports whether no fault is set.
func (f ErrorFlags) IsZero() bool {
	return f == 0
}

// String joins the names of the set flags with "|", or returns "none".
func (f ErrorFlags) String() string {
	if f == 0 {
		return "none"
	}

	var sb strings.Builder
	for i, name := range flagNames {
		if f&(1<<i) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(name)
	}

	return sb.String()
}
