// Package xcvr turns the data-strobe codec into a character level interface.
//
// The Receiver emits at most one RxEvent per tick and reports framing and
// protocol faults as spw.ErrorFlags. The Transmitter arbitrates pending
// requests and reports which one it accepted and which character it finished
// sending.
package xcvr

import "github.com/arloliu/go-spw/spw"

// RxEventKind identifies a receive event.
type RxEventKind uint8

const (
	RxNone RxEventKind = iota
	RxFCT
	RxNull
	RxNChar
	RxTimecode
)

func (k RxEventKind) String() string {
	switch k {
	case RxNone:
		return "none"
	case RxFCT:
		return "fct"
	case RxNull:
		return "null"
	case RxNChar:
		return "nchar"
	case RxTimecode:
		return "timecode"
	default:
		return "unknown"
	}
}

// RxEvent is a confirmed received symbol.
// Char holds the character of RxNChar and RxTimecode events.
type RxEvent struct {
	Kind RxEventKind
	Char spw.Character
}

// TxEvent identifies the character the transmitter finished sending.
type TxEvent uint8

const (
	TxNone TxEvent = iota
	TxSentFCT
	TxSentNull
	TxSentNChar
	TxSentTimecode
	TxSentEsc
)

func (e TxEvent) String() string {
	switch e {
	case TxNone:
		return "none"
	case TxSentFCT:
		return "sent-fct"
	case TxSentNull:
		return "sent-null"
	case TxSentNChar:
		return "sent-nchar"
	case TxSentTimecode:
		return "sent-timecode"
	case TxSentEsc:
		return "sent-esc"
	default:
		return "unknown"
	}
}

// Accepted identifies the request taken by the transmitter on an idle tick.
type Accepted uint8

const (
	AcceptNone Accepted = iota
	AcceptData
	AcceptFCT
	AcceptControl
	AcceptTimecode
	AcceptNull
)

func (a Accepted) String() string {
	switch a {
	case AcceptNone:
		return "none"
	case AcceptData:
		return "data"
	case AcceptFCT:
		return "fct"
	case AcceptControl:
		return "control"
	case AcceptTimecode:
		return "timecode"
	case AcceptNull:
		return "null"
	default:
		return "unknown"
	}
}
