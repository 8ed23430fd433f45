package xcvr

import (
	"github.com/arloliu/go-spw/ds"
	"github.com/arloliu/go-spw/spw"
)

type txState uint8

const (
	txIdle txState = iota
	txSendControl
	txSendData
	txTimecodeEsc
	txTimecodeData
	txNullEsc
	txNullFct
)

func (s txState) String() string {
	switch s {
	case txIdle:
		return "idle"
	case txSendControl:
		return "send-control"
	case txSendData:
		return "send-data"
	case txTimecodeEsc:
		return "timecode-esc"
	case txTimecodeData:
		return "timecode-data"
	case txNullEsc:
		return "null-esc"
	case txNullFct:
		return "null-fct"
	default:
		return "unknown"
	}
}

// TxRequest holds the send requests raised for one tick.
//
// Control carries ESC, EOP or EEP. Requests are only considered while the
// transmitter is idle; the one taken is reported by TxResult.Accepted.
type TxRequest struct {
	Data     bool
	DataByte uint8

	FCT bool

	Control     bool
	ControlChar spw.Character

	Timecode     bool
	TimecodeByte uint8
}

// TxResult is the outcome of one transmitter tick.
type TxResult struct {
	Lines    ds.BitPair
	Accepted Accepted
	Event    TxEvent
}

// Transmitter serializes requested characters onto the line pair, one bit
// per transmit clock. When no request is pending it sends NULLs.
type Transmitter struct {
	enabled bool
	state   txState
	enc     ds.Encoder
	reg     ds.OutputRegister

	loaded          spw.Kind
	pendingTimecode uint8

	divider int
	count   int
}

// NewTransmitter creates a disabled transmitter sending one bit every
// divider ticks.
func NewTransmitter(divider int) *Transmitter {
	t := &Transmitter{}
	t.SetDivider(divider)
	t.enc.Reset()

	return t
}

// SetDivider changes the number of ticks per transmitted bit.
func (t *Transmitter) SetDivider(divider int) {
	if divider < 1 {
		divider = 1
	}
	t.divider = divider
	if t.count >= divider {
		t.count = 0
	}
}

func (t *Transmitter) Divider() int {
	return t.divider
}

// SetEnabled enables or disables the transmitter. Disabling it abandons the
// character in flight and drives both lines low.
func (t *Transmitter) SetEnabled(enabled bool) {
	if t.enabled == enabled {
		return
	}
	t.enabled = enabled
	if !enabled {
		t.state = txIdle
		t.reg.Reset()
		t.enc.Reset()
	}
}

func (t *Transmitter) Enabled() bool {
	return t.enabled
}

// Ready reports whether a request would be accepted on the next transmit
// clock.
func (t *Transmitter) Ready() bool {
	return t.enabled && t.state == txIdle && t.enc.Ready()
}

// Lines returns the line pair currently driven.
func (t *Transmitter) Lines() ds.BitPair {
	return t.enc.Lines()
}

// Step advances the transmitter by one tick.
func (t *Transmitter) Step(req TxRequest) TxResult {
	t.count++
	if t.count < t.divider {
		return TxResult{Lines: t.enc.Lines()}
	}
	t.count = 0

	if !t.enabled || !t.enc.Ready() {
		return TxResult{Lines: t.enc.Idle()}
	}

	var res TxResult
	if t.state == txIdle {
		res.Accepted = t.accept(req)
	}

	bit, last := t.reg.Next()
	res.Lines = t.enc.Encode(bit)
	if last {
		res.Event = t.finish()
	}

	return res
}

// accept loads the highest priority request: data, FCT, control character,
// timecode, then NULL.
func (t *Transmitter) accept(req TxRequest) Accepted {
	switch {
	case req.Data:
		t.reg.Load(spw.Data(req.DataByte))
		t.state = txSendData
		return AcceptData
	case req.FCT:
		t.reg.Load(spw.FCT)
		t.loaded = spw.KindFCT
		t.state = txSendControl
		return AcceptFCT
	case req.Control:
		t.reg.Load(req.ControlChar)
		t.loaded = req.ControlChar.Kind
		t.state = txSendControl
		return AcceptControl
	case req.Timecode:
		t.reg.Load(spw.ESC)
		t.state = txTimecodeEsc
		t.pendingTimecode = req.TimecodeByte
		return AcceptTimecode
	default:
		t.reg.Load(spw.ESC)
		t.state = txNullEsc
		return AcceptNull
	}
}

// finish handles the end of a character and chains the second half of
// NULLs and timecodes.
func (t *Transmitter) finish() TxEvent {
	switch t.state {
	case txSendData:
		t.state = txIdle
		return TxSentNChar
	case txSendControl:
		t.state = txIdle
		switch t.loaded {
		case spw.KindFCT:
			return TxSentFCT
		case spw.KindESC:
			return TxSentEsc
		default:
			return TxSentNChar
		}
	case txTimecodeEsc:
		t.reg.Load(spw.Data(t.pendingTimecode))
		t.state = txTimecodeData
		return TxNone
	case txTimecodeData:
		t.state = txIdle
		return TxSentTimecode
	case txNullEsc:
		t.reg.Load(spw.FCT)
		t.state = txNullFct
		return TxNone
	case txNullFct:
		t.state = txIdle
		return TxSentNull
	}

	return TxNone
}
