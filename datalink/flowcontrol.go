package datalink

import (
	"github.com/arloliu/go-spw/internal/util"
	"github.com/arloliu/go-spw/spw"
)

// FlowInput is one tick of inputs to the flow-control manager.
//
// State is the committed link state. RxFifoLen is the occupancy of the
// inbound queue before this tick's push.
type FlowInput struct {
	State     spw.LinkState
	GotFCT    bool
	SentFCT   bool
	GotNChar  bool
	SentNChar bool
	RxFifoLen int
}

// FlowControl accounts transmit and receive credit.
//
// txCredit is the number of normal characters the remote end allows us to
// send. rxCredit is the number of normal characters we have allowed the
// remote end to send. A violation in Run raises a credit error that lasts
// one tick, after which both credits are zero. A violation in Connecting
// drops that tick's update and leaves both credits unchanged.
type FlowControl struct {
	txCredit  int
	rxCredit  int
	creditErr bool

	fifoDepth   int
	maxRxCredit int
}

// NewFlowControl creates a flow-control manager for an inbound queue backed
// by the given number of tokens.
func NewFlowControl(tokens int) FlowControl {
	return FlowControl{
		fifoDepth:   spw.FifoDepth(tokens),
		maxRxCredit: spw.MaxRxCredit(tokens),
	}
}

func (f FlowControl) TxCredit() int { return f.txCredit }

func (f FlowControl) RxCredit() int { return f.rxCredit }

func (f FlowControl) CreditError() bool { return f.creditErr }

func (f FlowControl) FifoDepth() int { return f.fifoDepth }

// Active reports whether credits are accounted in state s.
func (f FlowControl) Active(s spw.LinkState) bool {
	return s.FlowControlActive() && !f.creditErr
}

// RxTokens returns the number of FCTs that may still be sent given the
// inbound queue occupancy.
func (f FlowControl) RxTokens(rxFifoLen int) int {
	free := f.fifoDepth - rxFifoLen
	limit := util.Clamp(min(free, f.maxRxCredit)-f.rxCredit, 0, spw.MaxCredit)
	return limit / spw.CharsPerFCT
}

// SendFCT reports whether an FCT should be requested this tick.
func (f FlowControl) SendFCT(s spw.LinkState, rxFifoLen int, txReady bool) bool {
	return f.Active(s) && txReady && f.RxTokens(rxFifoLen) > 0
}

// Next returns the manager after one tick with the given inputs.
func (f FlowControl) Next(in FlowInput) FlowControl {
	n := f
	if !f.Active(in.State) {
		n.txCredit, n.rxCredit, n.creditErr = 0, 0, false
		return n
	}

	failed := false

	tx := f.txCredit
	switch {
	case in.GotFCT:
		tx += spw.CharsPerFCT
		if in.SentNChar {
			tx--
		}
		if tx > spw.MaxCredit {
			failed = true
		}
	case in.SentNChar:
		if tx == 0 {
			failed = true
		} else {
			tx--
		}
	}

	rx := f.rxCredit
	switch {
	case in.SentFCT:
		if f.RxTokens(in.RxFifoLen) == 0 {
			failed = true
		} else {
			rx += spw.CharsPerFCT
			if in.GotNChar {
				rx--
			}
		}
	case in.GotNChar:
		if rx == 0 {
			failed = true
		} else {
			rx--
		}
	}

	if failed {
		n.creditErr = in.State.IsRun()
		return n
	}
	n.txCredit, n.rxCredit = tx, rx

	return n
}

// Step advances the manager in place.
func (f *FlowControl) Step(in FlowInput) {
	*f = f.Next(in)
}
