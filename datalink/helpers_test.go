package datalink

import (
	"testing"

	"github.com/arloliu/go-spw/spw"
)

const (
	testHalf = 8
	testFull = 16
)

// controller evaluates the state machine, flow control and recovery
// against the same committed state on every tick.
type controller struct {
	fsm FSM
	fc  FlowControl
	rec Recovery
}

type tickEvents struct {
	gotNull, gotFCT, gotNChar, gotTimecode bool
	sentNull, sentFCT, sentNChar          bool
	rxErrors                              spw.ErrorFlags
	linkStart                             bool
	rxFifoLen                             int
}

func newController() *controller {
	return &controller{fsm: NewFSM(testHalf, testFull), fc: NewFlowControl(spw.MaxTokens)}
}

func (c *controller) tick(ev tickEvents) {
	state := c.fsm.State()
	faults := ev.rxErrors
	if c.fc.CreditError() {
		faults |= spw.ErrCredit
	}

	nextFSM := c.fsm.Next(FSMInput{
		LinkStart:      ev.linkStart,
		RecoveryNormal: c.rec.State().IsNormal(),
		RxErrors:       ev.rxErrors,
		CreditError:    c.fc.CreditError(),
		GotNull:        ev.gotNull,
		GotFCT:         ev.gotFCT,
		GotNChar:       ev.gotNChar,
		GotTimecode:    ev.gotTimecode,
		SentNull:       ev.sentNull,
		SentFCT:        ev.sentFCT,
	})
	nextFC := c.fc.Next(FlowInput{
		State:     state,
		GotFCT:    ev.gotFCT,
		SentFCT:   ev.sentFCT,
		GotNChar:  ev.gotNChar,
		SentNChar: ev.sentNChar,
		RxFifoLen: ev.rxFifoLen,
	})
	nextRec, _ := c.rec.Next(RecoveryInput{State: state, Faults: faults, TxEmpty: true, RxHasRoom: true})

	c.fsm, c.fc, c.rec = nextFSM, nextFC, nextRec
}

// toState drives the controller from reset into the given state through
// the regular handshake.
func (c *controller) toState(t *testing.T, target spw.LinkState) {
	t.Helper()

	for i := 0; i < 1000 && c.fsm.State() != target; i++ {
		var ev tickEvents
		switch c.fsm.State() {
		case spw.ReadyState:
			ev.linkStart = true
		case spw.StartedState:
			ev.gotNull, ev.sentNull = true, true
		case spw.ConnectingState:
			ev.gotFCT, ev.sentFCT = true, true
		}
		c.tick(ev)
	}
	if c.fsm.State() != target {
		t.Fatalf("state %s not reached, stuck in %s", target, c.fsm.State())
	}
}
