package datalink

import "github.com/arloliu/go-spw/spw"

// FSMInput is one tick of inputs to the link state machine.
//
// The Got and Sent fields are this tick's receiver and transmitter events.
// RxErrors and CreditError are levels read from the committed state of the
// receiver and the flow-control manager.
type FSMInput struct {
	LinkDisabled   bool
	LinkStart      bool
	Autostart      bool
	RecoveryNormal bool

	RxErrors    spw.ErrorFlags
	CreditError bool

	GotNull     bool
	GotFCT      bool
	GotNChar    bool
	GotTimecode bool

	SentNull bool
	SentFCT  bool
}

func (in FSMInput) receiveError() bool {
	return in.RxErrors.Any(spw.ReceiveErrors)
}

// FSM is the link state machine.
//
// It owns the got/sent NULL and FCT latches. They accumulate outside
// ErrorReset and are cleared on every tick that is spent in, or moves to,
// ErrorReset.
type FSM struct {
	state spw.LinkState
	delay Delay

	gotNull  bool
	sentNull bool
	gotFCT   bool
	sentFCT  bool
}

// NewFSM creates a state machine in ErrorReset using the given half and
// full delays in ticks.
func NewFSM(halfTicks, fullTicks int) FSM {
	return FSM{state: spw.ErrorResetState, delay: NewDelay(halfTicks, fullTicks)}
}

func (f FSM) State() spw.LinkState { return f.state }

// Elapsed returns the number of ticks spent in the current state.
func (f FSM) Elapsed() int { return f.delay.Elapsed() }

func (f FSM) GotNull() bool { return f.gotNull }

func (f FSM) SentNull() bool { return f.sentNull }

func (f FSM) GotFCT() bool { return f.gotFCT }

func (f FSM) SentFCT() bool { return f.sentFCT }

// SetDelays replaces the delay thresholds, keeping the elapsed count.
func (f FSM) SetDelays(halfTicks, fullTicks int) FSM {
	f.delay.half, f.delay.full = halfTicks, fullTicks
	if f.delay.elapsed > fullTicks {
		f.delay.elapsed = fullTicks
	}
	return f
}

// Next returns the state machine after one tick with the given inputs.
func (f FSM) Next(in FSMInput) FSM {
	n := f
	n.delay = f.delay.Advance()

	gotNull := f.gotNull || in.GotNull
	sentNull := f.sentNull || in.SentNull
	gotFCT := f.gotFCT || in.GotFCT
	sentFCT := f.sentFCT || in.SentFCT

	next := f.state
	switch {
	case in.LinkDisabled:
		next = spw.ErrorResetState

	case f.state == spw.ErrorResetState:
		if in.RecoveryNormal && n.delay.HalfElapsed() {
			next = spw.ErrorWaitState
		}

	case f.state == spw.ErrorWaitState:
		if in.receiveError() || in.GotFCT || in.GotNChar || in.GotTimecode {
			next = spw.ErrorResetState
		} else if n.delay.FullElapsed() {
			next = spw.ReadyState
		}

	case f.state == spw.ReadyState:
		if in.receiveError() || in.GotFCT || in.GotNChar || in.GotTimecode {
			next = spw.ErrorResetState
		} else if in.LinkStart || (in.Autostart && gotNull) {
			next = spw.StartedState
		}

	case f.state == spw.StartedState:
		if in.receiveError() || gotFCT || in.GotNChar || in.GotTimecode {
			next = spw.ErrorResetState
		} else if gotNull && sentNull {
			next = spw.ConnectingState
		} else if n.delay.FullElapsed() {
			next = spw.ErrorResetState
		}

	case f.state == spw.ConnectingState:
		if in.receiveError() || in.GotNChar || in.GotTimecode {
			next = spw.ErrorResetState
		} else if gotFCT && sentFCT {
			next = spw.RunState
		} else if n.delay.FullElapsed() {
			next = spw.ErrorResetState
		}

	case f.state == spw.RunState:
		if in.receiveError() || in.CreditError {
			next = spw.ErrorResetState
		}
	}

	if f.state == spw.ErrorResetState || next == spw.ErrorResetState {
		n.gotNull, n.sentNull, n.gotFCT, n.sentFCT = false, false, false, false
	} else {
		n.gotNull, n.sentNull, n.gotFCT, n.sentFCT = gotNull, sentNull, gotFCT, sentFCT
	}

	// a disabled link restarts the reset period on every tick it is held
	if next != f.state || (in.LinkDisabled && f.state == spw.ErrorResetState) {
		n.state = next
		n.delay = n.delay.Restart()
	}

	return n
}

// Step advances the state machine in place and returns the new state.
func (f *FSM) Step(in FSMInput) spw.LinkState {
	*f = f.Next(in)
	return f.state
}
