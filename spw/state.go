package spw

// LinkState represents the stages of link establishment and maintenance.
type LinkState uint8

// Link states in order of progression. Every state falls back to
// ErrorResetState on a fault.
const (
	// ErrorResetState holds the transmitter and receiver in reset.
	ErrorResetState LinkState = iota
	// ErrorWaitState runs the receiver while the transmitter stays in reset.
	ErrorWaitState
	// ReadyState waits for a start request.
	ReadyState
	// StartedState transmits NULLs and waits for one from the remote end.
	StartedState
	// ConnectingState exchanges FCTs.
	ConnectingState
	// RunState carries normal characters.
	RunState
)

// IsErrorReset returns if the current state is ErrorReset.
func (s LinkState) IsErrorReset() bool { return s == ErrorResetState }

// IsErrorWait returns if the current state is ErrorWait.
func (s LinkState) IsErrorWait() bool { return s == ErrorWaitState }

// IsReady returns if the current state is Ready.
func (s LinkState) IsReady() bool { return s == ReadyState }

// IsStarted returns if the current state is Started.
func (s LinkState) IsStarted() bool { return s == StartedState }

// IsConnecting returns if the current state is Connecting.
func (s LinkState) IsConnecting() bool { return s == ConnectingState }

// IsRun returns if the current state is Run.
func (s LinkState) IsRun() bool { return s == RunState }

// TransmitterEnabled reports whether the transmitter drives the lines in this state.
func (s LinkState) TransmitterEnabled() bool {
	return s == StartedState || s == ConnectingState || s == RunState
}

// ReceiverEnabled reports whether the receiver decodes in this state.
func (s LinkState) ReceiverEnabled() bool {
	return s != ErrorResetState
}

// FlowControlActive reports whether credits are accounted in this state.
func (s LinkState) FlowControlActive() bool {
	return s == ConnectingState || s == RunState
}

// CanTransition reports whether next is reachable from s in one tick:
// the state itself, its successor, or ErrorReset.
func (s LinkState) CanTransition(next LinkState) bool {
	if next == s || next == ErrorResetState {
		return true
	}
	return s < RunState && next == s+1
}

// String returns string representation of the current state.
func (s LinkState) String() string {
	switch s {
	case ErrorResetState:
		return "error-reset"
	case ErrorWaitState:
		return "error-wait"
	case ReadyState:
		return "ready"
	case StartedState:
		return "started"
	case ConnectingState:
		return "connecting"
	case RunState:
		return "run"
	default:
		return "unknown"
	}
}

// RecoveryState represents the stages of the fault recovery procedure.
type RecoveryState uint8

const (
	// RecoveryNormal is the idle stage, no fault is being handled.
	RecoveryNormal RecoveryState = iota
	// RecoveryDiscardTx drops outgoing characters up to a packet boundary.
	RecoveryDiscardTx
	// RecoveryAddEepRx appends a truncation marker to the inbound queue.
	RecoveryAddEepRx
)

// IsNormal returns if no fault recovery is in progress.
func (s RecoveryState) IsNormal() bool { return s == RecoveryNormal }

// String returns the name of the recovery stage.
func (s RecoveryState) String() string {
	switch s {
	case RecoveryNormal:
		return "normal"
	case RecoveryDiscardTx:
		return "discard-tx"
	case RecoveryAddEepRx:
		return "add-eep-rx"
	default:
		return "unknown"
	}
}
