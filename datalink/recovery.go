package datalink

import "github.com/arloliu/go-spw/spw"

// RecoveryInput is one tick of inputs to the recovery procedure.
type RecoveryInput struct {
	// State is the committed link state.
	State spw.LinkState
	// Faults are the faults visible this tick.
	Faults spw.ErrorFlags
	// TxHead is the next outgoing character, valid unless TxEmpty.
	TxHead    spw.Character
	TxEmpty   bool
	RxHasRoom bool
}

// RecoveryActions are the queue operations requested by one tick of the
// recovery procedure.
type RecoveryActions struct {
	// PopTx discards the head of the outgoing queue.
	PopTx bool
	// PushEEP appends an EEP to the inbound queue.
	PushEEP bool
}

// Recovery drains the outgoing queue to a packet boundary and marks the
// inbound stream as truncated after a fault in Run.
type Recovery struct {
	state  spw.RecoveryState
	report spw.ErrorFlags
}

func (r Recovery) State() spw.RecoveryState { return r.state }

// Report returns the faults that started the last recovery.
func (r Recovery) Report() spw.ErrorFlags { return r.report }

// ClearReport forgets the last recovery report.
func (r Recovery) ClearReport() Recovery {
	r.report = 0
	return r
}

// Next returns the procedure after one tick and the queue operations the
// caller must apply on that tick.
func (r Recovery) Next(in RecoveryInput) (Recovery, RecoveryActions) {
	var act RecoveryActions

	switch r.state {
	case spw.RecoveryNormal:
		if in.State.IsRun() && in.Faults.Any(spw.RecoveryTriggers) {
			r.state = spw.RecoveryDiscardTx
			r.report = in.Faults & spw.RecoveryTriggers
		}

	case spw.RecoveryDiscardTx:
		if in.TxEmpty {
			r.state = spw.RecoveryAddEepRx
			break
		}
		act.PopTx = true
		if in.TxHead.IsEndOfPacket() {
			r.state = spw.RecoveryAddEepRx
		}

	case spw.RecoveryAddEepRx:
		if in.RxHasRoom {
			act.PushEEP = true
			r.state = spw.RecoveryNormal
		}
	}

	return r, act
}
