package link

import (
	"github.com/arloliu/go-spw/ds"
	"github.com/arloliu/go-spw/spw"
)

// Status is a snapshot of the link telemetry taken between ticks.
type Status struct {
	Tick           uint64
	State          spw.LinkState
	Recovery       spw.RecoveryState
	Errors         spw.ErrorFlags
	RecoveryReport spw.ErrorFlags
	TxCredit       int
	RxCredit       int
	RxTokens       int
	TxQueueLen     int
	RxQueueLen     int
	Lines          ds.BitPair
}

// Status returns a snapshot of the link telemetry.
func (l *Link) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Status{
		Tick:           l.ticks,
		State:          l.fsm.State(),
		Recovery:       l.rec.State(),
		Errors:         l.errFlags,
		RecoveryReport: l.rec.Report(),
		TxCredit:       l.fc.TxCredit(),
		RxCredit:       l.fc.RxCredit(),
		RxTokens:       l.rxTokens(),
		TxQueueLen:     l.txQueue.Length(),
		RxQueueLen:     l.rxQueue.Length(),
		Lines:          l.lines,
	}
}

func (l *Link) rxTokens() int {
	if !l.fc.Active(l.fsm.State()) {
		return 0
	}
	return l.fc.RxTokens(l.rxQueue.Length())
}

// State returns the committed link state.
func (l *Link) State() spw.LinkState {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.fsm.State()
}

// RecoveryState returns the state of the recovery procedure.
func (l *Link) RecoveryState() spw.RecoveryState {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.rec.State()
}

// ErrorFlags returns the faults detected since the last ClearErrorFlags or SoftReset.
func (l *Link) ErrorFlags() spw.ErrorFlags {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.errFlags
}

// RecoveryReport returns the faults that started the last recovery.
func (l *Link) RecoveryReport() spw.ErrorFlags {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.rec.Report()
}

// TxCredit returns the number of normal characters the remote end accepts.
func (l *Link) TxCredit() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.fc.TxCredit()
}

// RxCredit returns the number of normal characters granted to the remote end.
func (l *Link) RxCredit() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.fc.RxCredit()
}

// RxTokens returns the number of FCTs the link may still send.
func (l *Link) RxTokens() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.rxTokens()
}

// Ticks returns the number of ticks processed.
func (l *Link) Ticks() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.ticks
}

// Lines returns the line pair driven on the last tick.
func (l *Link) Lines() ds.BitPair {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.lines
}
