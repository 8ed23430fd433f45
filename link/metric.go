package link

import (
	"sync/atomic"

	"github.com/arloliu/go-spw/spw"
)

// Metrics contains atomic counters of a link.
// They can be read from any goroutine while the link is ticking.
type Metrics struct {
	// TickCount indicates the number of ticks processed.
	TickCount atomic.Uint64

	// NCharSendCount indicates the number of data, EOP and EEP characters sent.
	NCharSendCount atomic.Uint64
	// NCharRecvCount indicates the number of data, EOP and EEP characters received in Run.
	NCharRecvCount atomic.Uint64
	FCTSendCount   atomic.Uint64
	FCTRecvCount   atomic.Uint64
	NullSendCount  atomic.Uint64
	NullRecvCount  atomic.Uint64

	TimecodeSendCount atomic.Uint64
	TimecodeRecvCount atomic.Uint64

	ParityErrCount     atomic.Uint64
	ReadErrCount       atomic.Uint64
	EscapeErrCount     atomic.Uint64
	DisconnectErrCount atomic.Uint64
	CreditErrCount     atomic.Uint64

	// LinkResetCount indicates the number of transitions into ErrorReset.
	LinkResetCount atomic.Uint64
	// RunEntryCount indicates the number of transitions into Run.
	RunEntryCount atomic.Uint64
	// RecoveryCount indicates the number of recovery procedures started.
	RecoveryCount atomic.Uint64
	// DiscardCount indicates the number of outgoing characters dropped by recovery.
	DiscardCount atomic.Uint64
	// EEPInjectCount indicates the number of EEPs appended to the inbound queue by recovery.
	EEPInjectCount atomic.Uint64
	// RxDropCount indicates the number of received characters dropped for lack of credit.
	RxDropCount atomic.Uint64
}

func (m *Metrics) incErrors(flags spw.ErrorFlags) {
	if flags.Has(spw.ErrParity) {
		m.ParityErrCount.Add(1)
	}
	if flags.Has(spw.ErrRead) {
		m.ReadErrCount.Add(1)
	}
	if flags.Has(spw.ErrEscape) {
		m.EscapeErrCount.Add(1)
	}
	if flags.Has(spw.ErrDisconnect) {
		m.DisconnectErrCount.Add(1)
	}
	if flags.Has(spw.ErrCredit) {
		m.CreditErrCount.Add(1)
	}
}

// ErrorCount returns the total number of faults detected.
func (m *Metrics) ErrorCount() uint64 {
	return m.ParityErrCount.Load() + m.ReadErrCount.Load() + m.EscapeErrCount.Load() +
		m.DisconnectErrCount.Load() + m.CreditErrCount.Load()
}
