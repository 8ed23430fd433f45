// Package link wires the codec, the transceiver and the link controller
// into one cycle-driven link endpoint.
//
// A Link is advanced by calling Tick once per clock tick with the line pair
// sampled from the remote end; it returns the line pair to drive. Every tick
// runs in two phases: all components are evaluated against the state
// committed by the previous tick, then all next states are committed at
// once.
//
// Characters are exchanged with the upper layer through two bounded queues:
// Send and SendPacket feed the outgoing queue, Receive drains the inbound
// one. The inbound queue holds 8 characters per FCT token.
package link

import (
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/go-spw/datalink"
	"github.com/arloliu/go-spw/ds"
	"github.com/arloliu/go-spw/internal/queue"
	"github.com/arloliu/go-spw/logger"
	"github.com/arloliu/go-spw/spw"
	"github.com/arloliu/go-spw/xcvr"
)

var (
	// ErrTxQueueFull is returned when the outgoing queue has no room for the characters.
	ErrTxQueueFull = errors.New("link: tx queue full")
	// ErrNotNChar is returned when a character other than data, EOP or EEP is sent.
	ErrNotNChar = errors.New("link: only data, EOP and EEP characters can be sent")
	// ErrTimecodePending is returned when a timecode is sent before the previous one left.
	ErrTimecodePending = errors.New("link: timecode already pending")
	// ErrNilConfig is returned by New when no configuration is given.
	ErrNilConfig = errors.New("link: config must not be nil")
)

// StateChangeHandler is invoked when the state of a link changes.
//
// Note: the handler is invoked synchronously from Tick, after the tick is
// committed. Take care with long-running implementations.
type StateChangeHandler func(l *Link, prev spw.LinkState, next spw.LinkState)

// TimecodeHandler is invoked from Tick for every timecode received in Run.
type TimecodeHandler func(l *Link, tc spw.Character)

// Link is one endpoint of a point-to-point link.
//
// Tick must be called from one goroutine. The queue, control and telemetry
// methods may be called from any goroutine.
type Link struct {
	mu      sync.Mutex
	cfg     *Config
	logger  logger.Logger
	metrics Metrics

	rx  *xcvr.Receiver
	tx  *xcvr.Transmitter
	fsm datalink.FSM
	fc  datalink.FlowControl
	rec datalink.Recovery

	txQueue *queue.Ring[spw.Character]
	rxQueue *queue.Ring[spw.Character]

	linkStart    bool
	autostart    bool
	linkDisabled bool
	userRate     bool

	timecodePending bool
	timecodeOut     uint8
	lastTimecode    spw.Character
	hasTimecode     bool

	errFlags   spw.ErrorFlags
	lastRxErrs spw.ErrorFlags
	ticks      uint64
	lines      ds.BitPair

	handlerMu        sync.Mutex
	stateHandlers    []StateChangeHandler
	timecodeHandlers []TimecodeHandler
}

// notice carries what a tick produced for the handlers.
type notice struct {
	prev, next spw.LinkState
	timecode   spw.Character
	gotTC      bool
}

// New creates a link in ErrorReset.
func New(cfg *Config) (*Link, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	l := &Link{
		cfg:          cfg,
		logger:       cfg.GetLogger().With("link", cfg.Name()),
		rx:           xcvr.NewReceiver(cfg.DisconnectTicks()),
		tx:           xcvr.NewTransmitter(cfg.ResetDivider()),
		fsm:          datalink.NewFSM(cfg.HalfDelayTicks(), cfg.FullDelayTicks()),
		fc:           datalink.NewFlowControl(cfg.FifoTokens()),
		txQueue:      queue.NewRing[spw.Character](cfg.TxQueueSize()),
		rxQueue:      queue.NewRing[spw.Character](cfg.RxQueueSize()),
		linkStart:    cfg.LinkStart(),
		autostart:    cfg.Autostart(),
		linkDisabled: cfg.LinkDisabled(),
		userRate:     cfg.UserRate(),
	}

	l.logger.Debug("link: created",
		"half_ticks", cfg.HalfDelayTicks(),
		"full_ticks", cfg.FullDelayTicks(),
		"disconnect_ticks", cfg.DisconnectTicks(),
		"fifo_depth", cfg.RxQueueSize(),
	)

	return l, nil
}

// NewWithOptions creates a configuration from opts and a link using it.
func NewWithOptions(opts ...Option) (*Link, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Name returns the configured name of the link.
func (l *Link) Name() string { return l.cfg.Name() }

// Config returns the link configuration.
func (l *Link) Config() *Config { return l.cfg }

// GetLogger returns the logger of the link.
func (l *Link) GetLogger() logger.Logger { return l.logger }

// Metrics returns the counters of the link.
func (l *Link) Metrics() *Metrics { return &l.metrics }

// AddStateChangeHandler adds handlers invoked on every state change.
func (l *Link) AddStateChangeHandler(handlers ...StateChangeHandler) {
	l.handlerMu.Lock()
	defer l.handlerMu.Unlock()
	l.stateHandlers = append(l.stateHandlers, handlers...)
}

// AddTimecodeHandler adds handlers invoked for every received timecode.
func (l *Link) AddTimecodeHandler(handlers ...TimecodeHandler) {
	l.handlerMu.Lock()
	defer l.handlerMu.Unlock()
	l.timecodeHandlers = append(l.timecodeHandlers, handlers...)
}

// Tick advances the link by one clock tick. rx is the line pair sampled
// from the remote end; the returned pair is the one to drive.
func (l *Link) Tick(rx ds.BitPair) ds.BitPair {
	l.mu.Lock()
	out, n := l.tick(rx)
	l.mu.Unlock()

	if n.prev != n.next || n.gotTC {
		l.notify(n)
	}

	return out
}

func (l *Link) tick(in ds.BitPair) (ds.BitPair, notice) {
	l.ticks++
	l.metrics.TickCount.Add(1)

	// evaluate against committed state
	state := l.fsm.State()
	n := notice{prev: state, next: state}

	l.rx.SetEnabled(state.ReceiverEnabled())
	ev := l.rx.Step(in)
	rxErrs := l.rx.Errors()

	l.tx.SetEnabled(state.TransmitterEnabled())
	l.tx.SetDivider(l.divider(state))
	res := l.tx.Step(l.txRequest(state))
	switch res.Accepted {
	case xcvr.AcceptData, xcvr.AcceptControl:
		l.txQueue.Dequeue()
	case xcvr.AcceptTimecode:
		l.timecodePending = false
	}

	faults := rxErrs
	if l.fc.CreditError() {
		faults |= spw.ErrCredit
	}
	if l.linkDisabled && !state.IsErrorReset() {
		faults |= spw.ErrLinkDisabled
	}

	rxLen := l.rxQueue.Length()
	nextFSM := l.fsm.Next(datalink.FSMInput{
		LinkDisabled:   l.linkDisabled,
		LinkStart:      l.linkStart,
		Autostart:      l.autostart,
		RecoveryNormal: l.rec.State().IsNormal(),
		RxErrors:       rxErrs,
		CreditError:    l.fc.CreditError(),
		GotNull:        ev.Kind == xcvr.RxNull,
		GotFCT:         ev.Kind == xcvr.RxFCT,
		GotNChar:       ev.Kind == xcvr.RxNChar,
		GotTimecode:    ev.Kind == xcvr.RxTimecode,
		SentNull:       res.Event == xcvr.TxSentNull,
		SentFCT:        res.Event == xcvr.TxSentFCT,
	})
	nextFC := l.fc.Next(datalink.FlowInput{
		State:     state,
		GotFCT:    ev.Kind == xcvr.RxFCT,
		SentFCT:   res.Event == xcvr.TxSentFCT,
		GotNChar:  ev.Kind == xcvr.RxNChar,
		SentNChar: res.Event == xcvr.TxSentNChar,
		RxFifoLen: rxLen,
	})
	head, hasHead := l.txQueue.Peek()
	nextRec, act := l.rec.Next(datalink.RecoveryInput{
		State:     state,
		Faults:    faults,
		TxHead:    head,
		TxEmpty:   !hasHead,
		RxHasRoom: !l.rxQueue.IsFull(),
	})

	// queue side effects of this tick
	switch ev.Kind {
	case xcvr.RxNChar:
		if state.IsRun() && !nextFC.CreditError() && l.rxQueue.Enqueue(ev.Char) {
			l.metrics.NCharRecvCount.Add(1)
		} else {
			l.metrics.RxDropCount.Add(1)
		}
	case xcvr.RxTimecode:
		if state.IsRun() {
			l.lastTimecode, l.hasTimecode = ev.Char, true
			l.metrics.TimecodeRecvCount.Add(1)
			n.timecode, n.gotTC = ev.Char, true
		}
	case xcvr.RxFCT:
		l.metrics.FCTRecvCount.Add(1)
	case xcvr.RxNull:
		l.metrics.NullRecvCount.Add(1)
	}
	l.countSent(res.Event)

	if act.PopTx {
		l.txQueue.Dequeue()
		l.metrics.DiscardCount.Add(1)
	}
	if act.PushEEP && l.rxQueue.Enqueue(spw.EEP) {
		l.metrics.EEPInjectCount.Add(1)
	}

	// fault bookkeeping
	if newRx := rxErrs &^ l.lastRxErrs; newRx != 0 {
		l.metrics.incErrors(newRx)
	}
	l.lastRxErrs = rxErrs
	if nextFC.CreditError() && !l.fc.CreditError() {
		l.metrics.incErrors(spw.ErrCredit)
		faults |= spw.ErrCredit
	}
	l.errFlags |= faults

	// commit
	if nextRec.State() != l.rec.State() {
		l.logRecovery(l.rec.State(), nextRec)
	}
	l.fsm, l.fc, l.rec = nextFSM, nextFC, nextRec
	l.lines = res.Lines

	if next := l.fsm.State(); next != state {
		n.next = next
		l.onStateChange(state, next, faults)
	}

	return res.Lines, n
}

func (l *Link) divider(state spw.LinkState) int {
	if l.userRate && state.IsRun() {
		return l.cfg.UserDivider()
	}
	return l.cfg.ResetDivider()
}

// txRequest builds this tick's transmit requests from committed state.
func (l *Link) txRequest(state spw.LinkState) xcvr.TxRequest {
	txReady := l.tx.Ready()
	req := xcvr.TxRequest{FCT: l.fc.SendFCT(state, l.rxQueue.Length(), txReady)}

	if !state.IsRun() || !l.rec.State().IsNormal() {
		return req
	}

	if !req.FCT && txReady && l.fc.TxCredit() > 0 {
		if head, ok := l.txQueue.Peek(); ok {
			if head.Kind == spw.KindData {
				req.Data, req.DataByte = true, head.Value
			} else {
				req.Control, req.ControlChar = true, head
			}
		}
	}
	if l.timecodePending {
		req.Timecode, req.TimecodeByte = true, l.timecodeOut
	}

	return req
}

func (l *Link) countSent(ev xcvr.TxEvent) {
	switch ev {
	case xcvr.TxSentNChar:
		l.metrics.NCharSendCount.Add(1)
	case xcvr.TxSentFCT:
		l.metrics.FCTSendCount.Add(1)
	case xcvr.TxSentNull:
		l.metrics.NullSendCount.Add(1)
	case xcvr.TxSentTimecode:
		l.metrics.TimecodeSendCount.Add(1)
	}
}

func (l *Link) onStateChange(prev, next spw.LinkState, faults spw.ErrorFlags) {
	switch next {
	case spw.ErrorResetState:
		l.metrics.LinkResetCount.Add(1)
		if prev.IsRun() {
			l.logger.Warn("link: left run", "prev", prev, "next", next, "flags", faults)
		} else {
			l.logger.Debug("link: state changed", "prev", prev, "next", next, "flags", faults)
		}
	case spw.RunState:
		l.metrics.RunEntryCount.Add(1)
		l.logger.Info("link: running", "prev", prev, "tx_credit", l.fc.TxCredit(), "rx_credit", l.fc.RxCredit())
	default:
		l.logger.Debug("link: state changed", "prev", prev, "next", next)
	}
}

func (l *Link) logRecovery(prev spw.RecoveryState, next datalink.Recovery) {
	if prev.IsNormal() {
		l.metrics.RecoveryCount.Add(1)
		l.logger.Warn("link: recovery started", "report", next.Report())
		return
	}
	l.logger.Debug("link: recovery step", "prev", prev, "next", next.State())
}

func (l *Link) notify(n notice) {
	l.handlerMu.Lock()
	stateHandlers := l.stateHandlers
	tcHandlers := l.timecodeHandlers
	l.handlerMu.Unlock()

	if n.prev != n.next {
		for _, h := range stateHandlers {
			h(l, n.prev, n.next)
		}
	}
	if n.gotTC {
		for _, h := range tcHandlers {
			h(l, n.timecode)
		}
	}
}

// Send appends one normal character to the outgoing queue.
func (l *Link) Send(c spw.Character) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.IsNChar() {
		return fmt.Errorf("%w: %s", ErrNotNChar, c)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.txQueue.Enqueue(c) {
		return ErrTxQueueFull
	}

	return nil
}

// SendPacket appends payload followed by an EOP. Either the whole packet is
// queued or nothing is.
func (l *Link) SendPacket(payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.txQueue.Free() < len(payload)+1 {
		return fmt.Errorf("%w: need %d, free %d", ErrTxQueueFull, len(payload)+1, l.txQueue.Free())
	}
	for _, b := range payload {
		l.txQueue.Enqueue(spw.Data(b))
	}
	l.txQueue.Enqueue(spw.EOP)

	return nil
}

// Receive removes the next character from the inbound queue.
func (l *Link) Receive() (spw.Character, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.rxQueue.Dequeue()
}

// SendTimecode requests a timecode to be sent once the link is in Run.
func (l *Link) SendTimecode(tc uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.timecodePending {
		return ErrTimecodePending
	}
	l.timecodePending, l.timecodeOut = true, tc

	return nil
}

// LastTimecode returns the last timecode received in Run.
func (l *Link) LastTimecode() (spw.Character, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.lastTimecode, l.hasTimecode
}

func (l *Link) TxQueueLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.txQueue.Length()
}

func (l *Link) RxQueueLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.rxQueue.Length()
}

// SetLinkStart sets the start request consulted in Ready.
func (l *Link) SetLinkStart(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.linkStart = enabled
}

// SetAutostart lets the link start on a received NULL while in Ready.
func (l *Link) SetAutostart(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.autostart = enabled
}

// SetLinkDisabled disables or enables the link. A disabled link is held in
// ErrorReset.
func (l *Link) SetLinkDisabled(disabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.linkDisabled = disabled
}

// SetUserRate selects whether Run uses the user transmit rate.
func (l *Link) SetUserRate(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.userRate = enabled
}

// SoftReset returns the link to its initial state: ErrorReset, zero
// credits, empty queues and cleared error flags.
func (l *Link) SoftReset() {
	l.mu.Lock()
	prev := l.fsm.State()
	l.rx.SetEnabled(false)
	l.tx.SetEnabled(false)
	l.fsm = datalink.NewFSM(l.cfg.HalfDelayTicks(), l.cfg.FullDelayTicks())
	l.fc = datalink.NewFlowControl(l.cfg.FifoTokens())
	l.rec = datalink.Recovery{}
	l.txQueue.Reset()
	l.rxQueue.Reset()
	l.timecodePending = false
	l.hasTimecode = false
	l.errFlags, l.lastRxErrs = 0, 0
	l.mu.Unlock()

	l.logger.Info("link: soft reset", "prev", prev)
	if prev != spw.ErrorResetState {
		l.metrics.LinkResetCount.Add(1)
		l.notify(notice{prev: prev, next: spw.ErrorResetState})
	}
}

// ClearErrorFlags clears the accumulated error flags and the recovery report.
func (l *Link) ClearErrorFlags() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.errFlags = 0
	l.rec = l.rec.ClearReport()
}
