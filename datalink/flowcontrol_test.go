package datalink

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-spw/spw"
)

func TestFlowControl_RxTokens(t *testing.T) {
	require := require.New(t)

	f := NewFlowControl(spw.MaxTokens)
	require.Equal(56, f.FifoDepth())
	require.Equal(7, f.RxTokens(0))
	require.Equal(6, f.RxTokens(1))
	require.Equal(0, f.RxTokens(56))

	f.rxCredit = 8
	require.Equal(5, f.RxTokens(3))
	f.rxCredit = 56
	require.Equal(0, f.RxTokens(0))

	small := NewFlowControl(3)
	require.Equal(24, small.FifoDepth())
	require.Equal(3, small.RxTokens(0))
	small.rxCredit = 16
	require.Equal(1, small.RxTokens(0))
	require.Equal(0, small.RxTokens(1))
}

func TestFlowControl_InactiveOutsideConnectingAndRun(t *testing.T) {
	require := require.New(t)

	f := NewFlowControl(spw.MaxTokens)
	for _, s := range []spw.LinkState{spw.ErrorResetState, spw.ErrorWaitState, spw.ReadyState, spw.StartedState} {
		f = f.Next(FlowInput{State: s, GotFCT: true, SentFCT: true})
		require.Zero(f.TxCredit(), s.String())
		require.Zero(f.RxCredit(), s.String())
		require.False(f.CreditError())
		require.False(f.SendFCT(s, 0, true))
	}
	require.True(f.SendFCT(spw.ConnectingState, 0, true))
	require.False(f.SendFCT(spw.ConnectingState, 0, false))
	require.False(f.SendFCT(spw.RunState, 56, true))
}

func TestFlowControl_ConnectingToRun(t *testing.T) {
	require := require.New(t)

	c := newController()
	c.toState(t, spw.ConnectingState)
	require.Zero(c.fc.TxCredit())
	require.Zero(c.fc.RxCredit())

	c.tick(tickEvents{gotFCT: true, sentFCT: true})

	require.Equal(spw.RunState, c.fsm.State())
	require.Equal(8, c.fc.TxCredit())
	require.Equal(8, c.fc.RxCredit())
}

func TestFlowControl_CreditExhaustion(t *testing.T) {
	require := require.New(t)

	c := newController()
	c.toState(t, spw.RunState)
	require.Equal(8, c.fc.TxCredit())

	for i := 0; i < 8; i++ {
		c.tick(tickEvents{sentNChar: true})
		require.Equal(7-i, c.fc.TxCredit())
	}
	require.Equal(spw.RunState, c.fsm.State())

	// violating tick
	c.tick(tickEvents{sentNChar: true})
	require.True(c.fc.CreditError())
	require.Equal(spw.RunState, c.fsm.State())

	c.tick(tickEvents{})
	require.Equal(spw.ErrorResetState, c.fsm.State())
	require.False(c.fc.CreditError())
	require.Zero(c.fc.TxCredit())
	require.Zero(c.fc.RxCredit())
	require.Equal(spw.RecoveryDiscardTx, c.rec.State())
	require.Equal(spw.ErrCredit, c.rec.Report())
}

func TestFlowControl_NetCredit(t *testing.T) {
	require := require.New(t)

	f := NewFlowControl(spw.MaxTokens)
	f.txCredit, f.rxCredit = 3, 3

	f = f.Next(FlowInput{State: spw.RunState, GotFCT: true, SentNChar: true, SentFCT: true, GotNChar: true})
	require.False(f.CreditError())
	require.Equal(10, f.TxCredit())
	require.Equal(10, f.RxCredit())
}

func TestFlowControl_Violations(t *testing.T) {
	tests := []struct {
		name    string
		tx, rx  int
		in      FlowInput
		wantErr bool
		wantTx  int
		wantRx  int
	}{
		{name: "TxOverflow", tx: 49, in: FlowInput{GotFCT: true}, wantErr: true, wantTx: 49},
		{name: "TxFull", tx: 48, in: FlowInput{GotFCT: true}, wantTx: 56},
		{name: "TxOverflowWithSend", tx: 49, in: FlowInput{GotFCT: true, SentNChar: true}, wantTx: 56},
		{name: "TxUnderflow", in: FlowInput{SentNChar: true}, wantErr: true},
		{name: "RxUnderflow", in: FlowInput{GotNChar: true}, wantErr: true},
		{name: "NoToken", rx: 56, in: FlowInput{SentFCT: true}, wantErr: true, wantRx: 56},
		{name: "FifoFull", rx: 0, in: FlowInput{SentFCT: true, RxFifoLen: 50}, wantErr: true},
		{name: "LastToken", rx: 40, in: FlowInput{SentFCT: true, RxFifoLen: 8}, wantRx: 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			f := NewFlowControl(spw.MaxTokens)
			f.txCredit, f.rxCredit = tt.tx, tt.rx
			in := tt.in
			in.State = spw.RunState

			n := f.Next(in)
			require.Equal(tt.wantErr, n.CreditError())
			require.Equal(tt.wantTx, n.TxCredit())
			require.Equal(tt.wantRx, n.RxCredit())

			if tt.wantErr {
				n = n.Next(FlowInput{State: spw.RunState})
				require.False(n.CreditError())
				require.Zero(n.TxCredit())
				require.Zero(n.RxCredit())
			}
		})
	}
}

func TestFlowControl_ConnectingViolationIgnored(t *testing.T) {
	tests := []struct {
		name   string
		tx, rx int
		in     FlowInput
	}{
		{name: "TxOverflow", tx: 56, in: FlowInput{GotFCT: true}},
		{name: "TxUnderflow", in: FlowInput{SentNChar: true}},
		{name: "NoToken", rx: 8, in: FlowInput{SentFCT: true, RxFifoLen: 56}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			f := NewFlowControl(spw.MaxTokens)
			f.txCredit, f.rxCredit = tt.tx, tt.rx
			in := tt.in
			in.State = spw.ConnectingState

			n := f.Next(in)
			require.False(n.CreditError())
			require.True(n.Active(spw.ConnectingState))
			require.Equal(tt.tx, n.TxCredit())
			require.Equal(tt.rx, n.RxCredit())
		})
	}
}

func TestFlowControl_ConnectingOverflowKeepsLink(t *testing.T) {
	require := require.New(t)

	c := newController()
	c.toState(t, spw.ConnectingState)
	c.fc.txCredit = spw.MaxCredit

	c.tick(tickEvents{gotFCT: true})
	require.Equal(spw.ConnectingState, c.fsm.State())
	require.False(c.fc.CreditError())
	require.Equal(spw.MaxCredit, c.fc.TxCredit())
	require.Equal(spw.RecoveryNormal, c.rec.State())
}

func TestFlowControl_CreditBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	f := NewFlowControl(spw.MaxTokens)

	for i := 0; i < 200000; i++ {
		state := spw.RunState
		if rnd.Intn(50) == 0 {
			state = spw.LinkState(rnd.Intn(int(spw.RunState) + 1))
		}
		in := FlowInput{
			State:     state,
			GotFCT:    rnd.Intn(6) == 0,
			SentFCT:   rnd.Intn(6) == 0,
			GotNChar:  rnd.Intn(2) == 0,
			SentNChar: rnd.Intn(2) == 0,
			RxFifoLen: rnd.Intn(57),
		}
		n := f.Next(in)

		if n.TxCredit() < 0 || n.TxCredit() > spw.MaxCredit {
			t.Fatalf("tick %d: tx credit %d out of range", i, n.TxCredit())
		}
		if n.RxCredit() < 0 || n.RxCredit() > spw.MaxCredit {
			t.Fatalf("tick %d: rx credit %d out of range", i, n.RxCredit())
		}
		if state.IsRun() && f.Active(state) && in.GotFCT && !in.SentNChar && f.TxCredit()+spw.CharsPerFCT > spw.MaxCredit && !n.CreditError() {
			t.Fatalf("tick %d: tx overflow without credit error", i)
		}
		f = n
	}
}
