package xcvr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-spw/ds"
	"github.com/arloliu/go-spw/spw"
)

// readyTransmitter returns an enabled transmitter past its reset hold.
func readyTransmitter(t *testing.T, divider int) *Transmitter {
	t.Helper()

	tx := NewTransmitter(divider)
	tx.SetEnabled(true)
	for i := 0; i < ds.ResetHoldBits*divider; i++ {
		tx.Step(TxRequest{})
	}
	require.True(t, tx.Ready())

	return tx
}

func TestTransmitter_Priority(t *testing.T) {
	all := TxRequest{
		Data: true, DataByte: 1,
		FCT:     true,
		Control: true, ControlChar: spw.EOP,
		Timecode: true, TimecodeByte: 3,
	}

	tests := []struct {
		name string
		req  func(TxRequest) TxRequest
		want Accepted
	}{
		{"Data", func(r TxRequest) TxRequest { return r }, AcceptData},
		{"FCT", func(r TxRequest) TxRequest { r.Data = false; return r }, AcceptFCT},
		{"Control", func(r TxRequest) TxRequest { r.Data, r.FCT = false, false; return r }, AcceptControl},
		{"Timecode", func(r TxRequest) TxRequest { r.Data, r.FCT, r.Control = false, false, false; return r }, AcceptTimecode},
		{"Null", func(TxRequest) TxRequest { return TxRequest{} }, AcceptNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := readyTransmitter(t, 1)
			res := tx.Step(tt.req(all))
			require.Equal(t, tt.want, res.Accepted)
			require.False(t, tx.Ready())
		})
	}
}

func TestTransmitter_IgnoresRequestsWhileBusy(t *testing.T) {
	require := require.New(t)

	tx := readyTransmitter(t, 1)
	require.Equal(AcceptFCT, tx.Step(TxRequest{FCT: true}).Accepted)

	for i := 0; i < 3; i++ {
		res := tx.Step(dataReq(0xff))
		require.Equal(AcceptNone, res.Accepted, "bit %d", i+1)
		if i == 2 {
			require.Equal(TxSentFCT, res.Event)
		}
	}
	require.True(tx.Ready())
	require.Equal(AcceptData, tx.Step(dataReq(0xff)).Accepted)
}

func TestTransmitter_SentEvents(t *testing.T) {
	tests := []struct {
		name  string
		req   TxRequest
		bits  int
		event TxEvent
	}{
		{"Null", TxRequest{}, 8, TxSentNull},
		{"FCT", TxRequest{FCT: true}, 4, TxSentFCT},
		{"EOP", controlReq(spw.EOP), 4, TxSentNChar},
		{"ESC", controlReq(spw.ESC), 4, TxSentEsc},
		{"Data", dataReq(0x81), 10, TxSentNChar},
		{"Timecode", TxRequest{Timecode: true, TimecodeByte: 9}, 14, TxSentTimecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			tx := readyTransmitter(t, 1)
			req := tt.req
			for i := 1; i < tt.bits; i++ {
				require.Equal(TxNone, tx.Step(req).Event, "bit %d", i)
				req = TxRequest{}
			}
			require.Equal(tt.event, tx.Step(req).Event)
			require.True(tx.Ready())
		})
	}
}

func TestTransmitter_Divider(t *testing.T) {
	require := require.New(t)

	tx := readyTransmitter(t, 3)
	prev := tx.Lines()
	changes := 0
	for i := 0; i < 30; i++ {
		res := tx.Step(TxRequest{})
		if res.Lines != prev {
			changes++
		}
		prev = res.Lines
	}
	require.Equal(10, changes)

	tx.SetDivider(0)
	require.Equal(1, tx.Divider())
}

func TestTransmitter_DisableResetsLines(t *testing.T) {
	require := require.New(t)

	tx := readyTransmitter(t, 1)
	for i := 0; i < 5; i++ {
		tx.Step(dataReq(0xff))
	}
	tx.SetEnabled(false)
	require.False(tx.Ready())

	for i := 0; i < 2; i++ {
		tx.Step(TxRequest{})
	}
	require.Equal(ds.BitPair{}, tx.Lines())

	res := tx.Step(dataReq(1))
	require.Equal(AcceptNone, res.Accepted)
	require.Equal(ds.BitPair{}, res.Lines)
}
