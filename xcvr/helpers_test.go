package xcvr

import (
	"testing"

	"github.com/arloliu/go-spw/ds"
	"github.com/arloliu/go-spw/spw"
)

// loopback drives a receiver directly from a transmitter.
type loopback struct {
	t      *testing.T
	tx     *Transmitter
	rx     *Receiver
	events []RxEvent
	sent   []TxEvent
}

func newLoopback(t *testing.T) *loopback {
	t.Helper()

	tx := NewTransmitter(2)
	tx.SetEnabled(true)
	rx := NewReceiver(64)
	rx.SetEnabled(true)

	return &loopback{t: t, tx: tx, rx: rx}
}

func (l *loopback) tick(req TxRequest) TxResult {
	res := l.tx.Step(req)
	if ev := l.rx.Step(res.Lines); ev.Kind != RxNone {
		l.events = append(l.events, ev)
	}
	if res.Event != TxNone {
		l.sent = append(l.sent, res.Event)
	}

	return res
}

func (l *loopback) idle(ticks int) {
	for i := 0; i < ticks; i++ {
		l.tick(TxRequest{})
	}
}

// send ticks until each request has been accepted.
func (l *loopback) send(reqs ...TxRequest) {
	l.t.Helper()

	for _, req := range reqs {
		accepted := false
		for i := 0; i < 100 && !accepted; i++ {
			res := l.tick(req)
			accepted = res.Accepted != AcceptNone && res.Accepted != AcceptNull
		}
		if !accepted {
			l.t.Fatalf("request %+v not accepted", req)
		}
	}
}

func (l *loopback) received(kinds ...RxEventKind) []RxEvent {
	var out []RxEvent
	for _, ev := range l.events {
		for _, k := range kinds {
			if ev.Kind == k {
				out = append(out, ev)
				break
			}
		}
	}

	return out
}

func dataReq(b uint8) TxRequest {
	return TxRequest{Data: true, DataByte: b}
}

func controlReq(c spw.Character) TxRequest {
	return TxRequest{Control: true, ControlChar: c}
}

// charBits serializes chars with a fresh parity chain.
func charBits(chars ...spw.Character) []bool {
	var reg ds.OutputRegister
	var out []bool
	for _, c := range chars {
		reg.Load(c)
		for {
			bit, last := reg.Next()
			out = append(out, bit)
			if last {
				break
			}
		}
	}

	return out
}

// lines encodes bits into samples, two ticks per bit, after one idle sample.
func lines(bits []bool) []ds.BitPair {
	var enc ds.Encoder
	out := []ds.BitPair{enc.Lines()}
	for _, b := range bits {
		p := enc.Encode(b)
		out = append(out, p, p)
	}

	return out
}

func feed(rx *Receiver, samples []ds.BitPair) []RxEvent {
	var out []RxEvent
	for _, p := range samples {
		if ev := rx.Step(p); ev.Kind != RxNone {
			out = append(out, ev)
		}
	}

	return out
}
