package ds

import (
	"testing"

	"github.com/arloliu/go-spw/spw"
)

// serialize returns the bits of chars in transmission order, with a fresh
// parity chain. Timecodes are preceded by an escape.
func serialize(t *testing.T, chars ...spw.Character) []bool {
	t.Helper()

	var reg OutputRegister
	var out []bool
	load := func(c spw.Character) {
		reg.Load(c)
		for {
			bit, last := reg.Next()
			out = append(out, bit)
			if last {
				break
			}
		}
	}
	for _, c := range chars {
		if c.Kind == spw.KindTimecode {
			load(spw.ESC)
		}
		load(c)
	}

	return out
}

// lineSamples encodes bits and repeats every pair ticksPerBit times, after
// one idle sample that primes a decoder.
func lineSamples(t *testing.T, bits []bool, ticksPerBit int) []BitPair {
	t.Helper()

	var enc Encoder
	samples := []BitPair{enc.Lines()}
	for _, b := range bits {
		p := enc.Encode(b)
		for i := 0; i < ticksPerBit; i++ {
			samples = append(samples, p)
		}
	}

	return samples
}

// decodeBits feeds samples to a fresh decoder and returns the latched bits.
func decodeBits(t *testing.T, samples []BitPair) []bool {
	t.Helper()

	var dec Decoder
	var out []bool
	for _, p := range samples {
		s := dec.Decode(p)
		if s.Violation {
			t.Fatalf("unexpected line violation at %v", p)
		}
		if s.Clock {
			out = append(out, s.Bit)
		}
	}

	return out
}
