package ds

// Sample is the result of decoding one tick of the line pair.
type Sample struct {
	// Bit is the value of the most recently latched bit.
	Bit bool
	// Clock is set when a new bit was latched this tick.
	Clock bool
	// Violation is set when both lines changed since the previous tick.
	Violation bool
}

// Decoder recovers bits from a sampled line pair.
//
// A bit is latched into the even latch when the lines are equal and into the
// odd latch when they differ, so a skewed change of the two lines cannot
// produce a spurious bit. Bits are only reported after the first rising edge
// of the recovered clock following a reset.
type Decoder struct {
	prev   BitPair
	even   bool
	odd    bool
	primed bool
	armed  bool
}

// Reset discards the latches. The next sample only primes the decoder.
func (d *Decoder) Reset() {
	*d = Decoder{}
}

// Armed reports whether the first rising clock edge has been seen.
func (d *Decoder) Armed() bool {
	return d.armed
}

// Decode processes the line pair sampled on one tick.
func (d *Decoder) Decode(p BitPair) Sample {
	if !d.primed {
		d.primed = true
		d.prev = p
		return Sample{}
	}

	var s Sample
	dChanged := p.D != d.prev.D
	sChanged := p.S != d.prev.S
	if dChanged && sChanged {
		s.Violation = true
	}

	clk := p.Clock()
	if p.D == p.S {
		d.even = p.D
	} else {
		d.odd = p.D
	}

	edge := clk != d.prev.Clock()
	if edge && clk {
		d.armed = true
	}

	if clk {
		s.Bit = d.odd
	} else {
		s.Bit = d.even
	}
	s.Clock = edge && d.armed && !s.Violation
	d.prev = p

	return s
}
