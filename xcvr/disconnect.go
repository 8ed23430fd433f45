package xcvr

// DisconnectDetector raises a disconnect when no bit arrives for a number of
// ticks. It only starts watching after the first bit.
type DisconnectDetector struct {
	limit   int
	idle    int
	armed   bool
	tripped bool
}

// NewDisconnectDetector creates a detector tripping after limit silent ticks.
func NewDisconnectDetector(limit int) DisconnectDetector {
	return DisconnectDetector{limit: limit}
}

// Step records one tick. bit is set when a bit was received on the tick.
// It returns true from the tick the detector trips until Reset.
func (d *DisconnectDetector) Step(bit bool) bool {
	if d.tripped {
		return true
	}
	if bit {
		d.armed = true
		d.idle = 0
		return false
	}
	if !d.armed {
		return false
	}

	d.idle++
	if d.idle >= d.limit {
		d.tripped = true
	}

	return d.tripped
}

// Reset disarms the detector, keeping its limit.
func (d *DisconnectDetector) Reset() {
	d.idle = 0
	d.armed = false
	d.tripped = false
}

// SetLimit changes the number of silent ticks tolerated.
func (d *DisconnectDetector) SetLimit(limit int) {
	d.limit = limit
}
