package negotiation

// MaxInterest is the upper bound of the interest track.
const MaxInterest = 5

// Counters are the two bounded tracks of a negotiation.
type Counters struct {
	Interest    int `json:"interest"`
	Patience    int `json:"patience"`
	PatienceCap int `json:"patience_cap"`
}

// Apply returns the counters after adding the deltas, saturating at the
// bounds, and whether patience has run out.
func (c Counters) Apply(interestDelta, patienceDelta int) (Counters, bool) {
	c.Interest = clamp(c.Interest+interestDelta, 0, MaxInterest)
	c.Patience = clamp(c.Patience+patienceDelta, 0, c.PatienceCap)
	return c, c.Patience == 0
}

// PatienceExhausted reports whether the NPC has run out of patience.
func (c Counters) PatienceExhausted() bool {
	return c.Patience == 0
}

func (c Counters) validate(op string) error {
	if c.PatienceCap < 1 {
		return validationError(op, "patience cap must be at least 1, got %d", c.PatienceCap)
	}
	if c.Interest < 0 || c.Interest > MaxInterest {
		return validationError(op, "interest %d outside 0..%d", c.Interest, MaxInterest)
	}
	if c.Patience < 0 || c.Patience > c.PatienceCap {
		return validationError(op, "patience %d outside 0..%d", c.Patience, c.PatienceCap)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
