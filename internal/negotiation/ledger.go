package negotiation

import (
	"strings"
	"time"
)

const (
	MinTier = 1
	MaxTier = 3
)

// Argument is one entry of the append-only ledger.
type Argument struct {
	ID             string          `json:"id"`
	Tier           int             `json:"tier"`
	Description    string          `json:"description"`
	MotivationType *MotivationType `json:"motivation_type,omitempty"`
	InterestChange int             `json:"interest_change"`
	PatienceChange int             `json:"patience_change"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ArgumentInput is a pre-resolved argument supplied by the table. The
// deltas are already decided; the engine only validates and applies them.
type ArgumentInput struct {
	Tier           int
	Description    string
	MotivationType *MotivationType
	InterestChange int
	PatienceChange int
}

// ArgumentResult reports the effect of an applied argument.
type ArgumentResult struct {
	Argument          Argument
	Counters          Counters
	PatienceExhausted bool
	Completed         bool
}

// EffectPolicy decides the deltas actually applied for an argument.
// motivationKnown is false when the argument references a concealed
// motivation or none at all.
type EffectPolicy func(in ArgumentInput, motivationKnown bool) (interestDelta, patienceDelta int)

// FullEffect applies the declared deltas unchanged.
func FullEffect(in ArgumentInput, _ bool) (int, int) {
	return in.InterestChange, in.PatienceChange
}

func (in ArgumentInput) validate(op string, traits *Traits) error {
	if in.Tier < MinTier || in.Tier > MaxTier {
		return validationError(op, "tier must be between %d and %d, got %d", MinTier, MaxTier, in.Tier)
	}
	if in.MotivationType != nil {
		mt := *in.MotivationType
		if !mt.Valid() {
			return validationError(op, "unknown motivation type %q", mt)
		}
		if _, ok := traits.Motivation(mt); !ok {
			return validationError(op, "npc has no %q motivation", mt)
		}
	}
	return nil
}

// Ledger is the ordered list of applied arguments.
type Ledger []Argument

// Replay folds the ledger over the starting counters. exhaustedAt is the
// index of the first argument that left patience at zero, or -1.
func (l Ledger) Replay(start Counters) (c Counters, exhaustedAt int) {
	c, exhaustedAt = start, -1
	for i, a := range l {
		var exhausted bool
		c, exhausted = c.Apply(a.InterestChange, a.PatienceChange)
		if exhausted && exhaustedAt < 0 {
			exhaustedAt = i
		}
	}
	return c, exhaustedAt
}

// MotivationUses counts ledger appeals per motivation type.
func (l Ledger) MotivationUses() map[MotivationType]int {
	uses := make(map[MotivationType]int)
	for _, a := range l {
		if a.MotivationType != nil {
			uses[*a.MotivationType]++
		}
	}
	return uses
}

func (l Ledger) validate(op string) error {
	seen := make(map[string]struct{}, len(l))
	for i, a := range l {
		if strings.TrimSpace(a.ID) == "" {
			return validationError(op, "argument %d has no id", i)
		}
		if _, dup := seen[a.ID]; dup {
			return validationError(op, "duplicate argument id %q", a.ID)
		}
		seen[a.ID] = struct{}{}
		if a.Tier < MinTier || a.Tier > MaxTier {
			return validationError(op, "argument %q has tier %d", a.ID, a.Tier)
		}
		if i > 0 && a.CreatedAt.Before(l[i-1].CreatedAt) {
			return validationError(op, "argument %q recorded out of order", a.ID)
		}
	}
	return nil
}

func cloneMotivationType(mt *MotivationType) *MotivationType {
	if mt == nil {
		return nil
	}
	v := *mt
	return &v
}
