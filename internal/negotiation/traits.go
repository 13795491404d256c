package negotiation

import "strings"

// Motivation is something the NPC cares about. Arguments that appeal to a
// known motivation count towards TimesUsed.
type Motivation struct {
	Type        MotivationType `json:"type"`
	Description string         `json:"description,omitempty"`
	IsKnown     bool           `json:"is_known"`
	TimesUsed   int            `json:"times_used"`
}

// Used reports whether any argument has appealed to this motivation while known.
func (m Motivation) Used() bool {
	return m.TimesUsed > 0
}

// Pitfall is a topic the NPC reacts badly to.
type Pitfall struct {
	Description string `json:"description"`
	IsKnown     bool   `json:"is_known"`
}

// Traits holds the NPC's motivations and pitfalls in authoring order.
// Concealment is monotonic: a revealed trait never becomes hidden again.
type Traits struct {
	Motivations []Motivation `json:"motivations"`
	Pitfalls    []Pitfall    `json:"pitfalls"`
}

func (t *Traits) motivationIndex(mt MotivationType) int {
	for i := range t.Motivations {
		if t.Motivations[i].Type == mt {
			return i
		}
	}
	return -1
}

// Motivation returns the motivation of the given type.
func (t *Traits) Motivation(mt MotivationType) (Motivation, bool) {
	i := t.motivationIndex(mt)
	if i < 0 {
		return Motivation{}, false
	}
	return t.Motivations[i], true
}

// RevealMotivation marks a motivation known. Revealing a known motivation is a no-op.
func (t *Traits) RevealMotivation(mt MotivationType) error {
	i := t.motivationIndex(mt)
	if i < 0 {
		return notFoundError("reveal motivation", "npc has no %q motivation", mt)
	}
	t.Motivations[i].IsKnown = true
	return nil
}

// RevealPitfall marks the pitfall at index known.
func (t *Traits) RevealPitfall(index int) error {
	if index < 0 || index >= len(t.Pitfalls) {
		return notFoundError("reveal pitfall", "no pitfall at index %d", index)
	}
	t.Pitfalls[index].IsKnown = true
	return nil
}

// PitfallIndex finds a pitfall by its description, ignoring case and
// surrounding whitespace.
func (t *Traits) PitfallIndex(description string) int {
	want := strings.TrimSpace(description)
	for i := range t.Pitfalls {
		if strings.EqualFold(strings.TrimSpace(t.Pitfalls[i].Description), want) {
			return i
		}
	}
	return -1
}

// KnownMotivations returns revealed motivations in authoring order.
func (t *Traits) KnownMotivations() []Motivation {
	return filterMotivations(t.Motivations, true)
}

// ConcealedMotivations returns hidden motivations in authoring order.
func (t *Traits) ConcealedMotivations() []Motivation {
	return filterMotivations(t.Motivations, false)
}

// KnownPitfalls returns revealed pitfalls in authoring order.
func (t *Traits) KnownPitfalls() []Pitfall {
	return filterPitfalls(t.Pitfalls, true)
}

// ConcealedPitfalls returns hidden pitfalls in authoring order.
func (t *Traits) ConcealedPitfalls() []Pitfall {
	return filterPitfalls(t.Pitfalls, false)
}

func (t *Traits) markUsed(mt MotivationType) {
	if i := t.motivationIndex(mt); i >= 0 && t.Motivations[i].IsKnown {
		t.Motivations[i].TimesUsed++
	}
}

func (t Traits) clone() Traits {
	out := Traits{}
	if t.Motivations != nil {
		out.Motivations = make([]Motivation, len(t.Motivations))
		copy(out.Motivations, t.Motivations)
	}
	if t.Pitfalls != nil {
		out.Pitfalls = make([]Pitfall, len(t.Pitfalls))
		copy(out.Pitfalls, t.Pitfalls)
	}
	return out
}

func (t *Traits) validate(op string) error {
	seen := make(map[MotivationType]struct{}, len(t.Motivations))
	for _, m := range t.Motivations {
		if !m.Type.Valid() {
			return validationError(op, "unknown motivation type %q", m.Type)
		}
		if _, dup := seen[m.Type]; dup {
			return validationError(op, "duplicate motivation %q", m.Type)
		}
		seen[m.Type] = struct{}{}
		if m.TimesUsed < 0 {
			return validationError(op, "motivation %q has negative use count", m.Type)
		}
		if m.TimesUsed > 0 && !m.IsKnown {
			return validationError(op, "motivation %q used while concealed", m.Type)
		}
	}
	for i, p := range t.Pitfalls {
		if strings.TrimSpace(p.Description) == "" {
			return validationError(op, "pitfall %d has no description", i)
		}
	}
	return nil
}

func filterMotivations(in []Motivation, known bool) []Motivation {
	out := make([]Motivation, 0, len(in))
	for _, m := range in {
		if m.IsKnown == known {
			out = append(out, m)
		}
	}
	return out
}

func filterPitfalls(in []Pitfall, known bool) []Pitfall {
	out := make([]Pitfall, 0, len(in))
	for _, p := range in {
		if p.IsKnown == known {
			out = append(out, p)
		}
	}
	return out
}
