package negotiation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultInterest    = 2
	DefaultPatience    = 4
	DefaultPatienceCap = 5
)

// Session is the aggregate root of one negotiation encounter.
type Session struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	NPCName     string     `json:"npc_name"`
	Status      Status     `json:"status"`
	Counters    Counters   `json:"counters"`
	Opening     Counters   `json:"opening"`
	Traits      Traits     `json:"traits"`
	Arguments   Ledger     `json:"arguments"`
	Outcome     *Outcome   `json:"outcome,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MotivationSeed describes a motivation at authoring time.
type MotivationSeed struct {
	Type        MotivationType
	Description string
	Known       bool
}

// PitfallSeed describes a pitfall at authoring time.
type PitfallSeed struct {
	Description string
	Known       bool
}

// CreateInput seeds a new session.
type CreateInput struct {
	Name        string
	Description string
	NPCName     string
	Interest    int
	Patience    int
	PatienceCap int
	Motivations []MotivationSeed
	Pitfalls    []PitfallSeed
}

// Operation names an engine operation for state policy checks.
type Operation string

const (
	OpStart         Operation = "start"
	OpRevealTrait   Operation = "reveal_trait"
	OpApplyArgument Operation = "apply_argument"
	OpComplete      Operation = "complete"
)

// ValidateOperation reports whether op may run while the session is in status.
func ValidateOperation(status Status, op Operation) error {
	switch op {
	case OpStart:
		if status == StatusPreparing {
			return nil
		}
	case OpRevealTrait, OpApplyArgument, OpComplete:
		if status == StatusActive {
			return nil
		}
	default:
		return validationError(string(op), "unknown operation")
	}
	return invalidStateError(string(op), "not allowed while session is %s", status)
}

func isTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusPreparing:
		return to == StatusActive
	case StatusActive:
		return to == StatusCompleted
	default:
		return false
	}
}

// Engine applies negotiation rules to sessions.
type Engine struct {
	now    func() time.Time
	newID  func() (string, error)
	effect EffectPolicy
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides session and argument id generation.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithEffectPolicy overrides how declared argument deltas become applied deltas.
func WithEffectPolicy(p EffectPolicy) Option {
	return func(e *Engine) {
		if p != nil {
			e.effect = p
		}
	}
}

// NewEngine creates an Engine with uuid ids, a UTC clock and FullEffect.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now: func() time.Time { return time.Now().UTC() },
		newID: func() (string, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
		effect: FullEffect,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create builds a new session in the preparing state.
func (e *Engine) Create(in CreateInput) (*Session, error) {
	const op = "create session"

	name := strings.TrimSpace(in.Name)
	npc := strings.TrimSpace(in.NPCName)
	if name == "" {
		return nil, validationError(op, "name is required")
	}
	if npc == "" {
		return nil, validationError(op, "npc name is required")
	}
	counters := Counters{Interest: in.Interest, Patience: in.Patience, PatienceCap: in.PatienceCap}
	if err := counters.validate(op); err != nil {
		return nil, err
	}
	if counters.Patience == 0 {
		return nil, validationError(op, "starting patience must be at least 1")
	}

	traits := Traits{
		Motivations: make([]Motivation, 0, len(in.Motivations)),
		Pitfalls:    make([]Pitfall, 0, len(in.Pitfalls)),
	}
	for _, m := range in.Motivations {
		traits.Motivations = append(traits.Motivations, Motivation{
			Type:        m.Type,
			Description: strings.TrimSpace(m.Description),
			IsKnown:     m.Known,
		})
	}
	for _, p := range in.Pitfalls {
		traits.Pitfalls = append(traits.Pitfalls, Pitfall{
			Description: strings.TrimSpace(p.Description),
			IsKnown:     p.Known,
		})
	}
	if err := traits.validate(op); err != nil {
		return nil, err
	}

	id, err := e.newID()
	if err != nil {
		return nil, validationError(op, "generate id: %v", err)
	}
	now := e.now()
	return &Session{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		NPCName:     npc,
		Status:      StatusPreparing,
		Counters:    counters,
		Opening:     counters,
		Traits:      traits,
		Arguments:   Ledger{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Start moves a preparing session to active.
func (e *Engine) Start(s *Session) error {
	if err := ValidateOperation(s.Status, OpStart); err != nil {
		return err
	}
	s.transition(StatusActive, e.now())
	return nil
}

// RevealMotivation marks a motivation known on an active session.
func (e *Engine) RevealMotivation(s *Session, mt MotivationType) error {
	if err := ValidateOperation(s.Status, OpRevealTrait); err != nil {
		return err
	}
	m, ok := s.Traits.Motivation(mt)
	if !ok {
		return notFoundError("reveal motivation", "npc has no %q motivation", mt)
	}
	if m.IsKnown {
		return nil
	}
	if err := s.Traits.RevealMotivation(mt); err != nil {
		return err
	}
	s.UpdatedAt = e.now()
	return nil
}

// RevealPitfall marks the pitfall at index known on an active session.
func (e *Engine) RevealPitfall(s *Session, index int) error {
	if err := ValidateOperation(s.Status, OpRevealTrait); err != nil {
		return err
	}
	if index < 0 || index >= len(s.Traits.Pitfalls) {
		return notFoundError("reveal pitfall", "no pitfall at index %d", index)
	}
	if s.Traits.Pitfalls[index].IsKnown {
		return nil
	}
	if err := s.Traits.RevealPitfall(index); err != nil {
		return err
	}
	s.UpdatedAt = e.now()
	return nil
}

// RevealPitfallByDescription reveals the pitfall whose description matches.
func (e *Engine) RevealPitfallByDescription(s *Session, description string) error {
	if err := ValidateOperation(s.Status, OpRevealTrait); err != nil {
		return err
	}
	i := s.Traits.PitfallIndex(description)
	if i < 0 {
		return notFoundError("reveal pitfall", "no pitfall matching %q", description)
	}
	return e.RevealPitfall(s, i)
}

// ApplyArgument validates and records an argument, applies its effect and
// completes the session with a failure once patience runs out.
func (e *Engine) ApplyArgument(s *Session, in ArgumentInput) (*ArgumentResult, error) {
	const op = "apply argument"

	if err := ValidateOperation(s.Status, OpApplyArgument); err != nil {
		return nil, err
	}
	if err := in.validate(op, &s.Traits); err != nil {
		return nil, err
	}
	id, err := e.newID()
	if err != nil {
		return nil, validationError(op, "generate id: %v", err)
	}

	known := false
	if in.MotivationType != nil {
		m, _ := s.Traits.Motivation(*in.MotivationType)
		known = m.IsKnown
	}
	interestDelta, patienceDelta := e.effect(in, known)

	now := e.now()
	arg := Argument{
		ID:             id,
		Tier:           in.Tier,
		Description:    strings.TrimSpace(in.Description),
		MotivationType: cloneMotivationType(in.MotivationType),
		InterestChange: interestDelta,
		PatienceChange: patienceDelta,
		CreatedAt:      now,
	}

	counters, exhausted := s.Counters.Apply(interestDelta, patienceDelta)
	s.Counters = counters
	if in.MotivationType != nil {
		s.Traits.markUsed(*in.MotivationType)
	}
	s.Arguments = append(s.Arguments, arg)
	s.UpdatedAt = now

	res := &ArgumentResult{Argument: arg, Counters: counters, PatienceExhausted: exhausted}
	if exhausted {
		s.finalize(OutcomeFailure, now)
		res.Completed = true
	}
	return res, nil
}

// Complete ends an active session and resolves its outcome from interest.
func (e *Engine) Complete(s *Session) (Outcome, error) {
	if err := ValidateOperation(s.Status, OpComplete); err != nil {
		return "", err
	}
	if s.Counters.PatienceExhausted() {
		return "", invalidStateError(string(OpComplete), "patience is exhausted")
	}
	outcome := ResolveOutcome(s.Counters.Interest)
	s.finalize(outcome, e.now())
	return outcome, nil
}

func (s *Session) transition(to Status, now time.Time) {
	if !isTransitionAllowed(s.Status, to) {
		return
	}
	s.Status = to
	s.UpdatedAt = now
}

func (s *Session) finalize(outcome Outcome, now time.Time) {
	if s.Outcome != nil {
		return
	}
	s.transition(StatusCompleted, now)
	o := outcome
	completedAt := now
	s.Outcome = &o
	s.CompletedAt = &completedAt
}

// IsCompleted reports whether the session has a frozen outcome.
func (s *Session) IsCompleted() bool {
	return s.Status == StatusCompleted
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Traits = s.Traits.clone()
	if s.Arguments != nil {
		out.Arguments = make(Ledger, len(s.Arguments))
		for i, a := range s.Arguments {
			a.MotivationType = cloneMotivationType(a.MotivationType)
			out.Arguments[i] = a
		}
	}
	if s.Outcome != nil {
		o := *s.Outcome
		out.Outcome = &o
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// Validate checks every invariant of a session, for example after loading
// an imported snapshot.
func (s *Session) Validate() error {
	const op = "validate session"

	if strings.TrimSpace(s.ID) == "" {
		return validationError(op, "id is required")
	}
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.NPCName) == "" {
		return validationError(op, "name and npc name are required")
	}
	if !s.Status.Valid() {
		return validationError(op, "unknown status %q", s.Status)
	}
	if err := s.Opening.validate(op); err != nil {
		return err
	}
	if err := s.Counters.validate(op); err != nil {
		return err
	}
	if s.Opening.PatienceCap != s.Counters.PatienceCap {
		return validationError(op, "patience cap changed from %d to %d", s.Opening.PatienceCap, s.Counters.PatienceCap)
	}
	if err := s.Traits.validate(op); err != nil {
		return err
	}
	if err := s.Arguments.validate(op); err != nil {
		return err
	}
	if s.Status == StatusPreparing && len(s.Arguments) > 0 {
		return validationError(op, "preparing session has arguments")
	}
	replayed, exhaustedAt := s.Arguments.Replay(s.Opening)
	if replayed != s.Counters {
		return validationError(op, "counters %+v do not match ledger replay %+v", s.Counters, replayed)
	}
	// exhaustion ends the negotiation, so it can only happen on the last argument
	if exhaustedAt >= 0 && exhaustedAt != len(s.Arguments)-1 {
		return validationError(op, "argument %d exhausted patience but %d more follow", exhaustedAt, len(s.Arguments)-1-exhaustedAt)
	}
	uses := s.Arguments.MotivationUses()
	for _, m := range s.Traits.Motivations {
		if m.TimesUsed > uses[m.Type] {
			return validationError(op, "motivation %q used %d times but ledger has %d", m.Type, m.TimesUsed, uses[m.Type])
		}
	}
	for _, a := range s.Arguments {
		if a.MotivationType == nil {
			continue
		}
		if _, ok := s.Traits.Motivation(*a.MotivationType); !ok {
			return validationError(op, "argument %q references missing motivation %q", a.ID, *a.MotivationType)
		}
	}

	if s.Status == StatusCompleted {
		if s.Outcome == nil || s.CompletedAt == nil {
			return validationError(op, "completed session must have outcome and completion time")
		}
		want := ResolveOutcome(s.Counters.Interest)
		if s.Counters.PatienceExhausted() {
			want = OutcomeFailure
		}
		if *s.Outcome != want {
			return validationError(op, "outcome %q does not match final state, expected %q", *s.Outcome, want)
		}
	} else {
		if s.Outcome != nil || s.CompletedAt != nil {
			return validationError(op, "%s session cannot have an outcome", s.Status)
		}
		if s.Counters.PatienceExhausted() {
			return validationError(op, "%s session has no patience left", s.Status)
		}
	}
	return nil
}
