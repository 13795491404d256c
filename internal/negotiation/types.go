package negotiation

// Status is the lifecycle state of a negotiation session.
type Status string

const (
	StatusPreparing Status = "preparing"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPreparing, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// Outcome is the terminal result of a completed negotiation.
type Outcome string

const (
	OutcomeFailure    Outcome = "failure"
	OutcomeMinorFavor Outcome = "minor_favor"
	OutcomeMajorFavor Outcome = "major_favor"
	OutcomeAlliance   Outcome = "alliance"
)

// Rank orders outcomes from worst (0) to best (3). Unknown outcomes rank -1.
func (o Outcome) Rank() int {
	switch o {
	case OutcomeFailure:
		return 0
	case OutcomeMinorFavor:
		return 1
	case OutcomeMajorFavor:
		return 2
	case OutcomeAlliance:
		return 3
	}
	return -1
}

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	return o.Rank() >= 0
}

// MotivationType is the closed set of NPC motivations.
type MotivationType string

const (
	MotivationBenevolence     MotivationType = "benevolence"
	MotivationDiscovery       MotivationType = "discovery"
	MotivationFreedom         MotivationType = "freedom"
	MotivationGreed           MotivationType = "greed"
	MotivationHigherAuthority MotivationType = "higher_authority"
	MotivationJustice         MotivationType = "justice"
	MotivationLegacy          MotivationType = "legacy"
	MotivationPeace           MotivationType = "peace"
	MotivationPower           MotivationType = "power"
	MotivationProtection      MotivationType = "protection"
	MotivationReputation      MotivationType = "reputation"
	MotivationRevelry         MotivationType = "revelry"
	MotivationVengeance       MotivationType = "vengeance"
	MotivationWealth          MotivationType = "wealth"
)

// MotivationTypes lists every motivation type in display order.
func MotivationTypes() []MotivationType {
	return []MotivationType{
		MotivationBenevolence,
		MotivationDiscovery,
		MotivationFreedom,
		MotivationGreed,
		MotivationHigherAuthority,
		MotivationJustice,
		MotivationLegacy,
		MotivationPeace,
		MotivationPower,
		MotivationProtection,
		MotivationReputation,
		MotivationRevelry,
		MotivationVengeance,
		MotivationWealth,
	}
}

// Valid reports whether m belongs to the closed motivation set.
func (m MotivationType) Valid() bool {
	switch m {
	case MotivationBenevolence, MotivationDiscovery, MotivationFreedom, MotivationGreed,
		MotivationHigherAuthority, MotivationJustice, MotivationLegacy, MotivationPeace,
		MotivationPower, MotivationProtection, MotivationReputation, MotivationRevelry,
		MotivationVengeance, MotivationWealth:
		return true
	}
	return false
}
