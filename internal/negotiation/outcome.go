package negotiation

// ResolveOutcome maps terminal interest to an outcome.
// Values outside the track saturate to the nearest band.
func ResolveOutcome(interest int) Outcome {
	switch {
	case interest <= 1:
		return OutcomeFailure
	case interest == 2:
		return OutcomeMinorFavor
	case interest <= 4:
		return OutcomeMajorFavor
	default:
		return OutcomeAlliance
	}
}
