package tournament

import "fmt"

// Involves reports whether the participant plays in the match.
func (m Match) Involves(participantID string) bool {
	return participantID != "" && (m.PlayerA == participantID || m.PlayerB == participantID)
}

// SideOf returns the side the participant plays on, or SideNone.
func (m Match) SideOf(participantID string) Side {
	switch {
	case participantID == "":
		return SideNone
	case m.PlayerA == participantID:
		return SideA
	case m.PlayerB == participantID:
		return SideB
	}
	return SideNone
}

// Opponent returns the other participant of the match. A BYE has no opponent.
func (m Match) Opponent(participantID string) string {
	switch m.SideOf(participantID) {
	case SideA:
		return m.PlayerB
	case SideB:
		return m.PlayerA
	}
	return ""
}

// Other returns the opposite side.
func (s Side) Other() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	}
	return SideNone
}

// Score returns the score recorded for the given side.
func (r Result) Score(side Side) SideScore {
	if side == SideB {
		return r.B
	}
	return r.A
}

// Validate checks that a result is well formed for the match it is submitted to.
func (r Result) Validate(m Match) error {
	if r.Winner != SideNone && r.Winner != SideA && r.Winner != SideB {
		return fmt.Errorf("%w: unknown winner %q", ErrInvalidInput, r.Winner)
	}
	for _, s := range []SideScore{r.A, r.B} {
		if s.VictoryPoints < 0 || s.MassacrePoints < 0 {
			return fmt.Errorf("%w: points must not be negative", ErrInvalidInput)
		}
	}
	if m.IsBye {
		if r.Winner != SideA {
			return fmt.Errorf("%w: a bye can only be won by its participant", ErrInvalidInput)
		}
		if r.B != (SideScore{}) {
			return fmt.Errorf("%w: a bye has no opponent score", ErrInvalidInput)
		}
	}
	return nil
}

// ByeResult is the result credited to a participant receiving a BYE.
func ByeResult(victoryPoints, massacrePoints int) *Result {
	return &Result{
		Winner: SideA,
		A:      SideScore{VictoryPoints: victoryPoints, MassacrePoints: massacrePoints},
	}
}
