package domain

import (
	"fmt"
	"strings"
)

// Outcome is the result of the wagered event. It doubles as the side a position backs.
type Outcome string

const (
	OutcomeUndrawn Outcome = "UNDRAWN"
	OutcomeWinA    Outcome = "WIN_A"
	OutcomeWinB    Outcome = "WIN_B"
)

// IsSide reports whether o names one of the two opponents.
func (o Outcome) IsSide() bool {
	return o == OutcomeWinA || o == OutcomeWinB
}

// Label devuelve la etiqueta del oponente correspondiente en el mercado.
func (o Outcome) Label(m Market) string {
	switch o {
	case OutcomeWinA:
		return m.OpponentA
	case OutcomeWinB:
		return m.OpponentB
	default:
		return "-"
	}
}

// ParseOutcome accepts "a", "b", "win_a", "win_b" and "undrawn" in any case.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "WIN_A", "WINA":
		return OutcomeWinA, nil
	case "B", "WIN_B", "WINB":
		return OutcomeWinB, nil
	case "UNDRAWN":
		return OutcomeUndrawn, nil
	}
	return "", fmt.Errorf("domain.ParseOutcome: %q: %w", s, ErrInvalidOutcome)
}
