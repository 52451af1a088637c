package domain

import "time"

// Position is one participant's stake on one side of a Market.
type Position struct {
	ID        string // UUID
	MarketID  uint64
	Owner     Address
	Side      Outcome
	Amount    uint64
	Settled   bool
	Payout    uint64 // meaningful once Settled
	PlacedAt  time.Time
	SettledAt *time.Time
}

// Won reports whether the position backed outcome.
func (p Position) Won(outcome Outcome) bool {
	return outcome.IsSide() && p.Side == outcome
}

// MarkSettled flips the write-once settled flag.
func (p *Position) MarkSettled(payout uint64, at time.Time) error {
	if p.Settled {
		return ErrBetSettled
	}
	t := at.UTC()
	p.Settled = true
	p.Payout = payout
	p.SettledAt = &t
	return nil
}
