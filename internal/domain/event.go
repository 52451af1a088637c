package domain

import "time"

// EventKind names the state transition an audit Event records.
type EventKind string

const (
	EventMarketCreated    EventKind = "market_created"
	EventBettingClosed    EventKind = "betting_closed"
	EventOutcomeAnnounced EventKind = "outcome_announced"
	EventBetPlaced        EventKind = "bet_placed"
	EventBetSettled       EventKind = "bet_settled"
	EventFeesSwept        EventKind = "fees_swept"
	EventMarketClosed     EventKind = "market_closed"
)

// Event is the structured notification emitted once per successful
// state-changing operation. Pool totals are decimal strings (128-bit).
type Event struct {
	Kind       EventKind `json:"kind"`
	MarketID   uint64    `json:"market_id"`
	Market     string    `json:"market"`
	PositionID string    `json:"position_id,omitempty"`
	Actor      string    `json:"actor"`
	Side       Outcome   `json:"side,omitempty"`
	Outcome    Outcome   `json:"outcome,omitempty"`
	Amount     uint64    `json:"amount,omitempty"`
	Payout     uint64    `json:"payout,omitempty"`
	Won        bool      `json:"won,omitempty"`
	PoolA      string    `json:"pool_a,omitempty"`
	PoolB      string    `json:"pool_b,omitempty"`
	Fee        uint64    `json:"fee,omitempty"`
	DevFee     uint64    `json:"developer_fee,omitempty"`
	TotalBets  uint64    `json:"total_bets,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

// NewEvent fills the market-scoped fields every record carries.
func NewEvent(kind EventKind, m Market, actor Address, at time.Time) Event {
	return Event{
		Kind:     kind,
		MarketID: m.ID,
		Market:   m.Address.Hex(),
		Actor:    actor.Hex(),
		Outcome:  m.Outcome,
		PoolA:    m.PoolA.Dec(),
		PoolB:    m.PoolB.Dec(),
		At:       at.UTC(),
	}
}
