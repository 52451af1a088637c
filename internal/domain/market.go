package domain

import (
	"time"

	"github.com/holiman/uint256"
)

const (
	// MaxLabelLen is the byte limit for each opponent label.
	MaxLabelLen = 32
	// MaxBps is 100% in basis points.
	MaxBps = 10_000
	// poolBits is the width of the pool totals; anything wider is an overflow.
	poolBits = 128
)

// Market is one two-sided wager on an external event.
//
// Pools only grow through AddStake and Outcome only moves once, from
// OutcomeUndrawn to a side, through Resolve.
type Market struct {
	ID           uint64
	Authority    Address
	Address      Address // derived from ID
	VaultAddress Address // derived from ID and Asset

	OpponentA string
	OpponentB string

	FeeBps                uint32
	DeveloperFeeBps       uint32
	FeeRecipient          Address // zero = unset
	DeveloperFeeRecipient Address // zero = unset

	Window  WindowPolicy
	Outcome Outcome
	Asset   AssetKind

	PoolA  uint256.Int
	PoolB  uint256.Int
	CountA uint32
	CountB uint32

	// Fees withheld from winners at settlement, and how much of it has been
	// routed to the recipients so far.
	FeesAccrued          uint64
	DeveloperFeesAccrued uint64
	FeesPaid             uint64
	DeveloperFeesPaid    uint64

	Closed     bool
	CreatedAt  time.Time
	ResolvedAt *time.Time
	ClosedAt   *time.Time
}

// ValidateTerms checks the immutable terms fixed at creation.
func ValidateTerms(opponentA, opponentB string, feeBps, developerFeeBps uint32) error {
	if feeBps > MaxBps || developerFeeBps > MaxBps || feeBps+developerFeeBps > MaxBps {
		return ErrInvalidFee
	}
	if len(opponentA) > MaxLabelLen || len(opponentB) > MaxLabelLen {
		return ErrInvalidStringLength
	}
	return nil
}

// IsResolved reports whether the outcome has been announced.
func (m Market) IsResolved() bool {
	return m.Outcome != OutcomeUndrawn
}

// AcceptsBets returns nil if a new stake may be admitted at now.
func (m Market) AcceptsBets(now time.Time) error {
	if m.Closed {
		return ErrMarketClosed
	}
	if m.IsResolved() {
		return ErrEventSettled
	}
	return m.Window.Accepts(now)
}

// AddStake folds amount into the pool of side with checked arithmetic.
// On error m is left untouched.
func (m *Market) AddStake(side Outcome, amount uint64) error {
	if !side.IsSide() {
		return ErrInvalidOutcome
	}
	pool, count := &m.PoolA, &m.CountA
	if side == OutcomeWinB {
		pool, count = &m.PoolB, &m.CountB
	}

	var next uint256.Int
	if _, overflow := next.AddOverflow(pool, uint256.NewInt(amount)); overflow || next.BitLen() > poolBits {
		return ErrOverflow
	}
	if *count == ^uint32(0) {
		return ErrOverflow
	}
	*pool = next
	*count++
	return nil
}

// Resolve sets the outcome. It is write-once.
func (m *Market) Resolve(winner Outcome, at time.Time) error {
	if !winner.IsSide() {
		return ErrInvalidOutcome
	}
	if m.IsResolved() {
		return ErrEventSettled
	}
	m.Outcome = winner
	t := at.UTC()
	m.ResolvedAt = &t
	return nil
}

// Pools returns the winning and losing pool for outcome.
func (m Market) Pools(outcome Outcome) (winning, losing uint256.Int) {
	if outcome == OutcomeWinB {
		return m.PoolB, m.PoolA
	}
	return m.PoolA, m.PoolB
}

// TotalPool is PoolA + PoolB. Both fit in 128 bits so the sum cannot wrap.
func (m Market) TotalPool() uint256.Int {
	var total uint256.Int
	total.Add(&m.PoolA, &m.PoolB)
	return total
}

// TotalBets is the number of admitted positions.
func (m Market) TotalBets() uint64 {
	return uint64(m.CountA) + uint64(m.CountB)
}

// AccrueFees records the fee portions withheld from one winner.
func (m *Market) AccrueFees(fee, developerFee uint64) error {
	f := m.FeesAccrued + fee
	d := m.DeveloperFeesAccrued + developerFee
	if f < m.FeesAccrued || d < m.DeveloperFeesAccrued {
		return ErrOverflow
	}
	m.FeesAccrued, m.DeveloperFeesAccrued = f, d
	return nil
}

// UnpaidFees returns the accrued fee amounts not yet routed to a recipient.
func (m Market) UnpaidFees() (fee, developerFee uint64) {
	return m.FeesAccrued - m.FeesPaid, m.DeveloperFeesAccrued - m.DeveloperFeesPaid
}
