package domain

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvedMarket(feeBps, devBps uint32, poolA, poolB uint64, outcome Outcome) Market {
	m := Market{ID: 1, FeeBps: feeBps, DeveloperFeeBps: devBps, Outcome: outcome}
	m.PoolA.SetUint64(poolA)
	m.PoolB.SetUint64(poolB)
	return m
}

func bet(side Outcome, amount uint64) Position {
	return Position{ID: "p", MarketID: 1, Side: side, Amount: amount}
}

// --- ComputePayout ---

func TestComputePayout_EvenPoolsWithFee(t *testing.T) {
	// W=1000 L=1000 fee=3% → fee=30 net=970 bonus=970 → 1940
	m := resolvedMarket(300, 0, 1000, 1000, OutcomeWinA)

	got, err := ComputePayout(m, bet(OutcomeWinA, 1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1940), got.Amount)
	assert.Equal(t, uint64(30), got.Fee)
	assert.Zero(t, got.DeveloperFee)
	assert.True(t, got.Won)

	lost, err := ComputePayout(m, bet(OutcomeWinB, 1000))
	require.NoError(t, err)
	assert.Zero(t, lost.Amount)
	assert.False(t, lost.Won)
}

func TestComputePayout_DualFees(t *testing.T) {
	// fee=30 dev=10 net=960 bonus=960 → 1920
	m := resolvedMarket(300, 100, 1000, 1000, OutcomeWinA)

	got, err := ComputePayout(m, bet(OutcomeWinA, 1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1920), got.Amount)
	assert.Equal(t, uint64(30), got.Fee)
	assert.Equal(t, uint64(10), got.DeveloperFee)
}

func TestComputePayout_FloorsEachStep(t *testing.T) {
	// 3 winners of 1 each, losing pool 10: 1 + floor(10/3) = 4 each, 1 unit of dust left
	m := resolvedMarket(0, 0, 10, 3, OutcomeWinB)

	var total uint64
	for range 3 {
		got, err := ComputePayout(m, bet(OutcomeWinB, 1))
		require.NoError(t, err)
		assert.Equal(t, uint64(4), got.Amount)
		total += got.Amount
	}
	assert.Equal(t, uint64(12), total)
}

func TestComputePayout_ProportionalWithoutFees(t *testing.T) {
	// winners 300 + 700 share a losing pool of 1000 exactly
	m := resolvedMarket(0, 0, 1000, 1000, OutcomeWinA)

	small, err := ComputePayout(m, bet(OutcomeWinA, 300))
	require.NoError(t, err)
	large, err := ComputePayout(m, bet(OutcomeWinA, 700))
	require.NoError(t, err)

	assert.Equal(t, uint64(600), small.Amount)
	assert.Equal(t, uint64(1400), large.Amount)
	assert.Equal(t, uint64(2000), small.Amount+large.Amount)
}

func TestComputePayout_EmptyWinningPool(t *testing.T) {
	m := resolvedMarket(300, 0, 0, 5000, OutcomeWinA)

	got, err := ComputePayout(m, bet(OutcomeWinB, 5000))
	require.NoError(t, err)
	assert.Zero(t, got.Amount)

	// defensive branch: a winning position against an empty winning pool pays nothing
	got, err = ComputePayout(m, bet(OutcomeWinA, 10))
	require.NoError(t, err)
	assert.Zero(t, got.Amount)
}

func TestComputePayout_FullFeeLeavesNothing(t *testing.T) {
	m := resolvedMarket(10_000, 0, 500, 500, OutcomeWinA)

	got, err := ComputePayout(m, bet(OutcomeWinA, 500))
	require.NoError(t, err)
	assert.Zero(t, got.Amount)
	assert.Equal(t, uint64(500), got.Fee)
}

func TestComputePayout_Unresolved(t *testing.T) {
	m := resolvedMarket(0, 0, 1, 1, OutcomeUndrawn)

	_, err := ComputePayout(m, bet(OutcomeWinA, 1))
	assert.ErrorIs(t, err, ErrEventNotSettled)
}

func TestComputePayout_DoesNotFitU64(t *testing.T) {
	m := resolvedMarket(0, 0, 1, 0, OutcomeWinA)
	m.PoolB = maxPool()

	_, err := ComputePayout(m, bet(OutcomeWinA, 1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestComputePayout_NeverExceedsStakePlusLosingPool(t *testing.T) {
	stakes := []uint64{1, 7, 99, 1000, 12345}
	for _, fee := range []uint32{0, 1, 250, 9999} {
		m := resolvedMarket(fee, 0, 13452, 777, OutcomeWinA)
		for _, s := range stakes {
			got, err := ComputePayout(m, bet(OutcomeWinA, s))
			require.NoError(t, err)
			assert.LessOrEqual(t, got.Amount, s+777)
			assert.Equal(t, s*uint64(fee)/MaxBps, got.Fee)
		}
	}
}

func maxPool() uint256.Int {
	var v uint256.Int
	v.Lsh(uint256.NewInt(1), poolBits)
	v.Sub(&v, uint256.NewInt(1))
	return v
}
