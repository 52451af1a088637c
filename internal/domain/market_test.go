package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- ValidateTerms ---

func TestValidateTerms(t *testing.T) {
	long := strings.Repeat("x", MaxLabelLen+1)

	assert.NoError(t, ValidateTerms("A", "B", 300, 100))
	assert.NoError(t, ValidateTerms(strings.Repeat("x", MaxLabelLen), "B", 10_000, 0))
	assert.ErrorIs(t, ValidateTerms("A", "B", 10_001, 0), ErrInvalidFee)
	assert.ErrorIs(t, ValidateTerms("A", "B", 0, 10_001), ErrInvalidFee)
	assert.ErrorIs(t, ValidateTerms("A", "B", 6000, 5000), ErrInvalidFee)
	assert.ErrorIs(t, ValidateTerms(long, "B", 0, 0), ErrInvalidStringLength)
	assert.ErrorIs(t, ValidateTerms("A", long, 0, 0), ErrInvalidStringLength)
}

// --- AddStake ---

func TestAddStake_TracksPoolsAndCounts(t *testing.T) {
	var m Market
	require.NoError(t, m.AddStake(OutcomeWinA, 100))
	require.NoError(t, m.AddStake(OutcomeWinA, 50))
	require.NoError(t, m.AddStake(OutcomeWinB, 7))

	assert.Equal(t, uint64(150), m.PoolA.Uint64())
	assert.Equal(t, uint64(7), m.PoolB.Uint64())
	assert.Equal(t, uint32(2), m.CountA)
	assert.Equal(t, uint32(1), m.CountB)
	total := m.TotalPool()
	assert.Equal(t, "157", total.Dec())
	assert.Equal(t, uint64(3), m.TotalBets())
}

func TestAddStake_OverflowLeavesMarketUntouched(t *testing.T) {
	var m Market
	m.PoolA = maxPool()
	m.CountA = 4

	err := m.AddStake(OutcomeWinA, 1)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, maxPool(), m.PoolA)
	assert.Equal(t, uint32(4), m.CountA)
}

func TestAddStake_CountOverflow(t *testing.T) {
	var m Market
	m.CountB = ^uint32(0)

	assert.ErrorIs(t, m.AddStake(OutcomeWinB, 1), ErrOverflow)
	assert.True(t, m.PoolB.IsZero())
}

func TestAddStake_RejectsUndrawnSide(t *testing.T) {
	var m Market
	assert.ErrorIs(t, m.AddStake(OutcomeUndrawn, 1), ErrInvalidOutcome)
}

func TestMarket_CopiesDoNotSharePools(t *testing.T) {
	var m Market
	require.NoError(t, m.AddStake(OutcomeWinA, 10))
	snapshot := m
	require.NoError(t, m.AddStake(OutcomeWinA, 10))

	assert.Equal(t, uint64(10), snapshot.PoolA.Uint64())
	assert.Equal(t, uint64(20), m.PoolA.Uint64())
}

// --- Resolve / window ---

func TestResolve_WriteOnce(t *testing.T) {
	m := Market{Outcome: OutcomeUndrawn}
	now := time.Now()

	assert.ErrorIs(t, m.Resolve(OutcomeUndrawn, now), ErrInvalidOutcome)
	require.NoError(t, m.Resolve(OutcomeWinB, now))
	assert.ErrorIs(t, m.Resolve(OutcomeWinA, now), ErrEventSettled)
	assert.Equal(t, OutcomeWinB, m.Outcome)
	require.NotNil(t, m.ResolvedAt)
}

func TestAcceptsBets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	manual := Market{Outcome: OutcomeUndrawn, Window: ManualWindow()}
	assert.NoError(t, manual.AcceptsBets(now))
	require.NoError(t, manual.Window.Close())
	assert.ErrorIs(t, manual.AcceptsBets(now), ErrBettingClosed)
	assert.ErrorIs(t, manual.Window.Close(), ErrBettingAlreadyClosed)

	deadline := Market{Outcome: OutcomeUndrawn, Window: DeadlineWindow(now.Add(time.Hour))}
	assert.NoError(t, deadline.AcceptsBets(now))
	assert.ErrorIs(t, deadline.AcceptsBets(now.Add(time.Hour)), ErrBettingEnded)
	assert.ErrorIs(t, deadline.Window.Close(), ErrWindowPolicy)

	resolved := Market{Outcome: OutcomeWinA, Window: ManualWindow()}
	assert.ErrorIs(t, resolved.AcceptsBets(now), ErrEventSettled)

	closed := Market{Outcome: OutcomeWinA, Closed: true}
	assert.ErrorIs(t, closed.AcceptsBets(now), ErrMarketClosed)
}

// --- fees ---

func TestAccrueFees(t *testing.T) {
	var m Market
	require.NoError(t, m.AccrueFees(30, 10))
	require.NoError(t, m.AccrueFees(5, 0))
	m.FeesPaid = 20

	fee, dev := m.UnpaidFees()
	assert.Equal(t, uint64(15), fee)
	assert.Equal(t, uint64(10), dev)

	m.FeesAccrued = ^uint64(0)
	assert.ErrorIs(t, m.AccrueFees(1, 0), ErrOverflow)
}

// --- AssetKind / Outcome parsing ---

func TestAssetKind_KeyRoundTrip(t *testing.T) {
	mint := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	native, err := ParseAssetKey(NativeAsset().Key())
	require.NoError(t, err)
	assert.True(t, native.IsNative())

	token, err := ParseAssetKey(FungibleAsset(mint).Key())
	require.NoError(t, err)
	got, ok := token.Mint()
	assert.True(t, ok)
	assert.Equal(t, mint, got)

	_, err = ParseAssetKey("fungible:nope")
	assert.ErrorIs(t, err, ErrInvalidMint)
	assert.ErrorIs(t, FungibleAsset(Address{}).Validate(), ErrInvalidMint)
}

func TestParseOutcome(t *testing.T) {
	for in, want := range map[string]Outcome{"a": OutcomeWinA, "WIN_B": OutcomeWinB, " b ": OutcomeWinB} {
		got, err := ParseOutcome(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseOutcome("draw")
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestMarkSettled_WriteOnce(t *testing.T) {
	p := Position{Amount: 10}
	require.NoError(t, p.MarkSettled(20, time.Now()))
	assert.ErrorIs(t, p.MarkSettled(20, time.Now()), ErrBetSettled)
	assert.Equal(t, uint64(20), p.Payout)
}
