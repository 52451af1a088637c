package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/parimutuel/internal/adapters/notify"
	"github.com/alejandrodnm/parimutuel/internal/domain"
)

var (
	authority = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	alice     = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func makeMarket() domain.Market {
	m := domain.Market{
		ID:        4,
		Authority: authority,
		OpponentA: "Lions",
		OpponentB: "Tigers",
		FeeBps:    300,
		Window:    domain.ManualWindow(),
		Outcome:   domain.OutcomeUndrawn,
		Asset:     domain.NativeAsset(),
	}
	_ = m.AddStake(domain.OutcomeWinA, 1000)
	_ = m.AddStake(domain.OutcomeWinB, 400)
	return m
}

func TestConsole_Emit(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)
	m := makeMarket()

	ev := domain.NewEvent(domain.EventBetSettled, m, alice, time.Date(2026, 1, 2, 21, 30, 0, 0, time.UTC))
	ev.PositionID = "pos-1"
	ev.Side = domain.OutcomeWinA
	ev.Amount = 1000
	ev.Won = true
	ev.Payout = 1388
	ev.Fee = 30

	require.NoError(t, c.Emit(context.Background(), ev))

	out := buf.String()
	assert.Contains(t, out, "[21:30:00] bet_settled")
	assert.Contains(t, out, "market=4")
	assert.Contains(t, out, "pos=pos-1")
	assert.Contains(t, out, "won=true payout=1388")
	assert.Contains(t, out, "fee=30")
	assert.Contains(t, out, "pools=1000/400")
}

func TestConsole_PrintMarket(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)
	m := makeMarket()
	require.NoError(t, m.Resolve(domain.OutcomeWinA, time.Now()))

	positions := []domain.Position{
		{ID: "pos-1", Owner: alice, Side: domain.OutcomeWinA, Amount: 1000, Settled: true, Payout: 1388},
		{ID: "pos-2", Owner: authority, Side: domain.OutcomeWinB, Amount: 400},
	}
	c.PrintMarket(m, positions, 12)

	out := buf.String()
	assert.Contains(t, out, "Market #4  Lions vs Tigers")
	assert.Contains(t, out, "RESOLVED WIN_A (Lions)")
	assert.Contains(t, out, "balance 12")
	assert.Contains(t, out, "1400")
	assert.Contains(t, out, "1388")
	assert.Contains(t, out, "Tigers")
}

func TestConsole_PrintMarket_NoPositions(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf).PrintMarket(makeMarket(), nil, 0)

	assert.Contains(t, buf.String(), "No positions yet.")
	assert.Contains(t, buf.String(), "OPEN")
}

func TestConsole_PrintMarkets_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf).PrintMarkets(nil)

	assert.Contains(t, buf.String(), "No markets found.")
}
