package escrow

// claim.go: cobro en lote de todas las posiciones de un apostador.
//
// Cada settle toma el lock de su propio mercado, así que posiciones de
// mercados distintos se liquidan en paralelo.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/alejandrodnm/parimutuel/internal/domain"
)

// Claim is the outcome of settling one position in a ClaimAll batch.
type Claim struct {
	MarketID   uint64
	PositionID string
	Payout     uint64
	Err        error
}

// ClaimAll settles every unsettled position caller holds on a resolved, open
// market. Failures are reported per claim; they do not stop the batch.
// workers <= 0 uses runtime.NumCPU().
func (s *Service) ClaimAll(ctx context.Context, caller domain.Address, workers int) ([]Claim, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	markets, err := s.store.ListMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("escrow.ClaimAll: %w", err)
	}

	var pending []domain.Position
	for _, m := range markets {
		if !m.IsResolved() || m.Closed {
			continue
		}
		p, err := s.store.PositionFor(ctx, m.ID, caller)
		if errors.Is(err, domain.ErrPositionNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("escrow.ClaimAll: %w", err)
		}
		if !p.Settled {
			pending = append(pending, p)
		}
	}

	workCh := make(chan domain.Position, len(pending))
	resultCh := make(chan Claim, len(pending))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range workCh {
				payout, err := s.Settle(ctx, p.ID, p.MarketID, caller)
				if err != nil {
					slog.Debug("claim failed", "market", p.MarketID, "position", p.ID, "err", err)
				}
				resultCh <- Claim{MarketID: p.MarketID, PositionID: p.ID, Payout: payout, Err: err}
			}
		}()
	}
	for _, p := range pending {
		workCh <- p
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	claims := make([]Claim, 0, len(pending))
	for c := range resultCh {
		claims = append(claims, c)
	}
	sort.Slice(claims, func(i, j int) bool { return claims[i].MarketID < claims[j].MarketID })

	slog.Info("claim batch complete", "caller", caller.Hex(), "claims", len(claims), "workers", workers)
	return claims, nil
}
