package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

// FeeSweep is what one sweep moved out of the vault. A zero recipient means
// that share was not routed and stays in the vault.
type FeeSweep struct {
	Fee                   uint64
	FeeRecipient          domain.Address
	DeveloperFee          uint64
	DeveloperFeeRecipient domain.Address
}

// Total is the value that left the vault.
func (f FeeSweep) Total() uint64 {
	return f.Fee + f.DeveloperFee
}

// SweepFees pays the fees withheld from settled winners so far to the
// configured recipients. Only the authority may sweep, and only once the
// outcome is known.
func (s *Service) SweepFees(ctx context.Context, marketID uint64, caller domain.Address) (FeeSweep, error) {
	unlock, err := s.lock(ctx, marketID)
	if err != nil {
		return FeeSweep{}, fmt.Errorf("escrow.SweepFees: %w", err)
	}
	defer unlock()

	m, err := s.store.GetMarket(ctx, marketID)
	if err != nil {
		return FeeSweep{}, fmt.Errorf("escrow.SweepFees: %w", err)
	}
	if err := authorize(m.Authority, caller); err != nil {
		return FeeSweep{}, fmt.Errorf("escrow.SweepFees %d: %w", marketID, err)
	}
	if !m.IsResolved() {
		return FeeSweep{}, fmt.Errorf("escrow.SweepFees %d: %w", marketID, domain.ErrEventNotSettled)
	}
	if m.Closed {
		return FeeSweep{}, fmt.Errorf("escrow.SweepFees %d: %w", marketID, domain.ErrMarketClosed)
	}

	prev := m
	sweep := planSweep(&m)
	if sweep.Total() == 0 {
		return sweep, nil
	}
	if err := s.store.UpdateMarket(ctx, m); err != nil {
		return FeeSweep{}, fmt.Errorf("escrow.SweepFees: %w", err)
	}
	if err := payFees(ctx, s.vaultOf(m), sweep); err != nil {
		return FeeSweep{}, fmt.Errorf("escrow.SweepFees %d: %w", marketID, s.restore(ctx, prev, err))
	}

	slog.Info("fees swept", "market", m.ID, "fee", sweep.Fee, "developer_fee", sweep.DeveloperFee)
	ev := domain.NewEvent(domain.EventFeesSwept, m, caller, s.clock.Now())
	ev.Fee = sweep.Fee
	ev.DevFee = sweep.DeveloperFee
	s.emit(ctx, ev)
	return sweep, nil
}

// planSweep marks the unpaid fees of m as paid for every recipient that is set.
func planSweep(m *domain.Market) FeeSweep {
	fee, devFee := m.UnpaidFees()
	var sweep FeeSweep
	if fee > 0 && m.FeeRecipient != (domain.Address{}) {
		sweep.Fee, sweep.FeeRecipient = fee, m.FeeRecipient
		m.FeesPaid += fee
	}
	if devFee > 0 && m.DeveloperFeeRecipient != (domain.Address{}) {
		sweep.DeveloperFee, sweep.DeveloperFeeRecipient = devFee, m.DeveloperFeeRecipient
		m.DeveloperFeesPaid += devFee
	}
	return sweep
}

// payFees moves sweep out of v. If the second transfer fails the first one is
// put back.
func payFees(ctx context.Context, v ports.Vault, sweep FeeSweep) error {
	if sweep.Fee > 0 {
		if err := v.Withdraw(ctx, sweep.FeeRecipient, sweep.Fee); err != nil {
			return fmt.Errorf("pay fee: %w", err)
		}
	}
	if sweep.DeveloperFee > 0 {
		if err := v.Withdraw(ctx, sweep.DeveloperFeeRecipient, sweep.DeveloperFee); err != nil {
			err = fmt.Errorf("pay developer fee: %w", err)
			if sweep.Fee > 0 {
				if rerr := v.Deposit(ctx, sweep.FeeRecipient, sweep.Fee); rerr != nil {
					return errors.Join(err, fmt.Errorf("return fee: %w", rerr))
				}
			}
			return err
		}
	}
	return nil
}

// refundFees undoes a successful payFees.
func refundFees(ctx context.Context, v ports.Vault, sweep FeeSweep) error {
	var errs []error
	if sweep.Fee > 0 {
		if err := v.Deposit(ctx, sweep.FeeRecipient, sweep.Fee); err != nil {
			errs = append(errs, fmt.Errorf("return fee: %w", err))
		}
	}
	if sweep.DeveloperFee > 0 {
		if err := v.Deposit(ctx, sweep.DeveloperFeeRecipient, sweep.DeveloperFee); err != nil {
			errs = append(errs, fmt.Errorf("return developer fee: %w", err))
		}
	}
	return errors.Join(errs...)
}
