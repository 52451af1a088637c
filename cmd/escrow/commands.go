package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/parimutuel/internal/application/escrow"
	"github.com/alejandrodnm/parimutuel/internal/domain"
)

// run despacha un subcomando. Cada uno parsea sus propios flags.
func (a *app) run(ctx context.Context, name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	as := fs.String("as", "", "acting identity (address)")
	marketID := fs.Uint64("market", 0, "market id")

	switch name {
	case "create-market":
		teamA := fs.String("a", "", "label of side A")
		teamB := fs.String("b", "", "label of side B")
		fee := fs.Uint("fee", 0, "fee in basis points")
		devFee := fs.Uint("dev-fee", 0, "developer fee in basis points")
		feeTo := fs.String("fee-to", "", "fee recipient (empty = stays in vault)")
		devFeeTo := fs.String("dev-fee-to", "", "developer fee recipient")
		mint := fs.String("mint", "", "token mint (empty = native asset)")
		deadline := fs.Bool("deadline", false, "close betting automatically after the configured horizon")
		if err := fs.Parse(args); err != nil {
			return err
		}
		// uint32 truncaría un valor fuera de rango antes de validarlo.
		if *fee > domain.MaxBps || *devFee > domain.MaxBps {
			return domain.ErrInvalidFee
		}
		caller, err := identity(*as)
		if err != nil {
			return err
		}
		req := escrow.CreateMarketRequest{
			ID:              *marketID,
			Authority:       caller,
			OpponentA:       *teamA,
			OpponentB:       *teamB,
			FeeBps:          uint32(*fee),
			DeveloperFeeBps: uint32(*devFee),
			Asset:           assetFlag(*mint),
			Window:          domain.WindowManual,
		}
		if *deadline {
			req.Window = domain.WindowDeadline
		}
		if req.FeeRecipient, err = optionalAddress("fee-to", *feeTo); err != nil {
			return err
		}
		if req.DeveloperFeeRecipient, err = optionalAddress("dev-fee-to", *devFeeTo); err != nil {
			return err
		}
		m, err := a.svc.CreateMarket(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("market %d created at %s (vault %s)\n", m.ID, m.Address.Hex(), m.VaultAddress.Hex())
		return nil

	case "fund":
		to := fs.String("to", "", "account to credit")
		amount := fs.Uint64("amount", 0, "amount to credit")
		mint := fs.String("mint", "", "token mint (empty = native asset)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		account, err := identity(*to)
		if err != nil {
			return err
		}
		asset := assetFlag(*mint)
		if err := asset.Validate(); err != nil {
			return err
		}
		if err := a.store.Credit(ctx, asset, account, *amount); err != nil {
			return err
		}
		bal, err := a.store.Balance(ctx, asset, account)
		if err != nil {
			return err
		}
		a.console.PrintBalance(asset, account, bal)
		return nil

	case "place-bet":
		side := fs.String("side", "", "a | b")
		amount := fs.Uint64("amount", 0, "stake")
		if err := fs.Parse(args); err != nil {
			return err
		}
		caller, err := identity(*as)
		if err != nil {
			return err
		}
		outcome, err := domain.ParseOutcome(*side)
		if err != nil {
			return err
		}
		p, err := a.svc.PlaceBet(ctx, *marketID, caller, outcome, *amount)
		if err != nil {
			return err
		}
		fmt.Printf("position %s\n", p.ID)
		return nil

	case "close-betting":
		if err := fs.Parse(args); err != nil {
			return err
		}
		caller, err := identity(*as)
		if err != nil {
			return err
		}
		return a.svc.CloseBetting(ctx, *marketID, caller)

	case "announce":
		winner := fs.String("winner", "", "a | b")
		if err := fs.Parse(args); err != nil {
			return err
		}
		caller, err := identity(*as)
		if err != nil {
			return err
		}
		outcome, err := domain.ParseOutcome(*winner)
		if err != nil {
			return err
		}
		return a.svc.AnnounceOutcome(ctx, *marketID, caller, outcome)

	case "settle":
		position := fs.String("position", "", "position id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		caller, err := identity(*as)
		if err != nil {
			return err
		}
		payout, err := a.svc.Settle(ctx, *position, *marketID, caller)
		if err != nil {
			return err
		}
		fmt.Printf("payout %d\n", payout)
		return nil

	case "claim":
		workers := fs.Int("workers", 0, "parallel settlements (0 = NumCPU)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		caller, err := identity(*as)
		if err != nil {
			return err
		}
		claims, err := a.svc.ClaimAll(ctx, caller, *workers)
		if err != nil {
			return err
		}
		for _, c := range claims {
			if c.Err != nil {
				fmt.Printf("market %d  position %s  failed: %v\n", c.MarketID, c.PositionID, c.Err)
				continue
			}
			fmt.Printf("market %d  position %s  payout %d\n", c.MarketID, c.PositionID, c.Payout)
		}
		return nil

	case "sweep-fees":
		if err := fs.Parse(args); err != nil {
			return err
		}
		caller, err := identity(*as)
		if err != nil {
			return err
		}
		sweep, err := a.svc.SweepFees(ctx, *marketID, caller)
		if err != nil {
			return err
		}
		fmt.Printf("fee %d  developer fee %d\n", sweep.Fee, sweep.DeveloperFee)
		return nil

	case "close-market":
		if err := fs.Parse(args); err != nil {
			return err
		}
		caller, err := identity(*as)
		if err != nil {
			return err
		}
		residual, err := a.svc.CloseMarket(ctx, *marketID, caller)
		if err != nil {
			return err
		}
		fmt.Printf("residual %d released to %s\n", residual, caller.Hex())
		return nil

	case "show":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if !isSet(fs, "market") {
			markets, err := a.svc.Markets(ctx)
			if err != nil {
				return err
			}
			a.console.PrintMarkets(markets)
			return nil
		}
		m, err := a.svc.Market(ctx, *marketID)
		if err != nil {
			return err
		}
		positions, err := a.svc.Positions(ctx, *marketID)
		if err != nil {
			return err
		}
		bal, err := a.svc.VaultBalance(ctx, *marketID)
		if err != nil {
			return err
		}
		a.console.PrintMarket(m, positions, bal)
		return nil

	case "balance":
		account := fs.String("account", "", "account address")
		mint := fs.String("mint", "", "token mint (empty = native asset)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		addr, err := identity(*account)
		if err != nil {
			return err
		}
		asset := assetFlag(*mint)
		bal, err := a.store.Balance(ctx, asset, addr)
		if err != nil {
			return err
		}
		a.console.PrintBalance(asset, addr, bal)
		return nil

	case "audit":
		if err := fs.Parse(args); err != nil {
			return err
		}
		events, err := a.store.AuditTrail(ctx, *marketID)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if err := a.console.Emit(ctx, ev); err != nil {
				return err
			}
		}
		return nil
	}

	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", name)
}

func identity(s string) (domain.Address, error) {
	if !common.IsHexAddress(s) {
		return domain.Address{}, fmt.Errorf("identity %q is not an address", s)
	}
	return common.HexToAddress(s), nil
}

func optionalAddress(name, s string) (domain.Address, error) {
	if s == "" {
		return domain.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return domain.Address{}, fmt.Errorf("-%s %q is not an address", name, s)
	}
	return common.HexToAddress(s), nil
}

func assetFlag(mint string) domain.AssetKind {
	if mint == "" {
		return domain.NativeAsset()
	}
	return domain.FungibleAsset(common.HexToAddress(mint))
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
