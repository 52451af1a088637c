package ports

import "github.com/alejandrodnm/parimutuel/internal/domain"

// Deriver computes stable account addresses from a market identifier.
type Deriver interface {
	MarketAddress(marketID uint64) domain.Address
	VaultAddress(marketID uint64, asset domain.AssetKind) domain.Address
}
