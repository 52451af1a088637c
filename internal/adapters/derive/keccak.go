// Package derive computes the deterministic accounts that back a market.
package derive

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

var (
	marketSeed = []byte("market")
	vaultSeed  = []byte("vault")
)

// Keccak derives addresses as the low 20 bytes of Keccak256 over seed bytes,
// scoped by a program address so two deployments never collide.
type Keccak struct {
	program common.Address
}

// NewKeccak returns a Deriver scoped to program.
func NewKeccak(program common.Address) *Keccak {
	return &Keccak{program: program}
}

// MarketAddress = keccak("market" | id little-endian | program).
func (k *Keccak) MarketAddress(marketID uint64) domain.Address {
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], marketID)
	return common.BytesToAddress(crypto.Keccak256(marketSeed, id[:], k.program.Bytes()))
}

// VaultAddress is the market account itself for the native asset. Token
// custody lives in a separate account keyed by the market and the mint.
func (k *Keccak) VaultAddress(marketID uint64, asset domain.AssetKind) domain.Address {
	market := k.MarketAddress(marketID)
	mint, ok := asset.Mint()
	if !ok {
		return market
	}
	return common.BytesToAddress(crypto.Keccak256(vaultSeed, market.Bytes(), mint.Bytes(), k.program.Bytes()))
}

var _ ports.Deriver = (*Keccak)(nil)
