package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address identifies an account on the hosting ledger: authorities, bettors,
// fee recipients, token mints and the derived market/vault accounts.
type Address = common.Address

const (
	nativeAssetKey = "native"
	fungiblePrefix = "fungible:"
)

// AssetKind is the value a market escrows: the ledger's native unit or a
// fungible token identified by its mint. The zero value is the native asset.
type AssetKind struct {
	fungible bool
	mint     Address
}

// NativeAsset returns the native unit-of-value variant.
func NativeAsset() AssetKind {
	return AssetKind{}
}

// FungibleAsset returns the token variant for mint.
func FungibleAsset(mint Address) AssetKind {
	return AssetKind{fungible: true, mint: mint}
}

// IsNative reports whether the asset is the native unit.
func (a AssetKind) IsNative() bool {
	return !a.fungible
}

// Mint returns the token mint and true for fungible assets.
func (a AssetKind) Mint() (Address, bool) {
	return a.mint, a.fungible
}

// Validate rejects a fungible asset without a mint.
func (a AssetKind) Validate() error {
	if a.fungible && a.mint == (Address{}) {
		return ErrInvalidMint
	}
	return nil
}

// Key is the stable encoding used by storage and the ledger.
func (a AssetKind) Key() string {
	if !a.fungible {
		return nativeAssetKey
	}
	return fungiblePrefix + a.mint.Hex()
}

func (a AssetKind) String() string {
	return a.Key()
}

// ParseAssetKey is the inverse of Key.
func ParseAssetKey(s string) (AssetKind, error) {
	if s == nativeAssetKey || s == "" {
		return NativeAsset(), nil
	}
	hex, ok := strings.CutPrefix(s, fungiblePrefix)
	if !ok || !common.IsHexAddress(hex) {
		return AssetKind{}, fmt.Errorf("domain.ParseAssetKey: %q: %w", s, ErrInvalidMint)
	}
	asset := FungibleAsset(common.HexToAddress(hex))
	return asset, asset.Validate()
}
