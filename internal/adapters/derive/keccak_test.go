package derive_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/alejandrodnm/parimutuel/internal/adapters/derive"
	"github.com/alejandrodnm/parimutuel/internal/domain"
)

var (
	program = common.HexToAddress("0x71000000000000000000000000000000000000aa")
	mint    = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func TestKeccak_Deterministic(t *testing.T) {
	a := derive.NewKeccak(program)
	b := derive.NewKeccak(program)

	assert.Equal(t, a.MarketAddress(7), b.MarketAddress(7))
	assert.NotEqual(t, a.MarketAddress(7), a.MarketAddress(8))
	assert.NotEqual(t, common.Address{}, a.MarketAddress(0))
}

func TestKeccak_ScopedByProgram(t *testing.T) {
	other := derive.NewKeccak(common.HexToAddress("0x01"))
	assert.NotEqual(t, derive.NewKeccak(program).MarketAddress(1), other.MarketAddress(1))
}

func TestKeccak_VaultAddress(t *testing.T) {
	d := derive.NewKeccak(program)

	assert.Equal(t, d.MarketAddress(3), d.VaultAddress(3, domain.NativeAsset()))

	token := d.VaultAddress(3, domain.FungibleAsset(mint))
	assert.NotEqual(t, d.MarketAddress(3), token)
	assert.Equal(t, token, d.VaultAddress(3, domain.FungibleAsset(mint)))
	assert.NotEqual(t, token, d.VaultAddress(3, domain.FungibleAsset(program)))
}
