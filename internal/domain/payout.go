package domain

import "github.com/holiman/uint256"

// Payout is the result of settling one position.
type Payout struct {
	Amount       uint64 // transferred to the owner
	Fee          uint64 // withheld for FeeRecipient
	DeveloperFee uint64 // withheld for DeveloperFeeRecipient
	Won          bool
}

// ComputePayout applies the pari-mutuel split to p on a resolved market.
//
//	fee    = floor(stake * fee_bps / 10000)
//	devFee = floor(stake * dev_fee_bps / 10000)
//	net    = stake - fee - devFee
//	payout = net + floor(net * losing / winning)
//
// winning is the raw stake total of the winning side, not its net total.
func ComputePayout(m Market, p Position) (Payout, error) {
	if !m.IsResolved() {
		return Payout{}, ErrEventNotSettled
	}
	if !p.Won(m.Outcome) {
		return Payout{}, nil
	}

	winning, losing := m.Pools(m.Outcome)
	if winning.IsZero() {
		return Payout{Won: true}, nil
	}

	stake := uint256.NewInt(p.Amount)
	fee := bpsOf(stake, m.FeeBps)
	devFee := bpsOf(stake, m.DeveloperFeeBps)

	withheld := new(uint256.Int).Add(fee, devFee)
	if withheld.Gt(stake) {
		return Payout{}, ErrInvalidFee
	}
	net := new(uint256.Int).Sub(stake, withheld)

	// net < 2^64 and losing < 2^128, so the product stays well inside 256 bits.
	bonus := new(uint256.Int).Mul(net, &losing)
	bonus.Div(bonus, &winning)

	total, overflow := new(uint256.Int).AddOverflow(net, bonus)
	if overflow || !total.IsUint64() {
		return Payout{}, ErrOverflow
	}
	return Payout{
		Amount:       total.Uint64(),
		Fee:          fee.Uint64(),
		DeveloperFee: devFee.Uint64(),
		Won:          true,
	}, nil
}

func bpsOf(amount *uint256.Int, bps uint32) *uint256.Int {
	out := new(uint256.Int).Mul(amount, uint256.NewInt(uint64(bps)))
	return out.Div(out, uint256.NewInt(MaxBps))
}
