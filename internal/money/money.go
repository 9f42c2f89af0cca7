// Package money holds the pure decimal arithmetic for amounts: parsing,
// rounding to the ledger's two fraction digits, and the even-split helper
// used to build allocations.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of fraction digits every ledger amount carries.
const Places = 2

// Round normalizes an amount to two fraction digits, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Parse converts a string amount (e.g. "12.50", "-3") to a decimal, rejecting
// anything with more than two fraction digits.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -Places {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d fraction digits", s, Places)
	}
	return d, nil
}

// Sum adds a list of amounts.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// SplitEvenly divides total into n shares of two fraction digits that sum
// exactly to total. When the division leaves a residue, the whole residue is
// assigned to the first share, so the result is deterministic in input
// order.
func SplitEvenly(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cannot split among %d shares", n)
	}
	base := Round(total.Div(decimal.NewFromInt(int64(n))))
	shares := make([]decimal.Decimal, n)
	for i := range shares {
		shares[i] = base
	}
	residue := total.Sub(base.Mul(decimal.NewFromInt(int64(n))))
	shares[0] = shares[0].Add(residue)
	return shares, nil
}
