package codec

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Fixed-point scale factors. This package is the single source of truth:
// quote-currency amounts carry 6 decimals, base-asset amounts 9, prices 6.
// Every conversion between human units and raw on-chain integers goes
// through the helpers below.
const (
	QuoteDecimals int32 = 6
	BaseDecimals  int32 = 9
	PriceDecimals int32 = 6

	QuoteScale uint64 = 1_000_000
	BaseScale  uint64 = 1_000_000_000
	PriceScale uint64 = 1_000_000
)

var maxU64 = new(big.Int).SetUint64(^uint64(0))

// QuoteToRaw converts a human-unit quote amount to a raw 6-decimal integer.
func QuoteToRaw(d decimal.Decimal) (uint64, error) {
	return toRaw(d, QuoteDecimals, "quote")
}

// BaseToRaw converts a human-unit base-asset amount to a raw 9-decimal integer.
func BaseToRaw(d decimal.Decimal) (uint64, error) {
	return toRaw(d, BaseDecimals, "base")
}

// PriceToRaw converts a human-unit price to a raw 6-decimal integer.
func PriceToRaw(d decimal.Decimal) (uint64, error) {
	return toRaw(d, PriceDecimals, "price")
}

func toRaw(d decimal.Decimal, decimals int32, kind string) (uint64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%s amount must not be negative: %s", kind, d)
	}
	shifted := d.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%s amount %s exceeds %d decimal places", kind, d, decimals)
	}
	raw := shifted.BigInt()
	if raw.Cmp(maxU64) > 0 {
		return 0, fmt.Errorf("%s amount %s overflows u64", kind, d)
	}
	return raw.Uint64(), nil
}

// RawToQuote converts a raw 6-decimal integer back to human units.
func RawToQuote(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -QuoteDecimals)
}

// RawToBase converts a raw 9-decimal integer back to human units.
func RawToBase(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -BaseDecimals)
}

// RawToPrice converts a raw 6-decimal price back to human units.
func RawToPrice(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -PriceDecimals)
}

// BaseAmountForQuote computes the base-asset amount purchasable with sizeRaw
// quote units at priceRaw: floor(size * BaseScale / price). Intermediates use
// big.Int; size * 1e9 overflows u64 for routine trade sizes.
func BaseAmountForQuote(sizeRaw, priceRaw uint64) (uint64, error) {
	if priceRaw == 0 {
		return 0, fmt.Errorf("price must be > 0")
	}
	return mulDiv(sizeRaw, BaseScale, priceRaw, false)
}

// QuoteCostForBase computes the quote cost of amountRaw base units at
// priceRaw: ceil(amount * price / BaseScale). Rounds up so affordability
// checks never understate the cost.
func QuoteCostForBase(amountRaw, priceRaw uint64) (uint64, error) {
	return mulDiv(amountRaw, priceRaw, BaseScale, true)
}

// QuoteProceedsForBase computes the quote proceeds of selling amountRaw base
// units at priceRaw: floor(amount * price / BaseScale).
func QuoteProceedsForBase(amountRaw, priceRaw uint64) (uint64, error) {
	return mulDiv(amountRaw, priceRaw, BaseScale, false)
}

func mulDiv(a, b, denominator uint64, ceil bool) (uint64, error) {
	if denominator == 0 {
		return 0, fmt.Errorf("division by zero")
	}
	num := new(big.Int).SetUint64(a)
	num.Mul(num, new(big.Int).SetUint64(b))
	denom := new(big.Int).SetUint64(denominator)
	if ceil {
		num.Add(num, new(big.Int).Sub(denom, big.NewInt(1)))
	}
	num.Div(num, denom)
	if !num.IsUint64() {
		return 0, fmt.Errorf("fixed-point overflow: %d * %d / %d", a, b, denominator)
	}
	return num.Uint64(), nil
}
