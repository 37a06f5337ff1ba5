// Package validate checks the economic preconditions of a trade against
// freshly read account state. A violation aborts the operation before any
// instruction is built, so no fee-bearing submission is spent on a
// transaction the program is guaranteed to reject.
package validate

import (
	"errors"
	"fmt"

	"PaperTrade/internal/codec"
)

// MarginToleranceRaw is 0.01 quote units. It absorbs fixed-point rounding
// from the price/size division when sizing a position's margin. It applies
// only to the position-open margin comparison; spot checks are strict.
const MarginToleranceRaw uint64 = 10_000

var (
	ErrAccountNotInitialized = errors.New("trading account not initialized")
	ErrPositionClosed        = errors.New("position already closed")
)

// InsufficientBalanceError carries the computed required and available raw
// amounts so callers can surface them verbatim.
type InsufficientBalanceError struct {
	Asset     string // "quote" or "base"
	Required  uint64
	Available uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: required %s, available %s",
		e.Asset, e.human(e.Required), e.human(e.Available))
}

func (e *InsufficientBalanceError) human(raw uint64) string {
	if e.Asset == "base" {
		return codec.RawToBase(raw).String()
	}
	return codec.RawToQuote(raw).String()
}

// UnknownPairError reports a trading-pair symbol outside the registry.
type UnknownPairError struct {
	Pair string
}

func (e *UnknownPairError) Error() string {
	return fmt.Sprintf("unknown trading pair %q", e.Pair)
}

// SpotBuy requires the quote cost to fit within the account's quote
// balance. The boundary is inclusive: cost == balance is accepted.
func SpotBuy(acct *codec.UserTradingAccount, requiredQuote uint64) error {
	if acct == nil {
		return ErrAccountNotInitialized
	}
	if requiredQuote > acct.TokenInBalance {
		return &InsufficientBalanceError{
			Asset:     "quote",
			Required:  requiredQuote,
			Available: acct.TokenInBalance,
		}
	}
	return nil
}

// SpotSell requires the base amount to fit within the account's base
// inventory.
func SpotSell(acct *codec.UserTradingAccount, requiredBase uint64) error {
	if acct == nil {
		return ErrAccountNotInitialized
	}
	if requiredBase > acct.TokenOutBalance {
		return &InsufficientBalanceError{
			Asset:     "base",
			Required:  requiredBase,
			Available: acct.TokenOutBalance,
		}
	}
	return nil
}

// PositionOpen requires the position's base amount to fit within the base
// inventory and its margin to fit within the quote balance plus the
// rounding tolerance. The tolerance widens only the margin comparison,
// never the balance mutation itself.
func PositionOpen(acct *codec.UserTradingAccount, marginQuote, amountBase uint64) error {
	if acct == nil {
		return ErrAccountNotInitialized
	}
	if amountBase > acct.TokenOutBalance {
		return &InsufficientBalanceError{
			Asset:     "base",
			Required:  amountBase,
			Available: acct.TokenOutBalance,
		}
	}
	if marginQuote > acct.TokenInBalance+MarginToleranceRaw {
		return &InsufficientBalanceError{
			Asset:     "quote",
			Required:  marginQuote,
			Available: acct.TokenInBalance,
		}
	}
	return nil
}

// PositionClosable rejects a second close of the same position.
func PositionClosable(rec *codec.PositionRecord) error {
	if rec.Status == codec.PositionClosed {
		return ErrPositionClosed
	}
	return nil
}
