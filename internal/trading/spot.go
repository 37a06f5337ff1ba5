package trading

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"PaperTrade/internal/codec"
	"PaperTrade/internal/derive"
	"PaperTrade/internal/executor"
	"PaperTrade/internal/validate"
)

// TradeSide distinguishes the two spot operations.
type TradeSide uint8

const (
	SideBuy TradeSide = iota
	SideSell
)

func (t TradeSide) String() string {
	if t == SideSell {
		return "sell"
	}
	return "buy"
}

// SpotTradeParams describe one spot trade. Amount is the base-asset
// quantity; Price is the quote price per unit.
type SpotTradeParams struct {
	Pair   string
	Side   TradeSide
	Amount decimal.Decimal
	Price  decimal.Decimal
}

// BuySpot buys Amount of the base asset at Price.
func (s *Session) BuySpot(ctx context.Context, pair string, amount, price decimal.Decimal) (*executor.Result, error) {
	return s.ExecuteSpotTrade(ctx, SpotTradeParams{Pair: pair, Side: SideBuy, Amount: amount, Price: price})
}

// SellSpot sells Amount of the base asset at Price.
func (s *Session) SellSpot(ctx context.Context, pair string, amount, price decimal.Decimal) (*executor.Result, error) {
	return s.ExecuteSpotTrade(ctx, SpotTradeParams{Pair: pair, Side: SideSell, Amount: amount, Price: price})
}

// ExecuteSpotTrade validates the relevant balance and submits the trade on
// the rollup. Spot trades never fall back: a second submission could land
// against balances the first one already moved.
func (s *Session) ExecuteSpotTrade(ctx context.Context, p SpotTradeParams) (*executor.Result, error) {
	op := "spot_" + p.Side.String()
	var res *executor.Result
	err := s.observe(op, func() error {
		pairIndex, err := s.pairIndex(p.Pair)
		if err != nil {
			s.rejection(op, "unknown_pair")
			return err
		}

		priceRaw, err := codec.PriceToRaw(p.Price)
		if err != nil {
			return fmt.Errorf("price: %w", err)
		}
		amountRaw, err := codec.BaseToRaw(p.Amount)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}

		acct, found, err := s.read.UserAccount(ctx, s.Owner(), pairIndex)
		if err != nil {
			return err
		}
		if !found {
			s.rejection(op, "not_initialized")
			return validate.ErrAccountNotInitialized
		}

		if p.Side == SideBuy {
			// Cost rounds up so the buyer can never owe more than validated.
			cost, err := codec.QuoteCostForBase(amountRaw, priceRaw)
			if err != nil {
				return fmt.Errorf("trade cost: %w", err)
			}
			if err := validate.SpotBuy(acct, cost); err != nil {
				s.rejection(op, "insufficient_balance")
				return err
			}
		} else {
			if err := validate.SpotSell(acct, amountRaw); err != nil {
				s.rejection(op, "insufficient_balance")
				return err
			}
		}

		userAddr, err := derive.UserTradingAccount(s.program, s.Owner(), pairIndex)
		if err != nil {
			return err
		}

		args := codec.SpotTradeArgs{PairIndex: pairIndex, AmountTokenOut: amountRaw, Price: priceRaw}
		var data []byte
		if p.Side == SideBuy {
			data = codec.EncodeBuyToken(args)
		} else {
			data = codec.EncodeSellToken(args)
		}

		ix := solana.NewInstruction(s.program, solana.AccountMetaSlice{
			solana.Meta(userAddr).WRITE(),
			solana.Meta(s.Owner()).WRITE().SIGNER(),
		}, data)

		res, err = s.exec.Execute(ctx, executor.PathRollup, []solana.Instruction{ix})
		s.recordOutcome(ctx, op, res, err)
		if err != nil {
			return err
		}
		s.log.Info().
			Str("pair", p.Pair).
			Str("side", p.Side.String()).
			Str("signature", res.Signature.String()).
			Msg("spot trade confirmed")
		return nil
	})
	return res, err
}
