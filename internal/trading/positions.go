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

// OpenPositionParams describe one leveraged position. Size is the quote
// margin committed; TakeProfit and StopLoss are optional trigger prices.
type OpenPositionParams struct {
	Pair       string
	Direction  codec.Direction
	Price      decimal.Decimal
	Size       decimal.Decimal
	TakeProfit *decimal.Decimal
	StopLoss   *decimal.Decimal
}

// OpenPosition validates balances, derives the next position address from
// the live position counter, and submits on the rollup with a single
// base-chain fallback. The counter read happens immediately before address
// derivation; a stale counter would derive an address that collides with an
// existing position.
func (s *Session) OpenPosition(ctx context.Context, p OpenPositionParams) (*executor.Result, error) {
	var res *executor.Result
	err := s.observe("open_position", func() error {
		pairIndex, err := s.pairIndex(p.Pair)
		if err != nil {
			s.rejection("open_position", "unknown_pair")
			return err
		}

		priceRaw, err := codec.PriceToRaw(p.Price)
		if err != nil {
			return fmt.Errorf("price: %w", err)
		}
		marginRaw, err := codec.QuoteToRaw(p.Size)
		if err != nil {
			return fmt.Errorf("size: %w", err)
		}
		amountBase, err := codec.BaseAmountForQuote(marginRaw, priceRaw)
		if err != nil {
			return fmt.Errorf("position amount: %w", err)
		}

		var tpRaw, slRaw uint64
		if p.TakeProfit != nil {
			if tpRaw, err = codec.PriceToRaw(*p.TakeProfit); err != nil {
				return fmt.Errorf("take profit: %w", err)
			}
		}
		if p.StopLoss != nil {
			if slRaw, err = codec.PriceToRaw(*p.StopLoss); err != nil {
				return fmt.Errorf("stop loss: %w", err)
			}
		}

		acct, found, err := s.read.UserAccount(ctx, s.Owner(), pairIndex)
		if err != nil {
			return err
		}
		if !found {
			s.rejection("open_position", "not_initialized")
			return validate.ErrAccountNotInitialized
		}
		if err := validate.PositionOpen(acct, marginRaw, amountBase); err != nil {
			s.rejection("open_position", "insufficient_balance")
			return err
		}

		userAddr, err := derive.UserTradingAccount(s.program, s.Owner(), pairIndex)
		if err != nil {
			return err
		}
		positionAddr, err := derive.Position(s.program, s.Owner(), pairIndex, acct.TotalPositions)
		if err != nil {
			return err
		}

		data := codec.EncodeOpenPosition(codec.OpenPositionArgs{
			PairIndex:       pairIndex,
			Direction:       p.Direction,
			AmountTokenOut:  amountBase,
			EntryPrice:      priceRaw,
			TakeProfitPrice: tpRaw,
			StopLossPrice:   slRaw,
		})
		ix := solana.NewInstruction(s.program, solana.AccountMetaSlice{
			solana.Meta(positionAddr).WRITE(),
			solana.Meta(userAddr).WRITE(),
			solana.Meta(s.Owner()).WRITE().SIGNER(),
			solana.Meta(solana.SystemProgramID),
		}, data)

		res, err = s.exec.ExecuteWithFallback(ctx, []solana.Instruction{ix})
		s.recordOutcome(ctx, "open_position", res, err)
		if err != nil {
			return err
		}
		s.log.Info().
			Str("pair", p.Pair).
			Str("direction", p.Direction.String()).
			Str("position", positionAddr.String()).
			Str("signature", res.Signature.String()).
			Str("path", string(res.Path)).
			Msg("position opened")
		return nil
	})
	return res, err
}

// ClosePosition closes the owner's position identified by pair and position
// id at the given price.
func (s *Session) ClosePosition(ctx context.Context, pair string, positionID uint64, price decimal.Decimal) (*executor.Result, error) {
	pairIndex, err := s.pairIndex(pair)
	if err != nil {
		return nil, err
	}
	addr, err := derive.Position(s.program, s.Owner(), pairIndex, positionID)
	if err != nil {
		return nil, err
	}
	return s.CloseDirectPosition(ctx, addr, price)
}

// CloseDirectPosition closes the position at a known address. No fallback:
// a failed close is surfaced directly because the record's status may have
// changed between read and submit.
func (s *Session) CloseDirectPosition(ctx context.Context, addr solana.PublicKey, price decimal.Decimal) (*executor.Result, error) {
	var res *executor.Result
	err := s.observe("close_position", func() error {
		priceRaw, err := codec.PriceToRaw(price)
		if err != nil {
			return fmt.Errorf("close price: %w", err)
		}

		rec, found, err := s.read.PositionByAddress(ctx, addr)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("position %s: %w", addr, validate.ErrPositionClosed)
		}
		if err := validate.PositionClosable(rec); err != nil {
			s.rejection("close_position", "already_closed")
			return err
		}

		userAddr, err := derive.UserTradingAccount(s.program, rec.Owner, rec.PairIndex)
		if err != nil {
			return err
		}

		ix := solana.NewInstruction(s.program, solana.AccountMetaSlice{
			solana.Meta(addr).WRITE(),
			solana.Meta(userAddr).WRITE(),
			solana.Meta(s.Owner()).WRITE().SIGNER(),
		}, codec.EncodeClosePosition(priceRaw))

		res, err = s.exec.Execute(ctx, executor.PathRollup, []solana.Instruction{ix})
		s.recordOutcome(ctx, "close_position", res, err)
		if err != nil {
			return err
		}
		s.log.Info().
			Str("position", addr.String()).
			Str("signature", res.Signature.String()).
			Msg("position closed")
		return nil
	})
	return res, err
}

// Positions lists the owner's position records, open and closed.
func (s *Session) Positions(ctx context.Context) ([]PositionInfo, error) {
	raw, err := s.read.Positions(ctx, s.Owner())
	if err != nil {
		return nil, err
	}
	out := make([]PositionInfo, 0, len(raw))
	for _, p := range raw {
		out = append(out, newPositionInfo(p))
	}
	return out, nil
}

func (s *Session) rejection(op, reason string) {
	if s.mx != nil {
		s.mx.ValidationRejections.WithLabelValues(op, reason).Inc()
	}
}
