package trading

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"PaperTrade/internal/codec"
	"PaperTrade/internal/derive"
	"PaperTrade/internal/executor"
	"PaperTrade/internal/reader"
)

// AccountData is a trading account in display units.
type AccountData struct {
	Address         solana.PublicKey
	PairIndex       uint8
	TokenInBalance  decimal.Decimal
	TokenOutBalance decimal.Decimal
	TotalPositions  uint64
	CreatedAt       time.Time
}

// PositionInfo is a position record in display units.
type PositionInfo struct {
	Address    solana.PublicKey
	PairIndex  uint8
	PositionID uint64
	Direction  codec.Direction
	Amount     decimal.Decimal
	EntryPrice decimal.Decimal
	TakeProfit *decimal.Decimal
	StopLoss   *decimal.Decimal
	Status     codec.PositionStatus
	OpenedAt   time.Time
	ClosedAt   time.Time
}

func newPositionInfo(p reader.Position) PositionInfo {
	info := PositionInfo{
		Address:    p.Address,
		PairIndex:  p.Record.PairIndex,
		PositionID: p.Record.PositionID,
		Direction:  p.Record.Direction,
		Amount:     codec.RawToBase(p.Record.AmountTokenOut),
		EntryPrice: codec.RawToPrice(p.Record.EntryPrice),
		Status:     p.Record.Status,
		OpenedAt:   p.Record.OpenedAt,
		ClosedAt:   p.Record.ClosedAt,
	}
	if p.Record.TakeProfitPrice != 0 {
		tp := codec.RawToPrice(p.Record.TakeProfitPrice)
		info.TakeProfit = &tp
	}
	if p.Record.StopLossPrice != 0 {
		sl := codec.RawToPrice(p.Record.StopLossPrice)
		info.StopLoss = &sl
	}
	return info
}

// InitializeAccount creates the owner's trading account for a pair with the
// given starting quote balance. If the account already exists the call is a
// no-op: created is false and no transaction is submitted. Account creation
// always runs on the base chain.
func (s *Session) InitializeAccount(ctx context.Context, pair string, fee, initialBalance decimal.Decimal) (res *executor.Result, created bool, err error) {
	err = s.observe("initialize_account", func() error {
		pairIndex, err := s.pairIndex(pair)
		if err != nil {
			s.rejection("initialize_account", "unknown_pair")
			return err
		}
		feeRaw, err := codec.QuoteToRaw(fee)
		if err != nil {
			return fmt.Errorf("fee: %w", err)
		}
		balanceRaw, err := codec.QuoteToRaw(initialBalance)
		if err != nil {
			return fmt.Errorf("initial balance: %w", err)
		}

		_, found, err := s.read.UserAccount(ctx, s.Owner(), pairIndex)
		if err != nil {
			return err
		}
		if found {
			s.log.Debug().Str("pair", pair).Msg("trading account already initialized")
			return nil
		}

		userAddr, err := derive.UserTradingAccount(s.program, s.Owner(), pairIndex)
		if err != nil {
			return err
		}
		data := codec.EncodeInitializeUser(codec.InitializeUserArgs{
			PairIndex:      pairIndex,
			Fee:            feeRaw,
			InitialBalance: balanceRaw,
		})
		ix := solana.NewInstruction(s.program, solana.AccountMetaSlice{
			solana.Meta(userAddr).WRITE(),
			solana.Meta(s.Owner()).WRITE().SIGNER(),
			solana.Meta(solana.SystemProgramID),
		}, data)

		res, err = s.exec.Execute(ctx, executor.PathBase, []solana.Instruction{ix})
		s.recordOutcome(ctx, "initialize_account", res, err)
		if err != nil {
			return err
		}
		created = true
		s.log.Info().
			Str("pair", pair).
			Str("account", userAddr.String()).
			Str("signature", res.Signature.String()).
			Msg("trading account initialized")
		return nil
	})
	return res, created, err
}

// AccountStatus reports, for every configured pair, whether the owner's
// trading account exists.
func (s *Session) AccountStatus(ctx context.Context) (map[uint8]bool, error) {
	status := make(map[uint8]bool, len(s.pairs))
	for _, idx := range s.pairs {
		_, found, err := s.read.UserAccount(ctx, s.Owner(), idx)
		if err != nil {
			return nil, err
		}
		status[idx] = found
	}
	return status, nil
}

// UserAccountData reads the owner's trading account for a pair.
func (s *Session) UserAccountData(ctx context.Context, pair string) (*AccountData, bool, error) {
	pairIndex, err := s.pairIndex(pair)
	if err != nil {
		return nil, false, err
	}
	acct, found, err := s.read.UserAccount(ctx, s.Owner(), pairIndex)
	if err != nil || !found {
		return nil, found, err
	}
	addr, err := derive.UserTradingAccount(s.program, s.Owner(), pairIndex)
	if err != nil {
		return nil, false, err
	}
	return &AccountData{
		Address:         addr,
		PairIndex:       acct.PairIndex,
		TokenInBalance:  codec.RawToQuote(acct.TokenInBalance),
		TokenOutBalance: codec.RawToBase(acct.TokenOutBalance),
		TotalPositions:  acct.TotalPositions,
		CreatedAt:       acct.CreatedAt,
	}, true, nil
}

// Balance is the wallet's native balance in lamports on the base chain.
func (s *Session) Balance(ctx context.Context) (uint64, error) {
	return s.base.Balance(ctx, s.Owner())
}

// FundAccount requests an airdrop of lamports on the base chain and polls
// until the balance increase is visible or the attempt budget runs out.
// Test and devnet utility only; production chains reject airdrops.
func (s *Session) FundAccount(ctx context.Context, lamports uint64) error {
	before, err := s.base.Balance(ctx, s.Owner())
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if _, err := s.base.RequestAirdrop(ctx, s.Owner(), lamports); err != nil {
		return fmt.Errorf("request airdrop: %w", err)
	}

	const attempts = 30
	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
		after, err := s.base.Balance(ctx, s.Owner())
		if err != nil {
			continue
		}
		if after > before {
			s.log.Info().Uint64("lamports", after-before).Msg("airdrop credited")
			return nil
		}
	}
	return fmt.Errorf("airdrop of %d lamports not visible after %d polls", lamports, attempts)
}
