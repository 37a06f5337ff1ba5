// Package reader fetches and decodes current on-chain state before an
// operation is validated or built. Absence of an account is a normal
// outcome, distinct from network failure.
package reader

import (
	"context"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"PaperTrade/internal/chain"
	"PaperTrade/internal/codec"
	"PaperTrade/internal/derive"
	"PaperTrade/internal/observability"
)

// Reader reads program state via one network path. Reads are only as fresh
// as the path's configured commitment level; no cross-account atomicity.
type Reader struct {
	net     chain.Network
	program solana.PublicKey
	log     zerolog.Logger
	metrics *observability.Metrics
}

func New(net chain.Network, program solana.PublicKey, log zerolog.Logger, metrics *observability.Metrics) *Reader {
	return &Reader{
		net:     net,
		program: program,
		log:     log,
		metrics: metrics,
	}
}

// Position is a decoded position record together with its address.
type Position struct {
	Address solana.PublicKey
	Record  codec.PositionRecord
}

// LeaderboardEntry is one row of the competition standings, keyed by the
// trading account address (the account record carries no owner field).
type LeaderboardEntry struct {
	Account         solana.PublicKey
	PairIndex       uint8
	TokenInBalance  uint64
	TokenOutBalance uint64
	TotalPositions  uint64
}

// UserAccount reads the owner's trading account for a pair. found is false
// when the account has not been initialized yet; that is not an error.
func (r *Reader) UserAccount(ctx context.Context, owner solana.PublicKey, pairIndex uint8) (*codec.UserTradingAccount, bool, error) {
	addr, err := derive.UserTradingAccount(r.program, owner, pairIndex)
	if err != nil {
		return nil, false, err
	}
	if r.metrics != nil {
		r.metrics.AccountReads.WithLabelValues("user_trading_account").Inc()
	}
	data, found, err := r.net.AccountData(ctx, addr)
	if err != nil {
		return nil, false, fmt.Errorf("read user account %s: %w", addr, err)
	}
	if !found {
		return nil, false, nil
	}
	acct, err := codec.DecodeUserTradingAccount(data)
	if err != nil {
		if r.metrics != nil {
			r.metrics.DecodeErrors.WithLabelValues("user_trading_account").Inc()
		}
		return nil, false, fmt.Errorf("decode user account %s: %w", addr, err)
	}
	return acct, true, nil
}

// Competition reads the global competition account.
func (r *Reader) Competition(ctx context.Context) (*codec.CompetitionRecord, bool, error) {
	addr, err := derive.Competition(r.program)
	if err != nil {
		return nil, false, err
	}
	if r.metrics != nil {
		r.metrics.AccountReads.WithLabelValues("competition").Inc()
	}
	data, found, err := r.net.AccountData(ctx, addr)
	if err != nil {
		return nil, false, fmt.Errorf("read competition %s: %w", addr, err)
	}
	if !found {
		return nil, false, nil
	}
	rec, err := codec.DecodeCompetitionRecord(data)
	if err != nil {
		if r.metrics != nil {
			r.metrics.DecodeErrors.WithLabelValues("competition").Inc()
		}
		return nil, false, fmt.Errorf("decode competition %s: %w", addr, err)
	}
	return rec, true, nil
}

// PositionByAddress reads and decodes one position record.
func (r *Reader) PositionByAddress(ctx context.Context, addr solana.PublicKey) (*codec.PositionRecord, bool, error) {
	if r.metrics != nil {
		r.metrics.AccountReads.WithLabelValues("position").Inc()
	}
	data, found, err := r.net.AccountData(ctx, addr)
	if err != nil {
		return nil, false, fmt.Errorf("read position %s: %w", addr, err)
	}
	if !found {
		return nil, false, nil
	}
	rec, err := codec.DecodePositionRecord(data)
	if err != nil {
		if r.metrics != nil {
			r.metrics.DecodeErrors.WithLabelValues("position").Inc()
		}
		return nil, false, fmt.Errorf("decode position %s: %w", addr, err)
	}
	return rec, true, nil
}

// Positions scans the whole program account table, keeps records whose byte
// length matches the position layout exactly, then filters by decoded owner.
// Linear in total program accounts, acceptable at competition scale, and
// the scalability ceiling of this design: the program offers no owner index.
func (r *Reader) Positions(ctx context.Context, owner solana.PublicKey) ([]Position, error) {
	accounts, err := r.scan(ctx, codec.PositionRecordSize)
	if err != nil {
		return nil, fmt.Errorf("scan positions: %w", err)
	}

	positions := make([]Position, 0, 8)
	for _, item := range accounts {
		rec, err := codec.DecodePositionRecord(item.Data)
		if err != nil {
			// Size matched but the discriminator did not: some other record
			// type happens to share the byte length. Skip, don't fail the scan.
			r.log.Debug().Str("account", item.Pubkey.String()).Err(err).Msg("skipping non-position account")
			continue
		}
		if !rec.Owner.Equals(owner) {
			continue
		}
		positions = append(positions, Position{Address: item.Pubkey, Record: *rec})
	}

	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Record.PairIndex != positions[j].Record.PairIndex {
			return positions[i].Record.PairIndex < positions[j].Record.PairIndex
		}
		return positions[i].Record.PositionID < positions[j].Record.PositionID
	})
	return positions, nil
}

// Leaderboard scans all trading accounts for a pair and ranks them by quote
// balance, descending.
func (r *Reader) Leaderboard(ctx context.Context, pairIndex uint8) ([]LeaderboardEntry, error) {
	accounts, err := r.scan(ctx, codec.UserTradingAccountSize)
	if err != nil {
		return nil, fmt.Errorf("scan trading accounts: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(accounts))
	for _, item := range accounts {
		acct, err := codec.DecodeUserTradingAccount(item.Data)
		if err != nil {
			r.log.Debug().Str("account", item.Pubkey.String()).Err(err).Msg("skipping non-account record")
			continue
		}
		if acct.PairIndex != pairIndex {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Account:         item.Pubkey,
			PairIndex:       acct.PairIndex,
			TokenInBalance:  acct.TokenInBalance,
			TokenOutBalance: acct.TokenOutBalance,
			TotalPositions:  acct.TotalPositions,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TokenInBalance != entries[j].TokenInBalance {
			return entries[i].TokenInBalance > entries[j].TokenInBalance
		}
		return entries[i].Account.String() < entries[j].Account.String()
	})
	return entries, nil
}

func (r *Reader) scan(ctx context.Context, dataSize uint64) ([]chain.KeyedAccount, error) {
	if r.metrics != nil {
		r.metrics.ProgramScans.Inc()
	}
	accounts, err := r.net.ProgramAccounts(ctx, r.program, dataSize)
	if err != nil {
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.ScannedATotal.Add(float64(len(accounts)))
	}
	return accounts, nil
}
