package trading

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"PaperTrade/internal/codec"
	"PaperTrade/internal/derive"
	"PaperTrade/internal/executor"
	"PaperTrade/internal/reader"
)

// CompetitionData is the decoded competition account in display units.
type CompetitionData struct {
	Address           solana.PublicKey
	Authority         solana.PublicKey
	Name              string
	StartTime         time.Time
	EndTime           time.Time
	TotalParticipants uint64
	PrizePool         decimal.Decimal
	IsActive          bool
}

// JoinCompetition registers the session wallet in the active competition.
// Administrative instructions go straight to the base chain; the rollup
// does not settle competition records.
func (s *Session) JoinCompetition(ctx context.Context) (*executor.Result, error) {
	return s.competitionInstruction(ctx, "join_competition", codec.EncodeJoinCompetition())
}

// SettleCompetition finalizes standings. Only the competition authority's
// wallet can sign this successfully; the program rejects anyone else.
func (s *Session) SettleCompetition(ctx context.Context) (*executor.Result, error) {
	return s.competitionInstruction(ctx, "settle_competition", codec.EncodeSettleCompetition())
}

func (s *Session) competitionInstruction(ctx context.Context, op string, data []byte) (*executor.Result, error) {
	var res *executor.Result
	err := s.observe(op, func() error {
		compAddr, err := derive.Competition(s.program)
		if err != nil {
			return err
		}
		ix := solana.NewInstruction(s.program, solana.AccountMetaSlice{
			solana.Meta(compAddr).WRITE(),
			solana.Meta(s.Owner()).WRITE().SIGNER(),
			solana.Meta(solana.SystemProgramID),
		}, data)

		res, err = s.exec.Execute(ctx, executor.PathBase, []solana.Instruction{ix})
		s.recordOutcome(ctx, op, res, err)
		if err != nil {
			return err
		}
		s.log.Info().Str("signature", res.Signature.String()).Msg(op + " confirmed")
		return nil
	})
	return res, err
}

// FetchCompetitionData reads the competition account. found is false when
// no competition has been created.
func (s *Session) FetchCompetitionData(ctx context.Context) (*CompetitionData, bool, error) {
	addr, err := derive.Competition(s.program)
	if err != nil {
		return nil, false, err
	}
	rec, found, err := s.read.Competition(ctx)
	if err != nil || !found {
		return nil, found, err
	}
	return &CompetitionData{
		Address:           addr,
		Authority:         rec.Authority,
		Name:              rec.Name,
		StartTime:         rec.StartTime,
		EndTime:           rec.EndTime,
		TotalParticipants: rec.TotalParticipants,
		PrizePool:         codec.RawToQuote(rec.PrizePool),
		IsActive:          rec.IsActive,
	}, true, nil
}

// FetchLeaderboard ranks all trading accounts for a pair by quote balance.
func (s *Session) FetchLeaderboard(ctx context.Context, pair string) ([]reader.LeaderboardEntry, error) {
	pairIndex, err := s.pairIndex(pair)
	if err != nil {
		return nil, err
	}
	return s.read.Leaderboard(ctx, pairIndex)
}
