package codec

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Direction of a leveraged position.
type Direction uint8

const (
	DirectionLong  Direction = 0
	DirectionShort Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "long"
	case DirectionShort:
		return "short"
	default:
		return "unknown"
	}
}

// PositionStatus transitions Active -> Closed exactly once.
type PositionStatus uint8

const (
	PositionActive PositionStatus = 0
	PositionClosed PositionStatus = 1
)

func (s PositionStatus) String() string {
	switch s {
	case PositionActive:
		return "active"
	case PositionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Exact on-wire record sizes. Positions are located by exact-size scans, so
// these constants double as scan filters.
const (
	UserTradingAccountSize = 41
	PositionRecordSize     = 99
	CompetitionRecordMin   = 77
)

var (
	userAccountLayout = NewLayout("UserTradingAccount",
		Field{"pair_index", FieldU8},
		Field{"token_in_balance", FieldU64},
		Field{"token_out_balance", FieldU64},
		Field{"total_positions", FieldU64},
		Field{"created_at", FieldI64},
	)

	positionLayout = NewLayout("PositionRecord",
		Field{"owner", FieldPubkey},
		Field{"pair_index", FieldU8},
		Field{"position_id", FieldU64},
		Field{"direction", FieldU8},
		Field{"amount_token_out", FieldU64},
		Field{"entry_price", FieldU64},
		Field{"take_profit_price", FieldU64},
		Field{"stop_loss_price", FieldU64},
		Field{"status", FieldU8},
		Field{"opened_at", FieldI64},
		Field{"closed_at", FieldI64},
	)

	competitionLayout = NewLayout("CompetitionRecord",
		Field{"authority", FieldPubkey},
		Field{"start_time", FieldI64},
		Field{"end_time", FieldI64},
		Field{"total_participants", FieldU64},
		Field{"prize_pool", FieldU64},
		Field{"is_active", FieldU8},
		Field{"name", FieldString},
	)
)

// UserTradingAccount is the per-owner, per-pair balance record.
type UserTradingAccount struct {
	PairIndex       uint8
	TokenInBalance  uint64 // quote units, 6 decimals
	TokenOutBalance uint64 // base units, 9 decimals
	TotalPositions  uint64 // monotonic counter, next position id
	CreatedAt       time.Time
}

func DecodeUserTradingAccount(data []byte) (*UserTradingAccount, error) {
	vals, err := userAccountLayout.Decode(data)
	if err != nil {
		return nil, err
	}
	return &UserTradingAccount{
		PairIndex:       vals.U8("pair_index"),
		TokenInBalance:  vals.U64("token_in_balance"),
		TokenOutBalance: vals.U64("token_out_balance"),
		TotalPositions:  vals.U64("total_positions"),
		CreatedAt:       time.Unix(vals.I64("created_at"), 0).UTC(),
	}, nil
}

func (a *UserTradingAccount) Encode() ([]byte, error) {
	return userAccountLayout.Encode(NewValues().
		Set("pair_index", a.PairIndex).
		Set("token_in_balance", a.TokenInBalance).
		Set("token_out_balance", a.TokenOutBalance).
		Set("total_positions", a.TotalPositions).
		Set("created_at", a.CreatedAt.Unix()))
}

// PositionRecord is one leveraged position. PositionID is assigned from the
// owning account's TotalPositions counter at creation time.
type PositionRecord struct {
	Owner           solana.PublicKey
	PairIndex       uint8
	PositionID      uint64
	Direction       Direction
	AmountTokenOut  uint64 // base units, 9 decimals
	EntryPrice      uint64 // 6-decimal fixed point
	TakeProfitPrice uint64 // 0 = unset
	StopLossPrice   uint64 // 0 = unset
	Status          PositionStatus
	OpenedAt        time.Time
	ClosedAt        time.Time // zero value when still open
}

func DecodePositionRecord(data []byte) (*PositionRecord, error) {
	vals, err := positionLayout.Decode(data)
	if err != nil {
		return nil, err
	}
	rec := &PositionRecord{
		Owner:           vals.Pubkey("owner"),
		PairIndex:       vals.U8("pair_index"),
		PositionID:      vals.U64("position_id"),
		Direction:       Direction(vals.U8("direction")),
		AmountTokenOut:  vals.U64("amount_token_out"),
		EntryPrice:      vals.U64("entry_price"),
		TakeProfitPrice: vals.U64("take_profit_price"),
		StopLossPrice:   vals.U64("stop_loss_price"),
		Status:          PositionStatus(vals.U8("status")),
		OpenedAt:        time.Unix(vals.I64("opened_at"), 0).UTC(),
	}
	if closedAt := vals.I64("closed_at"); closedAt != 0 {
		rec.ClosedAt = time.Unix(closedAt, 0).UTC()
	}
	return rec, nil
}

func (p *PositionRecord) Encode() ([]byte, error) {
	closedAt := int64(0)
	if !p.ClosedAt.IsZero() {
		closedAt = p.ClosedAt.Unix()
	}
	return positionLayout.Encode(NewValues().
		Set("owner", p.Owner).
		Set("pair_index", p.PairIndex).
		Set("position_id", p.PositionID).
		Set("direction", uint8(p.Direction)).
		Set("amount_token_out", p.AmountTokenOut).
		Set("entry_price", p.EntryPrice).
		Set("take_profit_price", p.TakeProfitPrice).
		Set("stop_loss_price", p.StopLossPrice).
		Set("status", uint8(p.Status)).
		Set("opened_at", p.OpenedAt.Unix()).
		Set("closed_at", closedAt))
}

// CompetitionRecord holds the global competition metadata account.
type CompetitionRecord struct {
	Authority         solana.PublicKey
	StartTime         time.Time
	EndTime           time.Time
	TotalParticipants uint64
	PrizePool         uint64 // quote units, 6 decimals
	IsActive          bool
	Name              string
}

func DecodeCompetitionRecord(data []byte) (*CompetitionRecord, error) {
	vals, err := competitionLayout.Decode(data)
	if err != nil {
		return nil, err
	}
	return &CompetitionRecord{
		Authority:         vals.Pubkey("authority"),
		StartTime:         time.Unix(vals.I64("start_time"), 0).UTC(),
		EndTime:           time.Unix(vals.I64("end_time"), 0).UTC(),
		TotalParticipants: vals.U64("total_participants"),
		PrizePool:         vals.U64("prize_pool"),
		IsActive:          vals.Bool("is_active"),
		Name:              vals.String("name"),
	}, nil
}

func (c *CompetitionRecord) Encode() ([]byte, error) {
	active := uint8(0)
	if c.IsActive {
		active = 1
	}
	return competitionLayout.Encode(NewValues().
		Set("authority", c.Authority).
		Set("start_time", c.StartTime.Unix()).
		Set("end_time", c.EndTime.Unix()).
		Set("total_participants", c.TotalParticipants).
		Set("prize_pool", c.PrizePool).
		Set("is_active", active).
		Set("name", c.Name))
}
