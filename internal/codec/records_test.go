package codec_test

import (
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"PaperTrade/internal/codec"
)

// ============================================================================
// Test: account record round trips
// ============================================================================

func TestUserTradingAccount_RoundTrip(t *testing.T) {
	in := codec.UserTradingAccount{
		PairIndex:       2,
		TokenInBalance:  1_000_000_000,
		TokenOutBalance: 2_518_891_687,
		TotalPositions:  7,
		CreatedAt:       time.Unix(1_756_200_000, 0).UTC(),
	}
	data, err := in.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != codec.UserTradingAccountSize {
		t.Fatalf("encoded size %d, want %d", len(data), codec.UserTradingAccountSize)
	}
	out, err := codec.DecodeUserTradingAccount(data)
	if err != nil {
		t.Fatal(err)
	}
	if *out != in {
		t.Errorf("round trip mismatch: got %+v, want %+v", *out, in)
	}
}

func TestUserTradingAccount_BoundaryValues(t *testing.T) {
	max := ^uint64(0)
	in := codec.UserTradingAccount{
		PairIndex:       0,
		TokenInBalance:  max,
		TokenOutBalance: 0,
		TotalPositions:  max,
		CreatedAt:       time.Unix(0, 0).UTC(),
	}
	data, err := in.Encode()
	if err != nil {
		t.Fatal(err)
	}
	out, err := codec.DecodeUserTradingAccount(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.TokenInBalance != max || out.TotalPositions != max {
		t.Errorf("max-u64 fields not preserved: %+v", out)
	}
}

func TestPositionRecord_RoundTrip(t *testing.T) {
	owner := solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	in := codec.PositionRecord{
		Owner:           owner,
		PairIndex:       0,
		PositionID:      3,
		Direction:       codec.DirectionShort,
		AmountTokenOut:  2_518_891_687,
		EntryPrice:      198_500_000,
		TakeProfitPrice: 210_000_000,
		StopLossPrice:   190_000_000,
		Status:          codec.PositionActive,
		OpenedAt:        time.Unix(1_756_200_000, 0).UTC(),
	}
	data, err := in.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != codec.PositionRecordSize {
		t.Fatalf("encoded size %d, want %d", len(data), codec.PositionRecordSize)
	}
	out, err := codec.DecodePositionRecord(data)
	if err != nil {
		t.Fatal(err)
	}
	if *out != in {
		t.Errorf("round trip mismatch: got %+v, want %+v", *out, in)
	}
}

func TestPositionRecord_OpenHasZeroClosedAt(t *testing.T) {
	in := codec.PositionRecord{
		Owner:    solana.NewWallet().PublicKey(),
		Status:   codec.PositionActive,
		OpenedAt: time.Unix(1_756_200_000, 0).UTC(),
	}
	data, err := in.Encode()
	if err != nil {
		t.Fatal(err)
	}
	out, err := codec.DecodePositionRecord(data)
	if err != nil {
		t.Fatal(err)
	}
	if !out.ClosedAt.IsZero() {
		t.Errorf("open position should decode with zero ClosedAt, got %v", out.ClosedAt)
	}
}

func TestCompetitionRecord_RoundTrip(t *testing.T) {
	in := codec.CompetitionRecord{
		Authority:         solana.NewWallet().PublicKey(),
		StartTime:         time.Unix(1_756_000_000, 0).UTC(),
		EndTime:           time.Unix(1_758_000_000, 0).UTC(),
		TotalParticipants: 128,
		PrizePool:         5_000_000_000,
		IsActive:          true,
		Name:              "Summer Paper Trading Cup",
	}
	data, err := in.Encode()
	if err != nil {
		t.Fatal(err)
	}
	out, err := codec.DecodeCompetitionRecord(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.Name != in.Name || out.Authority != in.Authority || !out.IsActive ||
		out.TotalParticipants != in.TotalParticipants || out.PrizePool != in.PrizePool {
		t.Errorf("round trip mismatch: got %+v, want %+v", *out, in)
	}
}

// ============================================================================
// Test: malformed input
// ============================================================================

func TestDecode_ShortBuffer(t *testing.T) {
	var malformed *codec.MalformedAccountError
	_, err := codec.DecodeUserTradingAccount(make([]byte, codec.UserTradingAccountSize-1))
	if !errors.As(err, &malformed) {
		t.Fatalf("short buffer should yield MalformedAccountError, got %v", err)
	}
}

func TestDecode_DiscriminatorMismatch(t *testing.T) {
	// A valid user-account buffer must not decode as a position record.
	acct := codec.UserTradingAccount{PairIndex: 1, CreatedAt: time.Unix(0, 0)}
	data, err := acct.Encode()
	if err != nil {
		t.Fatal(err)
	}
	padded := make([]byte, codec.PositionRecordSize)
	copy(padded, data)

	var malformed *codec.MalformedAccountError
	if _, err := codec.DecodePositionRecord(padded); !errors.As(err, &malformed) {
		t.Fatalf("foreign discriminator should yield MalformedAccountError, got %v", err)
	}
}

func TestDecode_EmptyBuffer(t *testing.T) {
	var malformed *codec.MalformedAccountError
	if _, err := codec.DecodeCompetitionRecord(nil); !errors.As(err, &malformed) {
		t.Fatalf("nil buffer should yield MalformedAccountError, got %v", err)
	}
}
