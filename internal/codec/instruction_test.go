package codec_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"PaperTrade/internal/codec"
)

// ============================================================================
// Test: method selectors
// ============================================================================

func TestMethodSelector(t *testing.T) {
	sum := sha256.Sum256([]byte("global:open_position"))
	got := codec.MethodSelector("open_position")
	if !bytes.Equal(got[:], sum[:8]) {
		t.Errorf("selector = %x, want first 8 digest bytes %x", got, sum[:8])
	}
}

func TestAccountDiscriminator(t *testing.T) {
	sum := sha256.Sum256([]byte("account:PositionRecord"))
	got := codec.AccountDiscriminator("PositionRecord")
	if !bytes.Equal(got[:], sum[:8]) {
		t.Errorf("discriminator = %x, want first 8 digest bytes %x", got, sum[:8])
	}
}

// ============================================================================
// Test: instruction encoding
// ============================================================================

func TestEncodeOpenPosition_Layout(t *testing.T) {
	data := codec.EncodeOpenPosition(codec.OpenPositionArgs{
		PairIndex:       0,
		Direction:       codec.DirectionLong,
		AmountTokenOut:  2_518_891_687,
		EntryPrice:      198_500_000,
		TakeProfitPrice: 0,
		StopLossPrice:   0,
	})
	if len(data) != 8+1+1+8+8+8+8 {
		t.Fatalf("encoded length %d, want 42", len(data))
	}
	if data[8] != 0 {
		t.Errorf("pair index byte = %d, want 0", data[8])
	}
	if data[9] != uint8(codec.DirectionLong) {
		t.Errorf("direction byte = %d, want long", data[9])
	}
	if got := binary.LittleEndian.Uint64(data[10:18]); got != 2_518_891_687 {
		t.Errorf("amount = %d, want 2518891687", got)
	}
	if got := binary.LittleEndian.Uint64(data[18:26]); got != 198_500_000 {
		t.Errorf("entry price = %d, want 198500000", got)
	}
}

func TestOpenPositionArgs_RoundTrip(t *testing.T) {
	max := ^uint64(0)
	cases := []codec.OpenPositionArgs{
		{PairIndex: 0, Direction: codec.DirectionLong},
		{PairIndex: 2, Direction: codec.DirectionShort, AmountTokenOut: max, EntryPrice: max, TakeProfitPrice: max, StopLossPrice: max},
		{PairIndex: 1, Direction: codec.DirectionLong, AmountTokenOut: 1, EntryPrice: 198_500_000, TakeProfitPrice: 210_000_000, StopLossPrice: 190_000_000},
	}
	for _, in := range cases {
		out, err := codec.DecodeOpenPositionArgs(codec.EncodeOpenPosition(in))
		if err != nil {
			t.Fatalf("decode %+v: %v", in, err)
		}
		if out != in {
			t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
		}
	}
}

func TestDecodeOpenPositionArgs_WrongSelector(t *testing.T) {
	data := codec.EncodeClosePosition(198_500_000)
	padded := make([]byte, 42)
	copy(padded, data)
	if _, err := codec.DecodeOpenPositionArgs(padded); err == nil {
		t.Error("foreign selector should be rejected")
	}
}

func TestEncodeSpotTrade_DistinctSelectors(t *testing.T) {
	args := codec.SpotTradeArgs{PairIndex: 1, AmountTokenOut: 1_500_000_000, Price: 198_500_000}
	buy := codec.EncodeBuyToken(args)
	sell := codec.EncodeSellToken(args)
	if bytes.Equal(buy[:8], sell[:8]) {
		t.Error("buy and sell selectors must differ")
	}
	if !bytes.Equal(buy[8:], sell[8:]) {
		t.Error("buy and sell argument bytes must match for identical args")
	}
}

func TestEncodeInitializeUser(t *testing.T) {
	data := codec.EncodeInitializeUser(codec.InitializeUserArgs{
		PairIndex:      1,
		Fee:            0,
		InitialBalance: 1_000_000_000,
	})
	if len(data) != 8+1+8+8 {
		t.Fatalf("encoded length %d, want 25", len(data))
	}
	if got := binary.LittleEndian.Uint64(data[17:25]); got != 1_000_000_000 {
		t.Errorf("initial balance = %d, want 1000000000", got)
	}
}

func TestEncodeCompetitionInstructions_SelectorOnly(t *testing.T) {
	if got := len(codec.EncodeJoinCompetition()); got != 8 {
		t.Errorf("join length = %d, want 8", got)
	}
	if got := len(codec.EncodeSettleCompetition()); got != 8 {
		t.Errorf("settle length = %d, want 8", got)
	}
}
