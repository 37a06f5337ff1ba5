package codec

import (
	"encoding/binary"
)

// Method names understood by the paper-trading program. Selectors are
// derived, never hardcoded.
const (
	MethodInitializeUser    = "initialize_user"
	MethodOpenPosition      = "open_position"
	MethodClosePosition     = "close_position"
	MethodBuyToken          = "buy_token"
	MethodSellToken         = "sell_token"
	MethodJoinCompetition   = "join_competition"
	MethodSettleCompetition = "settle_competition"
)

// InstructionData packs an instruction payload: 8-byte method selector
// followed by fixed-width little-endian fields in declaration order.
type InstructionData struct {
	buf []byte
}

func NewInstructionData(method string) *InstructionData {
	selector := MethodSelector(method)
	return &InstructionData{buf: append(make([]byte, 0, 64), selector[:]...)}
}

func (d *InstructionData) U8(v uint8) *InstructionData {
	d.buf = append(d.buf, v)
	return d
}

func (d *InstructionData) U64(v uint64) *InstructionData {
	d.buf = binary.LittleEndian.AppendUint64(d.buf, v)
	return d
}

func (d *InstructionData) I64(v int64) *InstructionData {
	d.buf = binary.LittleEndian.AppendUint64(d.buf, uint64(v))
	return d
}

func (d *InstructionData) Bytes() []byte {
	return d.buf
}

// InitializeUserArgs are the arguments of initialize_user.
type InitializeUserArgs struct {
	PairIndex      uint8
	Fee            uint64 // quote units, 6 decimals
	InitialBalance uint64 // quote units, 6 decimals
}

func EncodeInitializeUser(args InitializeUserArgs) []byte {
	return NewInstructionData(MethodInitializeUser).
		U8(args.PairIndex).
		U64(args.Fee).
		U64(args.InitialBalance).
		Bytes()
}

// OpenPositionArgs are the arguments of open_position. AmountTokenOut and
// EntryPrice are raw fixed-point values; the caller owns the conversion.
type OpenPositionArgs struct {
	PairIndex       uint8
	Direction       Direction
	AmountTokenOut  uint64
	EntryPrice      uint64
	TakeProfitPrice uint64
	StopLossPrice   uint64
}

func EncodeOpenPosition(args OpenPositionArgs) []byte {
	return NewInstructionData(MethodOpenPosition).
		U8(args.PairIndex).
		U8(uint8(args.Direction)).
		U64(args.AmountTokenOut).
		U64(args.EntryPrice).
		U64(args.TakeProfitPrice).
		U64(args.StopLossPrice).
		Bytes()
}

// DecodeOpenPositionArgs is the inverse of EncodeOpenPosition. Used when
// inspecting a built instruction, e.g. in duplicate-outcome diagnostics.
func DecodeOpenPositionArgs(data []byte) (OpenPositionArgs, error) {
	const want = 8 + 1 + 1 + 8 + 8 + 8 + 8
	if len(data) < want {
		return OpenPositionArgs{}, &MalformedAccountError{Record: "open_position args", Got: len(data), Want: want}
	}
	selector := MethodSelector(MethodOpenPosition)
	for i := 0; i < 8; i++ {
		if data[i] != selector[i] {
			return OpenPositionArgs{}, &MalformedAccountError{
				Record: "open_position args",
				Got:    len(data),
				Want:   want,
				Reason: "selector mismatch",
			}
		}
	}
	return OpenPositionArgs{
		PairIndex:       data[8],
		Direction:       Direction(data[9]),
		AmountTokenOut:  binary.LittleEndian.Uint64(data[10:18]),
		EntryPrice:      binary.LittleEndian.Uint64(data[18:26]),
		TakeProfitPrice: binary.LittleEndian.Uint64(data[26:34]),
		StopLossPrice:   binary.LittleEndian.Uint64(data[34:42]),
	}, nil
}

func EncodeClosePosition(closePrice uint64) []byte {
	return NewInstructionData(MethodClosePosition).
		U64(closePrice).
		Bytes()
}

// SpotTradeArgs are the shared arguments of buy_token and sell_token.
type SpotTradeArgs struct {
	PairIndex      uint8
	AmountTokenOut uint64 // base units, 9 decimals
	Price          uint64 // 6-decimal fixed point
}

func EncodeBuyToken(args SpotTradeArgs) []byte {
	return encodeSpotTrade(MethodBuyToken, args)
}

func EncodeSellToken(args SpotTradeArgs) []byte {
	return encodeSpotTrade(MethodSellToken, args)
}

func encodeSpotTrade(method string, args SpotTradeArgs) []byte {
	return NewInstructionData(method).
		U8(args.PairIndex).
		U64(args.AmountTokenOut).
		U64(args.Price).
		Bytes()
}

func EncodeJoinCompetition() []byte {
	return NewInstructionData(MethodJoinCompetition).Bytes()
}

func EncodeSettleCompetition() []byte {
	return NewInstructionData(MethodSettleCompetition).Bytes()
}
