// Package derive computes the program-derived addresses used by the
// paper-trading program. Derivation is pure: the same inputs always yield
// the same address, so addresses are recomputed on demand and never stored.
package derive

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Literal seed tags. Order within each derivation is fixed by the on-chain
// program: literal tag first, then owner bytes, then little-endian numerics.
const (
	SeedUserAccount = "user_account"
	SeedPosition    = "position"
	SeedCompetition = "competition"
)

// UserTradingAccount derives the per-owner, per-pair balance account.
func UserTradingAccount(program, owner solana.PublicKey, pairIndex uint8) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte(SeedUserAccount),
			owner.Bytes(),
			{pairIndex},
		},
		program,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive user trading account: %w", err)
	}
	return addr, nil
}

// Position derives the address of the owner's positionID-th position for a
// pair. positionID comes from the account's TotalPositions counter and must
// be read fresh immediately before building the open instruction; the Nth
// position's address depends on N.
func Position(program, owner solana.PublicKey, pairIndex uint8, positionID uint64) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte(SeedPosition),
			owner.Bytes(),
			{pairIndex},
			u64LE(positionID),
		},
		program,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive position %d: %w", positionID, err)
	}
	return addr, nil
}

// Competition derives the singleton competition metadata account.
func Competition(program solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(SeedCompetition)},
		program,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive competition: %w", err)
	}
	return addr, nil
}

func u64LE(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}
