package reader_test

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"PaperTrade/internal/chain"
	"PaperTrade/internal/codec"
	"PaperTrade/internal/derive"
	"PaperTrade/internal/reader"
)

var program = solana.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")

// fakeNetwork serves accounts from an in-memory table.
type fakeNetwork struct {
	accounts map[solana.PublicKey][]byte
}

func (f *fakeNetwork) AccountData(_ context.Context, addr solana.PublicKey) ([]byte, bool, error) {
	data, ok := f.accounts[addr]
	return data, ok, nil
}

func (f *fakeNetwork) ProgramAccounts(_ context.Context, _ solana.PublicKey, dataSize uint64) ([]chain.KeyedAccount, error) {
	var out []chain.KeyedAccount
	for addr, data := range f.accounts {
		if dataSize != 0 && uint64(len(data)) != dataSize {
			continue
		}
		out = append(out, chain.KeyedAccount{Pubkey: addr, Data: data})
	}
	return out, nil
}

func (f *fakeNetwork) LatestBlockRef(context.Context) (chain.BlockRef, error) {
	return chain.BlockRef{}, nil
}

func (f *fakeNetwork) SendRawTransaction(context.Context, []byte) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func (f *fakeNetwork) SignatureStatus(context.Context, solana.Signature) (*chain.SignatureStatus, error) {
	return nil, nil
}

func (f *fakeNetwork) Balance(context.Context, solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (f *fakeNetwork) RequestAirdrop(context.Context, solana.PublicKey, uint64) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func mustEncode(t *testing.T, data []byte, err error) []byte {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func positionBytes(t *testing.T, owner solana.PublicKey, pair uint8, id uint64) []byte {
	t.Helper()
	rec := codec.PositionRecord{
		Owner:      owner,
		PairIndex:  pair,
		PositionID: id,
		Direction:  codec.DirectionLong,
		Status:     codec.PositionActive,
		OpenedAt:   time.Unix(1_756_200_000, 0).UTC(),
	}
	data, err := rec.Encode()
	return mustEncode(t, data, err)
}

// ============================================================================
// Test: user account reads
// ============================================================================

func TestUserAccount_MissingIsNotAnError(t *testing.T) {
	r := reader.New(&fakeNetwork{accounts: map[solana.PublicKey][]byte{}}, program, zerolog.Nop(), nil)

	acct, found, err := r.UserAccount(context.Background(), solana.NewWallet().PublicKey(), 0)
	if err != nil {
		t.Fatalf("missing account must not error: %v", err)
	}
	if found || acct != nil {
		t.Error("missing account should report found=false")
	}
}

func TestUserAccount_DecodesExisting(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	addr, err := derive.UserTradingAccount(program, owner, 1)
	if err != nil {
		t.Fatal(err)
	}
	acct := codec.UserTradingAccount{
		PairIndex:      1,
		TokenInBalance: 1_000_000_000,
		TotalPositions: 2,
		CreatedAt:      time.Unix(1_756_200_000, 0).UTC(),
	}
	acctData, acctErr := acct.Encode()
	net := &fakeNetwork{accounts: map[solana.PublicKey][]byte{
		addr: mustEncode(t, acctData, acctErr),
	}}
	r := reader.New(net, program, zerolog.Nop(), nil)

	got, found, err := r.UserAccount(context.Background(), owner, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("account should be found")
	}
	if got.TokenInBalance != acct.TokenInBalance || got.TotalPositions != 2 {
		t.Errorf("decoded %+v, want %+v", got, acct)
	}
}

// ============================================================================
// Test: position scans
// ============================================================================

func TestPositions_FiltersByOwnerAndSize(t *testing.T) {
	mine := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	foreignAccount := codec.UserTradingAccount{PairIndex: 0, CreatedAt: time.Unix(0, 0)}
	foreignData, foreignErr := foreignAccount.Encode()
	net := &fakeNetwork{accounts: map[solana.PublicKey][]byte{
		solana.NewWallet().PublicKey(): positionBytes(t, mine, 0, 1),
		solana.NewWallet().PublicKey(): positionBytes(t, mine, 0, 0),
		solana.NewWallet().PublicKey(): positionBytes(t, other, 0, 0),
		// 41-byte account record must be excluded by the size filter.
		solana.NewWallet().PublicKey(): mustEncode(t, foreignData, foreignErr),
	}}
	r := reader.New(net, program, zerolog.Nop(), nil)

	positions, err := r.Positions(context.Background(), mine)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(positions))
	}
	// Sorted by pair then id.
	if positions[0].Record.PositionID != 0 || positions[1].Record.PositionID != 1 {
		t.Errorf("positions not ordered by id: %+v", positions)
	}
	for _, p := range positions {
		if !p.Record.Owner.Equals(mine) {
			t.Errorf("foreign position leaked: %+v", p)
		}
	}
}

// ============================================================================
// Test: leaderboard
// ============================================================================

func TestLeaderboard_RanksByQuoteBalance(t *testing.T) {
	accts := map[solana.PublicKey][]byte{}
	for _, balance := range []uint64{50_000_000, 150_000_000, 100_000_000} {
		rec := codec.UserTradingAccount{PairIndex: 0, TokenInBalance: balance, CreatedAt: time.Unix(0, 0)}
		recData, recErr := rec.Encode()
		accts[solana.NewWallet().PublicKey()] = mustEncode(t, recData, recErr)
	}
	otherPair := codec.UserTradingAccount{PairIndex: 1, TokenInBalance: 999_000_000, CreatedAt: time.Unix(0, 0)}
	otherData, otherErr := otherPair.Encode()
	accts[solana.NewWallet().PublicKey()] = mustEncode(t, otherData, otherErr)

	r := reader.New(&fakeNetwork{accounts: accts}, program, zerolog.Nop(), nil)
	entries, err := r.Leaderboard(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3 (other pair excluded)", len(entries))
	}
	want := []uint64{150_000_000, 100_000_000, 50_000_000}
	for i, e := range entries {
		if e.TokenInBalance != want[i] {
			t.Errorf("rank %d balance = %d, want %d", i+1, e.TokenInBalance, want[i])
		}
	}
}
