package derive_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"PaperTrade/internal/derive"
)

var (
	program = solana.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	ownerA  = solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	ownerB  = solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
)

func TestUserTradingAccount_Deterministic(t *testing.T) {
	first, err := derive.UserTradingAccount(program, ownerA, 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := derive.UserTradingAccount(program, ownerA, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equals(second) {
		t.Errorf("derivation not deterministic: %s vs %s", first, second)
	}
}

func TestUserTradingAccount_DistinctAcrossInputs(t *testing.T) {
	seen := make(map[solana.PublicKey]string)
	for _, owner := range []solana.PublicKey{ownerA, ownerB} {
		for pair := uint8(0); pair < 3; pair++ {
			addr, err := derive.UserTradingAccount(program, owner, pair)
			if err != nil {
				t.Fatal(err)
			}
			key := owner.String()[:8] + string(rune('0'+pair))
			if prev, dup := seen[addr]; dup {
				t.Fatalf("address collision between %s and %s", prev, key)
			}
			seen[addr] = key
		}
	}
}

func TestPosition_DistinctPerID(t *testing.T) {
	a, err := derive.Position(program, ownerA, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := derive.Position(program, ownerA, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if a.Equals(b) {
		t.Error("consecutive position ids must derive distinct addresses")
	}
}

func TestPosition_DistinctFromAccount(t *testing.T) {
	acct, err := derive.UserTradingAccount(program, ownerA, 0)
	if err != nil {
		t.Fatal(err)
	}
	pos, err := derive.Position(program, ownerA, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if acct.Equals(pos) {
		t.Error("seed tags must separate account and position address spaces")
	}
}

func TestCompetition_IndependentOfOwner(t *testing.T) {
	addr, err := derive.Competition(program)
	if err != nil {
		t.Fatal(err)
	}
	again, err := derive.Competition(program)
	if err != nil {
		t.Fatal(err)
	}
	if !addr.Equals(again) {
		t.Error("competition address must be a program-wide constant")
	}
}
