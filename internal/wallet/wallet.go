// Package wallet models the current-wallet sources a session can sign with:
// a connected external wallet (possibly without signing capability) or a
// locally held keypair. Selection follows a single priority rule, external
// first, instead of runtime type inspection.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrNoSigner means neither wallet source can produce a signature.
var ErrNoSigner = errors.New("no signing-capable wallet source available")

// Source is the uniform capability interface over wallet variants.
type Source interface {
	PublicKey() solana.PublicKey
	// SignTransaction adds the owner's signature in place. It suspends
	// awaiting the signer and carries no timeout of its own; callers impose
	// one through ctx if needed.
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
	// SignAllTransactions signs a batch. Sources without batch support sign
	// sequentially.
	SignAllTransactions(ctx context.Context, txs []*solana.Transaction) error
}

// External is a connected wallet. Its signing functions may be absent;
// some wallet adapters expose only a public key.
type External struct {
	Key         solana.PublicKey
	SignFunc    func(ctx context.Context, tx *solana.Transaction) error
	SignAllFunc func(ctx context.Context, txs []*solana.Transaction) error
}

func (e *External) PublicKey() solana.PublicKey { return e.Key }

// CanSign reports whether the connected wallet exposes signing.
func (e *External) CanSign() bool { return e != nil && e.SignFunc != nil }

func (e *External) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	if e.SignFunc == nil {
		return ErrNoSigner
	}
	return e.SignFunc(ctx, tx)
}

func (e *External) SignAllTransactions(ctx context.Context, txs []*solana.Transaction) error {
	if e.SignAllFunc != nil {
		return e.SignAllFunc(ctx, txs)
	}
	for _, tx := range txs {
		if err := e.SignTransaction(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// Local is a locally held keypair.
type Local struct {
	key solana.PrivateKey
}

func NewLocal(key solana.PrivateKey) *Local {
	return &Local{key: key}
}

func (l *Local) PublicKey() solana.PublicKey { return l.key.PublicKey() }

func (l *Local) PrivateKey() solana.PrivateKey { return l.key }

func (l *Local) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if l.key.PublicKey().Equals(key) {
			return &l.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign with local key: %w", err)
	}
	return nil
}

func (l *Local) SignAllTransactions(ctx context.Context, txs []*solana.Transaction) error {
	for _, tx := range txs {
		if err := l.SignTransaction(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// Select picks the signing source: connected external wallet first, local
// keypair as fallback. An external wallet without signing capability is
// skipped rather than failed on.
func Select(external *External, local *Local) (Source, error) {
	if external.CanSign() {
		return external, nil
	}
	if local != nil {
		return local, nil
	}
	return nil, ErrNoSigner
}
