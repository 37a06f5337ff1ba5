// Package chain abstracts the two execution environments the coordinator
// submits to: the low-latency rollup and the authoritative base chain. Both
// speak the same RPC surface; callers pick the path per operation.
package chain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// BlockRef is the recency reference attached to a transaction. It expires,
// so it must be fetched from the target path immediately before signing.
type BlockRef struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// SignatureStatus is the network's view of a submitted signature.
type SignatureStatus struct {
	Slot      uint64
	Confirmed bool // confirmed or finalized commitment reached
	TxErr     any  // non-nil when the transaction executed and failed
}

// KeyedAccount pairs a program-owned account's address with its raw data.
type KeyedAccount struct {
	Pubkey solana.PublicKey
	Data   []byte
}

// Network is the consumed ledger interface. Reads are snapshot-consistent
// only to the commitment level the adapter was configured with; no
// cross-account atomicity is assumed.
type Network interface {
	// AccountData returns the raw account bytes. A missing account is
	// (nil, false, nil); callers must distinguish "not initialized" from
	// network failure.
	AccountData(ctx context.Context, addr solana.PublicKey) (data []byte, found bool, err error)

	// ProgramAccounts scans every account owned by program whose data is
	// exactly dataSize bytes (0 = no size filter).
	ProgramAccounts(ctx context.Context, program solana.PublicKey, dataSize uint64) ([]KeyedAccount, error)

	// LatestBlockRef fetches the most recent block reference.
	LatestBlockRef(ctx context.Context) (BlockRef, error)

	// SendRawTransaction broadcasts a signed transaction.
	SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error)

	// SignatureStatus returns nil (not an error) when the network has no
	// record of the signature.
	SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)

	// Balance returns the native balance of addr in lamports.
	Balance(ctx context.Context, addr solana.PublicKey) (uint64, error)

	// RequestAirdrop funds addr with lamports. Test/devnet utility only.
	RequestAirdrop(ctx context.Context, addr solana.PublicKey, lamports uint64) (solana.Signature, error)
}
