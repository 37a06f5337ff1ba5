package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCNetwork adapts a solana-go RPC client to the Network interface. One
// instance per execution path.
type RPCNetwork struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

func NewRPC(url string, commitment rpc.CommitmentType) *RPCNetwork {
	return &RPCNetwork{
		client:     rpc.New(url),
		commitment: commitment,
	}
}

func (n *RPCNetwork) AccountData(ctx context.Context, addr solana.PublicKey) ([]byte, bool, error) {
	resp, err := n.client.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
		Commitment: n.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("getAccountInfo %s: %w", addr, err)
	}
	if resp == nil || resp.Value == nil {
		return nil, false, nil
	}
	return resp.Value.Data.GetBinary(), true, nil
}

func (n *RPCNetwork) ProgramAccounts(ctx context.Context, program solana.PublicKey, dataSize uint64) ([]KeyedAccount, error) {
	opts := &rpc.GetProgramAccountsOpts{Commitment: n.commitment}
	if dataSize > 0 {
		opts.Filters = []rpc.RPCFilter{{DataSize: dataSize}}
	}
	resp, err := n.client.GetProgramAccountsWithOpts(ctx, program, opts)
	if err != nil {
		return nil, fmt.Errorf("getProgramAccounts %s: %w", program, err)
	}
	accounts := make([]KeyedAccount, 0, len(resp))
	for _, item := range resp {
		if item == nil || item.Account == nil {
			continue
		}
		accounts = append(accounts, KeyedAccount{
			Pubkey: item.Pubkey,
			Data:   item.Account.Data.GetBinary(),
		})
	}
	return accounts, nil
}

func (n *RPCNetwork) LatestBlockRef(ctx context.Context) (BlockRef, error) {
	resp, err := n.client.GetLatestBlockhash(ctx, n.commitment)
	if err != nil {
		return BlockRef{}, fmt.Errorf("getLatestBlockhash: %w", err)
	}
	return BlockRef{
		Blockhash:            resp.Value.Blockhash,
		LastValidBlockHeight: resp.Value.LastValidBlockHeight,
	}, nil
}

func (n *RPCNetwork) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	sig, err := n.client.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: n.commitment,
	})
	if err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}

func (n *RPCNetwork) SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	resp, err := n.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("getSignatureStatuses: %w", err)
	}
	if len(resp.Value) == 0 || resp.Value[0] == nil {
		return nil, nil
	}
	status := resp.Value[0]
	return &SignatureStatus{
		Slot: status.Slot,
		Confirmed: status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			status.ConfirmationStatus == rpc.ConfirmationStatusFinalized,
		TxErr: status.Err,
	}, nil
}

func (n *RPCNetwork) Balance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	resp, err := n.client.GetBalance(ctx, addr, n.commitment)
	if err != nil {
		return 0, fmt.Errorf("getBalance %s: %w", addr, err)
	}
	return resp.Value, nil
}

func (n *RPCNetwork) RequestAirdrop(ctx context.Context, addr solana.PublicKey, lamports uint64) (solana.Signature, error) {
	sig, err := n.client.RequestAirdrop(ctx, addr, lamports, n.commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("requestAirdrop %s: %w", addr, err)
	}
	return sig, nil
}
