package executor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"PaperTrade/internal/chain"
	"PaperTrade/internal/executor"
	"PaperTrade/internal/wallet"
)

// fakeNetwork scripts one path's responses and counts submissions.
type fakeNetwork struct {
	sendErr   error
	sendCalls int
	lastRaw   []byte

	status    *chain.SignatureStatus
	statusErr error
}

func (f *fakeNetwork) AccountData(context.Context, solana.PublicKey) ([]byte, bool, error) {
	return nil, false, nil
}

func (f *fakeNetwork) ProgramAccounts(context.Context, solana.PublicKey, uint64) ([]chain.KeyedAccount, error) {
	return nil, nil
}

func (f *fakeNetwork) LatestBlockRef(context.Context) (chain.BlockRef, error) {
	return chain.BlockRef{Blockhash: solana.Hash{1}, LastValidBlockHeight: 100}, nil
}

func (f *fakeNetwork) SendRawTransaction(_ context.Context, raw []byte) (solana.Signature, error) {
	f.sendCalls++
	f.lastRaw = raw
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return solana.Signature{}, err
	}
	return tx.Signatures[0], nil
}

func (f *fakeNetwork) SignatureStatus(context.Context, solana.Signature) (*chain.SignatureStatus, error) {
	return f.status, f.statusErr
}

func (f *fakeNetwork) Balance(context.Context, solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (f *fakeNetwork) RequestAirdrop(context.Context, solana.PublicKey, uint64) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func testSigner(t *testing.T) *wallet.Local {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	return wallet.NewLocal(key)
}

func testInstruction(program solana.PublicKey, signer wallet.Source) solana.Instruction {
	return solana.NewInstruction(program, solana.AccountMetaSlice{
		solana.Meta(signer.PublicKey()).WRITE().SIGNER(),
	}, []byte{1, 2, 3})
}

func newExecutor(rollup, base chain.Network, signer wallet.Source) *executor.Executor {
	return executor.New(rollup, base, signer, zerolog.Nop(), nil, 3, time.Millisecond)
}

var program = solana.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")

// ============================================================================
// Test: Execute
// ============================================================================

func TestExecute_ConfirmedSuccess(t *testing.T) {
	rollup := &fakeNetwork{status: &chain.SignatureStatus{Slot: 42, Confirmed: true}}
	signer := testSigner(t)
	exec := newExecutor(rollup, &fakeNetwork{}, signer)

	res, err := exec.Execute(context.Background(), executor.PathRollup, []solana.Instruction{testInstruction(program, signer)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != executor.PathRollup || res.Slot != 42 || res.Recovered {
		t.Errorf("unexpected result %+v", res)
	}
	if rollup.sendCalls != 1 {
		t.Errorf("send calls = %d, want 1", rollup.sendCalls)
	}
}

func TestExecute_SigningDenied(t *testing.T) {
	rollup := &fakeNetwork{}
	external := &wallet.External{
		Key: solana.NewWallet().PublicKey(),
		SignFunc: func(context.Context, *solana.Transaction) error {
			return errors.New("user rejected")
		},
	}
	exec := newExecutor(rollup, &fakeNetwork{}, external)

	_, err := exec.Execute(context.Background(), executor.PathRollup, []solana.Instruction{testInstruction(program, external)})
	var denied *executor.SigningDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("want SigningDeniedError, got %v", err)
	}
	if rollup.sendCalls != 0 {
		t.Errorf("denied signing must not reach the network, got %d sends", rollup.sendCalls)
	}
}

func TestExecute_DuplicateRecovered(t *testing.T) {
	// The network reports a duplicate but the prior submission confirmed:
	// the call succeeds with the locally held signature.
	rollup := &fakeNetwork{
		sendErr: errors.New("Transaction simulation failed: This transaction has already been processed"),
		status:  &chain.SignatureStatus{Slot: 7, Confirmed: true},
	}
	signer := testSigner(t)
	exec := newExecutor(rollup, &fakeNetwork{}, signer)

	res, err := exec.Execute(context.Background(), executor.PathRollup, []solana.Instruction{testInstruction(program, signer)})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Recovered {
		t.Error("result should be marked recovered")
	}
	if res.Signature.IsZero() {
		t.Error("recovered result must carry the local signature")
	}
}

func TestExecute_DuplicateWithoutStatusIsAmbiguous(t *testing.T) {
	rollup := &fakeNetwork{
		sendErr: errors.New("already been processed"),
		status:  nil,
	}
	signer := testSigner(t)
	exec := newExecutor(rollup, &fakeNetwork{}, signer)

	_, err := exec.Execute(context.Background(), executor.PathRollup, []solana.Instruction{testInstruction(program, signer)})
	var ambiguous *executor.AmbiguousDuplicateError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("want AmbiguousDuplicateError, got %v", err)
	}
	if ambiguous.Signature.IsZero() {
		t.Error("ambiguous error must carry the signature for later reconciliation")
	}
	if rollup.sendCalls != 1 {
		t.Errorf("ambiguous duplicate must not auto-retry, got %d sends", rollup.sendCalls)
	}
}

func TestExecute_PriorDuplicateFailed(t *testing.T) {
	rollup := &fakeNetwork{
		sendErr: errors.New("already been processed"),
		status:  &chain.SignatureStatus{Slot: 7, Confirmed: true, TxErr: "InstructionError"},
	}
	signer := testSigner(t)
	exec := newExecutor(rollup, &fakeNetwork{}, signer)

	_, err := exec.Execute(context.Background(), executor.PathRollup, []solana.Instruction{testInstruction(program, signer)})
	var sub *executor.SubmissionError
	if !errors.As(err, &sub) {
		t.Fatalf("failed prior duplicate should surface SubmissionError, got %v", err)
	}
}

func TestExecute_ConfirmationExhaustedIsAmbiguous(t *testing.T) {
	// Submission succeeds but the status never appears within the budget.
	rollup := &fakeNetwork{status: nil}
	signer := testSigner(t)
	exec := newExecutor(rollup, &fakeNetwork{}, signer)

	_, err := exec.Execute(context.Background(), executor.PathRollup, []solana.Instruction{testInstruction(program, signer)})
	var ambiguous *executor.AmbiguousDuplicateError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("exhausted confirmation should be ambiguous, got %v", err)
	}
}

// ============================================================================
// Test: fallback policy
// ============================================================================

func TestExecuteWithFallback_ExactlyOneBaseAttempt(t *testing.T) {
	rollup := &fakeNetwork{sendErr: errors.New("rollup unavailable")}
	base := &fakeNetwork{status: &chain.SignatureStatus{Slot: 9, Confirmed: true}}
	signer := testSigner(t)
	exec := newExecutor(rollup, base, signer)

	res, err := exec.ExecuteWithFallback(context.Background(), []solana.Instruction{testInstruction(program, signer)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != executor.PathBase {
		t.Errorf("result path = %s, want base", res.Path)
	}
	if rollup.sendCalls != 1 || base.sendCalls != 1 {
		t.Errorf("sends rollup=%d base=%d, want 1 and 1", rollup.sendCalls, base.sendCalls)
	}
}

func TestExecuteWithFallback_BaseFailureSurfaces(t *testing.T) {
	rollup := &fakeNetwork{sendErr: errors.New("rollup unavailable")}
	base := &fakeNetwork{sendErr: errors.New("base unavailable")}
	signer := testSigner(t)
	exec := newExecutor(rollup, base, signer)

	_, err := exec.ExecuteWithFallback(context.Background(), []solana.Instruction{testInstruction(program, signer)})
	var sub *executor.SubmissionError
	if !errors.As(err, &sub) {
		t.Fatalf("want SubmissionError, got %v", err)
	}
	if sub.Path != executor.PathBase {
		t.Errorf("surfaced path = %s, want base", sub.Path)
	}
	if base.sendCalls != 1 {
		t.Errorf("fallback is a single retry, got %d base sends", base.sendCalls)
	}
}

func TestExecuteWithFallback_AmbiguousNeverFallsBack(t *testing.T) {
	rollup := &fakeNetwork{sendErr: errors.New("already been processed")}
	base := &fakeNetwork{}
	signer := testSigner(t)
	exec := newExecutor(rollup, base, signer)

	_, err := exec.ExecuteWithFallback(context.Background(), []solana.Instruction{testInstruction(program, signer)})
	var ambiguous *executor.AmbiguousDuplicateError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("want AmbiguousDuplicateError, got %v", err)
	}
	if base.sendCalls != 0 {
		t.Errorf("ambiguous duplicate must not fall back, got %d base sends", base.sendCalls)
	}
}
