// Package executor builds, signs, submits, and confirms transactions over
// the two network paths. A transaction moves through building, signed,
// submitted, and exactly one terminal state per path attempt.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"PaperTrade/internal/chain"
	"PaperTrade/internal/observability"
	"PaperTrade/internal/wallet"
)

// Path names the network a transaction was submitted on.
type Path string

const (
	PathRollup Path = "rollup"
	PathBase   Path = "base"
)

// SigningDeniedError means the signer refused or failed to sign. The
// transaction never reached any network, so no duplicate can exist.
type SigningDeniedError struct {
	Err error
}

func (e *SigningDeniedError) Error() string { return fmt.Sprintf("signing denied: %v", e.Err) }
func (e *SigningDeniedError) Unwrap() error { return e.Err }

// SubmissionError means a path rejected the transaction outright or the
// network reported an execution failure after submission.
type SubmissionError struct {
	Path Path
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission on %s failed: %v", e.Path, e.Err)
}
func (e *SubmissionError) Unwrap() error { return e.Err }

// AmbiguousDuplicateError means the network reported the transaction as
// already processed but its status could not be found afterwards. The
// operation may or may not have landed; the caller must check state before
// retrying.
type AmbiguousDuplicateError struct {
	Path      Path
	Signature solana.Signature
}

func (e *AmbiguousDuplicateError) Error() string {
	return fmt.Sprintf("transaction %s reported already processed on %s but status is unknown", e.Signature, e.Path)
}

// Result is a confirmed submission.
type Result struct {
	Signature solana.Signature
	Path      Path
	Slot      uint64
	// Recovered is set when the network reported a duplicate and the prior
	// submission was verified successful, so no new transaction landed.
	Recovered bool
}

// Executor owns the per-attempt lifecycle. One instance serves a whole
// session; it holds no per-transaction state.
type Executor struct {
	rollup chain.Network
	base   chain.Network
	signer wallet.Source
	log    zerolog.Logger
	mx     *observability.Metrics

	confirmAttempts int
	confirmDelay    time.Duration
}

func New(rollup, base chain.Network, signer wallet.Source, log zerolog.Logger, mx *observability.Metrics, confirmAttempts int, confirmDelay time.Duration) *Executor {
	if confirmAttempts <= 0 {
		confirmAttempts = 30
	}
	if confirmDelay <= 0 {
		confirmDelay = time.Second
	}
	return &Executor{
		rollup:          rollup,
		base:            base,
		signer:          signer,
		log:             log,
		mx:              mx,
		confirmAttempts: confirmAttempts,
		confirmDelay:    confirmDelay,
	}
}

func (e *Executor) network(path Path) chain.Network {
	if path == PathBase {
		return e.base
	}
	return e.rollup
}

// Execute runs the full lifecycle on a single path: fresh blockhash, sign,
// submit, resolve duplicates, confirm. The blockhash is fetched per attempt
// and never reused; a stale hash would make distinct retries collide as
// false duplicates.
func (e *Executor) Execute(ctx context.Context, path Path, instructions []solana.Instruction) (*Result, error) {
	net := e.network(path)

	ref, err := net.LatestBlockRef(ctx)
	if err != nil {
		return nil, &SubmissionError{Path: path, Err: fmt.Errorf("fetch blockhash: %w", err)}
	}

	tx, err := solana.NewTransaction(
		instructions,
		ref.Blockhash,
		solana.TransactionPayer(e.signer.PublicKey()),
	)
	if err != nil {
		return nil, &SubmissionError{Path: path, Err: fmt.Errorf("build transaction: %w", err)}
	}

	if err := e.signer.SignTransaction(ctx, tx); err != nil {
		if e.mx != nil {
			e.mx.SigningDenied.Inc()
		}
		return nil, &SigningDeniedError{Err: err}
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, &SubmissionError{Path: path, Err: fmt.Errorf("serialize transaction: %w", err)}
	}
	// The signature is fixed at signing time. Keep our own copy so a
	// duplicate report can be resolved against the exact transaction we
	// sent, not whatever the network echoes back.
	ownSig := tx.Signatures[0]

	if e.mx != nil {
		e.mx.Submissions.WithLabelValues(string(path)).Inc()
	}
	sig, err := net.SendRawTransaction(ctx, raw)
	if err != nil {
		if isAlreadyProcessed(err) {
			return e.resolveDuplicate(ctx, path, net, ownSig)
		}
		return nil, &SubmissionError{Path: path, Err: err}
	}

	slot, err := e.awaitConfirmation(ctx, path, net, sig)
	if err != nil {
		return nil, err
	}
	return &Result{Signature: sig, Path: path, Slot: slot}, nil
}

// ExecuteWithFallback tries the rollup, and on a rollup SubmissionError
// makes exactly one base-chain attempt. Signing denial and ambiguous
// duplicates never fall back: the first means no network saw the
// transaction, the second means the rollup may already hold the state
// change and a base-chain replay could double-apply it.
func (e *Executor) ExecuteWithFallback(ctx context.Context, instructions []solana.Instruction) (*Result, error) {
	res, err := e.Execute(ctx, PathRollup, instructions)
	if err == nil {
		return res, nil
	}

	var subErr *SubmissionError
	if !errors.As(err, &subErr) || subErr.Path != PathRollup {
		return nil, err
	}

	if e.mx != nil {
		e.mx.Fallbacks.Inc()
	}
	e.log.Warn().Err(subErr).Msg("rollup submission failed, retrying on base chain")
	return e.Execute(ctx, PathBase, instructions)
}

// resolveDuplicate handles the "already been processed" response. If the
// prior submission is visible and succeeded, the operation is complete and
// the original signature is the handle. Anything less certain is ambiguous.
func (e *Executor) resolveDuplicate(ctx context.Context, path Path, net chain.Network, sig solana.Signature) (*Result, error) {
	status, err := net.SignatureStatus(ctx, sig)
	if err != nil || status == nil {
		if e.mx != nil {
			e.mx.AmbiguousDuplicates.Inc()
		}
		return nil, &AmbiguousDuplicateError{Path: path, Signature: sig}
	}
	if status.TxErr != nil {
		return nil, &SubmissionError{Path: path, Err: fmt.Errorf("prior transaction %s failed: %v", sig, status.TxErr)}
	}
	if e.mx != nil {
		e.mx.DuplicatesRecovered.Inc()
	}
	e.log.Info().Str("signature", sig.String()).Str("path", string(path)).Msg("duplicate submission resolved to prior success")
	return &Result{Signature: sig, Path: path, Slot: status.Slot, Recovered: true}, nil
}

// awaitConfirmation polls signature status with a fixed delay and a bounded
// attempt count. Exhausting the budget without a confirmed status leaves the
// outcome unknown, which is the same ambiguity as an unresolvable duplicate.
func (e *Executor) awaitConfirmation(ctx context.Context, path Path, net chain.Network, sig solana.Signature) (uint64, error) {
	start := time.Now()
	defer func() {
		if e.mx != nil {
			e.mx.ConfirmationDuration.WithLabelValues(string(path)).Observe(time.Since(start).Seconds())
		}
	}()

	for attempt := 1; attempt <= e.confirmAttempts; attempt++ {
		status, err := net.SignatureStatus(ctx, sig)
		if err == nil && status != nil {
			if status.TxErr != nil {
				return 0, &SubmissionError{Path: path, Err: fmt.Errorf("transaction %s failed on chain: %v", sig, status.TxErr)}
			}
			if status.Confirmed {
				if e.mx != nil {
					e.mx.ConfirmationPolls.WithLabelValues(string(path)).Observe(float64(attempt))
				}
				return status.Slot, nil
			}
		}
		if err != nil {
			e.log.Debug().Err(err).Int("attempt", attempt).Msg("signature status poll failed")
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(e.confirmDelay):
		}
	}

	if e.mx != nil {
		e.mx.AmbiguousDuplicates.Inc()
	}
	return 0, &AmbiguousDuplicateError{Path: path, Signature: sig}
}

// isAlreadyProcessed matches the node's duplicate-submission response. The
// RPC surfaces it as error text rather than a structured code.
func isAlreadyProcessed(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already been processed")
}
