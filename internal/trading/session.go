// Package trading composes derivation, encoding, validation, and execution
// into the public operations of the paper-trading coordinator.
package trading

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"PaperTrade/internal/chain"
	"PaperTrade/internal/executor"
	"PaperTrade/internal/journal"
	"PaperTrade/internal/observability"
	"PaperTrade/internal/publish"
	"PaperTrade/internal/reader"
	"PaperTrade/internal/validate"
	"PaperTrade/internal/wallet"
)

// DefaultPairs maps the competition's quoted symbols to on-ledger pair
// indexes. The program identifies pairs only by index; the symbol mapping
// is a client convention.
func DefaultPairs() map[string]uint8 {
	return map[string]uint8{
		"SOL": 0,
		"BTC": 1,
		"ETH": 2,
	}
}

// Config assembles a Session. Journal and Publisher are optional; a nil
// value disables that sink without affecting execution.
type Config struct {
	ProgramID solana.PublicKey
	Pairs     map[string]uint8

	Rollup chain.Network
	Base   chain.Network
	Signer wallet.Source

	ConfirmAttempts int
	ConfirmDelay    time.Duration

	Journal   *journal.Writer
	Publisher *publish.Publisher
	Metrics   *observability.Metrics
	Log       zerolog.Logger
}

// Session is the per-wallet operation facade. It holds no per-operation
// state; concurrent calls are safe except that two concurrent position
// opens for the same pair race on the on-ledger position counter and must
// be serialized by the caller.
type Session struct {
	program solana.PublicKey
	pairs   map[string]uint8

	exec      *executor.Executor
	read      *reader.Reader
	base      chain.Network
	signer    wallet.Source
	journal   *journal.Writer
	publisher *publish.Publisher
	mx        *observability.Metrics
	log       zerolog.Logger
}

func NewSession(cfg Config) *Session {
	pairs := cfg.Pairs
	if len(pairs) == 0 {
		pairs = DefaultPairs()
	}
	exec := executor.New(cfg.Rollup, cfg.Base, cfg.Signer, cfg.Log, cfg.Metrics, cfg.ConfirmAttempts, cfg.ConfirmDelay)
	// Reads always go through the base chain: the rollup's view can trail
	// behind settlement and account scans must not miss records.
	read := reader.New(cfg.Base, cfg.ProgramID, cfg.Log, cfg.Metrics)
	return &Session{
		program:   cfg.ProgramID,
		pairs:     pairs,
		exec:      exec,
		read:      read,
		base:      cfg.Base,
		signer:    cfg.Signer,
		journal:   cfg.Journal,
		publisher: cfg.Publisher,
		mx:        cfg.Metrics,
		log:       cfg.Log,
	}
}

// Owner is the session wallet's public key.
func (s *Session) Owner() solana.PublicKey { return s.signer.PublicKey() }

// pairIndex resolves a symbol to its on-ledger index.
func (s *Session) pairIndex(symbol string) (uint8, error) {
	idx, ok := s.pairs[symbol]
	if !ok {
		return 0, &validate.UnknownPairError{Pair: symbol}
	}
	return idx, nil
}

// observe wraps one facade operation with metrics and logging.
func (s *Session) observe(op string, fn func() error) error {
	start := time.Now()
	if s.mx != nil {
		s.mx.OperationsAttempted.WithLabelValues(op).Inc()
	}
	err := fn()
	if s.mx != nil {
		s.mx.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err != nil {
			s.mx.OperationsFailed.WithLabelValues(op).Inc()
		} else {
			s.mx.OperationsSucceeded.WithLabelValues(op).Inc()
		}
	}
	return err
}

// recordOutcome writes the terminal state of an execution to the journal
// and the event stream. Both sinks are best effort; a sink failure is
// logged and never turns a confirmed execution into a caller-visible error.
func (s *Session) recordOutcome(ctx context.Context, op string, res *executor.Result, execErr error) {
	path, sig, outcome, detail := "", "", "confirmed", ""
	if res != nil {
		path = string(res.Path)
		sig = res.Signature.String()
		if res.Recovered {
			outcome = "recovered_duplicate"
		}
	}
	if execErr != nil {
		outcome = "failed"
		detail = execErr.Error()
	}

	id := uuid.New()
	now := time.Now().UTC()
	owner := s.Owner().String()

	if s.journal != nil {
		err := s.journal.Record(ctx, journal.Entry{
			OperationID: id,
			Operation:   op,
			Path:        path,
			Owner:       owner,
			Signature:   sig,
			Outcome:     outcome,
			Detail:      detail,
			SubmittedAt: now,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("operation", op).Msg("journal write failed")
		}
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, publish.ExecutionEvent{
			OperationID: id.String(),
			Operation:   op,
			Path:        path,
			Owner:       owner,
			Signature:   sig,
			Outcome:     outcome,
			Detail:      detail,
			OccurredAt:  now,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("operation", op).Msg("event publish failed")
		}
	}
}
