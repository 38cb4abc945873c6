// Package submission signs, sends and confirms units of instructions. A unit
// moves through Building, Signed and Sent before ending Confirmed, Failed or
// Expired. Expired units are rebuilt with a fresh blockhash and retried.
package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lotterynft/lottery-client/pkg/metrics"
	"github.com/lotterynft/lottery-client/pkg/retry"
	"github.com/lotterynft/lottery-client/pkg/retry/backoff"
	"github.com/lotterynft/lottery-client/pkg/solana"
)

const (
	submitterMetricsName = "submission.submitter"
	outcomeEventName     = "SubmissionOutcome"
	latencyMetricName    = "Submission/Latency"
	attemptsMetricName   = "Submission/Attempts"

	maxSendBackoff = 10 * time.Second
)

type State uint8

const (
	StateBuilding State = iota
	StateSigned
	StateSent
	StateConfirmed
	StateFailed
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateSigned:
		return "signed"
	case StateSent:
		return "sent"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	case StateExpired:
		return "expired"
	}
	return fmt.Sprintf("unknown(%d)", s)
}

// Result describes the progress of one submission. It is returned even when
// the submission fails.
type Result struct {
	ID        uuid.UUID
	Signature solana.Signature
	State     State
	Attempts  int

	// Transitions lists every state entered, in order.
	Transitions []State
}

func (r *Result) transition(log *logrus.Entry, state State) {
	r.State = state
	r.Transitions = append(r.Transitions, state)
	log.WithField("state", state.String()).Debug("submission state changed")
}

// transientError marks a network failure that may succeed when retried.
type transientError struct {
	cause error
}

func (e *transientError) Error() string {
	return ErrNetworkTransient.Error() + ": " + e.cause.Error()
}

func (e *transientError) Is(target error) bool {
	return target == ErrNetworkTransient
}

func (e *transientError) Unwrap() error {
	return e.cause
}

type Submitter struct {
	log  *logrus.Entry
	sc   solana.Client
	conf *conf
}

func NewSubmitter(sc solana.Client, configProvider ConfigProvider) *Submitter {
	return &Submitter{
		log:  logrus.StandardLogger().WithField("type", "submission/submitter"),
		sc:   sc,
		conf: configProvider(),
	}
}

// Execute builds the unit described by b, led by the configured compute
// budget, and submits it. The budget is kept on b so that a later Build
// reproduces the submitted layout.
func (s *Submitter) Execute(ctx context.Context, b *Builder) (*Result, error) {
	b.setComputeBudget(s.conf.unitLimit(ctx), s.conf.computeUnitPrice.Get(ctx))

	unit, err := b.Build()
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, unit)
}

// Submit signs and sends unit, then waits for the configured commitment.
//
// Missing signers are reported before any network call. A rejection by the
// node is returned as a *RemoteRejectedError and never retried. Transient
// send failures are retried with backoff, fetching a new blockhash and
// re-signing each time. A unit whose blockhash expires before confirmation
// is rebuilt up to the configured attempt limit.
func (s *Submitter) Submit(ctx context.Context, unit *Unit) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, submitterMetricsName, "Submit")
	defer tracer.End()

	start := time.Now()
	res := &Result{ID: uuid.New()}
	log := s.log.WithFields(logrus.Fields{
		"method": "Submit",
		"id":     res.ID.String(),
	})

	err := s.submit(ctx, log, unit, res)
	if err != nil {
		tracer.OnError(err)
		log.WithError(err).WithField("state", res.State.String()).Warn("submission did not confirm")
	} else {
		log.WithField("signature", base58.Encode(res.Signature[:])).Debug("submission confirmed")
	}

	outcome := map[string]interface{}{
		"id":        res.ID.String(),
		"state":     res.State.String(),
		"attempts":  res.Attempts,
		"signature": base58.Encode(res.Signature[:]),
	}
	if err != nil {
		outcome["error"] = err.Error()
	}
	tracer.AddAttributes(outcome)
	metrics.RecordEvent(ctx, outcomeEventName, outcome)
	metrics.RecordDuration(ctx, latencyMetricName, time.Since(start))
	metrics.RecordCount(ctx, attemptsMetricName, uint64(res.Attempts))

	return res, err
}

func (s *Submitter) submit(ctx context.Context, log *logrus.Entry, unit *Unit, res *Result) error {
	if unit == nil || len(unit.Instructions) == 0 {
		return ErrEmptyUnit
	}
	if err := unit.validateSigners(); err != nil {
		return err
	}

	maxAttempts := s.conf.maxAttempts.Get(ctx)
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	commitment := s.conf.commitmentLevel(ctx)

	for attempt := uint64(1); attempt <= maxAttempts; attempt++ {
		res.Attempts = int(attempt)
		log := log.WithField("attempt", attempt)
		res.transition(log, StateBuilding)

		lastValidBlockHeight, err := s.send(ctx, log, unit, commitment, res)
		if err == nil {
			err = s.awaitConfirmation(ctx, log, res.Signature, lastValidBlockHeight, commitment)
		}

		switch {
		case err == nil:
			res.transition(log, StateConfirmed)
			return nil
		case errors.Is(err, ErrExpired):
			res.transition(log, StateExpired)
			log.Warn("blockhash expired before confirmation")
			continue
		case errors.Is(err, ErrRemoteRejected):
			res.transition(log, StateFailed)
			return err
		default:
			return err
		}
	}

	return errors.Wrapf(ErrExpired, "no confirmation after %d attempts", maxAttempts)
}

// send signs the unit against a fresh blockhash and transmits it, returning
// the last block height at which the blockhash is valid.
func (s *Submitter) send(ctx context.Context, log *logrus.Entry, unit *Unit, commitment solana.Commitment, res *Result) (uint64, error) {
	var lastValidBlockHeight uint64

	_, err := retry.Retry(
		func() error {
			latest, err := s.sc.GetLatestBlockhash(ctx, commitment)
			if err != nil {
				return s.classifyNetworkError(ctx, log, errors.Wrap(err, "failed to get latest blockhash"))
			}

			txn := unit.Transaction()
			txn.SetBlockhash(latest.Blockhash)
			for _, signer := range unit.Signers {
				if err := signer.SignTransaction(ctx, &txn); err != nil {
					return errors.Wrapf(err, "failed to sign with %s", base58.Encode(signer.PublicKey()))
				}
			}
			if missing := txn.MissingSigners(); len(missing) > 0 {
				return errors.Wrapf(ErrIncompleteSigners, "unsigned %s", formatKeys(missing))
			}

			copy(res.Signature[:], txn.Signature())
			lastValidBlockHeight = latest.LastValidBlockHeight
			res.transition(log, StateSigned)

			_, err = s.sc.SubmitTransaction(ctx, txn, commitment)
			if err != nil {
				var txErr *solana.TransactionError
				if errors.As(err, &txErr) {
					if txErr.IsBlockhashExpired() {
						return errors.Wrap(ErrExpired, txErr.Error())
					}
					return &RemoteRejectedError{Signature: res.Signature, Err: txErr}
				}
				if errors.Is(err, solana.ErrTransactionTooLarge) {
					return err
				}
				return s.classifyNetworkError(ctx, log, errors.Wrap(err, "failed to submit transaction"))
			}

			res.transition(log, StateSent)
			return nil
		},
		retry.RetriableErrors(ErrNetworkTransient),
		retry.Limit(uint(s.conf.maxSendRetries.Get(ctx))+1),
		retry.Context(ctx),
		retry.BackoffWithJitter(backoff.BinaryExponential(s.conf.sendBackoff.Get(ctx)), maxSendBackoff, 0.1),
	)
	return lastValidBlockHeight, err
}

// awaitConfirmation polls the signature status until the commitment is
// reached, the node reports a failure, or the block height passes
// lastValidBlockHeight without the transaction having landed.
func (s *Submitter) awaitConfirmation(ctx context.Context, log *logrus.Entry, sig solana.Signature, lastValidBlockHeight uint64, commitment solana.Commitment) error {
	interval := s.conf.pollInterval.Get(ctx)
	maxErrors := s.conf.maxSendRetries.Get(ctx)

	var consecutiveErrors uint64
	for {
		landed, err := s.pollOnce(ctx, sig, lastValidBlockHeight, commitment)
		switch {
		case err == nil && landed:
			return nil
		case err == nil:
			consecutiveErrors = 0
		case errors.Is(err, ErrExpired), errors.Is(err, ErrRemoteRejected):
			return err
		default:
			classified := s.classifyNetworkError(ctx, log, err)
			if !errors.Is(classified, ErrNetworkTransient) {
				return classified
			}
			consecutiveErrors++
			if consecutiveErrors > maxErrors {
				return classified
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (s *Submitter) pollOnce(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64, commitment solana.Commitment) (bool, error) {
	statuses, err := s.sc.GetSignatureStatuses(ctx, []solana.Signature{sig})
	if err != nil {
		return false, errors.Wrap(err, "failed to get signature status")
	}

	if len(statuses) > 0 && statuses[0] != nil {
		status := statuses[0]
		if status.ErrorResult != nil {
			return false, &RemoteRejectedError{Signature: sig, Err: status.ErrorResult}
		}
		// Landed but not yet at the desired depth. The blockhash no longer
		// matters at this point.
		return status.Reached(commitment), nil
	}

	height, err := s.sc.GetBlockHeight(ctx, commitment)
	if err != nil {
		return false, errors.Wrap(err, "failed to get block height")
	}
	if height > lastValidBlockHeight {
		return false, errors.Wrapf(ErrExpired, "block height %d passed %d", height, lastValidBlockHeight)
	}
	return false, nil
}

func (s *Submitter) classifyNetworkError(ctx context.Context, log *logrus.Entry, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	log.WithError(err).Warn("transient network failure")
	return &transientError{cause: err}
}
