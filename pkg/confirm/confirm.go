// Package confirm polls submitted transactions until they reach a final
// state or the poll budget runs out.
package confirm // import "github.com/joincivil/content-moderation-adapter/pkg/confirm"

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/golang/glog"

	"github.com/joincivil/content-moderation-adapter/pkg/transport"
)

// State is the state of a watched transaction
type State int

const (
	// StatePending is a transaction with no final status yet
	StatePending State = iota
	// StateConfirmed is an accepted or finalized transaction
	StateConfirmed
	// StateFailed is a transaction the ledger explicitly rejected
	StateFailed
	// StateTimedOut is a transaction still pending when the budget ran out
	StateTimedOut
)

// String returns the name of the state
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed out"
	}
	return "unknown"
}

// Budget bounds a poll: at most Retries status checks, Interval apart
type Budget struct {
	Retries  int
	Interval time.Duration
}

// MaxWait is the longest time the budget can wait between checks in total
func (b Budget) MaxWait() time.Duration {
	if b.Retries <= 1 {
		return 0
	}
	return time.Duration(b.Retries-1) * b.Interval
}

func (b Budget) checks() int {
	if b.Retries < 1 {
		return 1
	}
	return b.Retries
}

// Result is the outcome of a poll
type Result struct {
	State State
	// Report is the last status observed, nil if no lookup succeeded
	Report *transport.StatusReport
	// Attempts is the number of status checks made
	Attempts int
}

var errStillPending = errors.New("transaction still pending")

// Watcher polls a status reader. NewTimer supplies the timer for each poll;
// nil uses real time.
type Watcher struct {
	Reader   transport.StatusReader
	NewTimer func() backoff.Timer
}

// NewWatcher returns a Watcher using real time
func NewWatcher(reader transport.StatusReader) *Watcher {
	return &Watcher{Reader: reader}
}

func (w *Watcher) timer() backoff.Timer {
	if w.NewTimer == nil {
		return nil
	}
	return w.NewTimer()
}

// Wait checks the status of the transaction until it is confirmed or
// rejected, or the budget is used up. The first check is immediate. Lookup
// errors count as a pending check. Timing out is reported as StateTimedOut
// with a nil error; the only errors returned are from ctx, after which no
// further checks are made.
func (w *Watcher) Wait(ctx context.Context, hash transport.TxHash, budget Budget) (*Result, error) {
	result := &Result{State: StatePending}

	check := func() error {
		result.Attempts++
		report, err := w.Reader.TransactionStatus(ctx, hash)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			log.Warningf("Error checking status of %v, still pending: err: %v", hash.Hex(), err)
			return errStillPending
		}
		result.Report = report
		status := report.Effective()
		switch {
		case status.Confirmed():
			result.State = StateConfirmed
			return nil
		case status.Rejected():
			result.State = StateFailed
			return nil
		}
		return errStillPending
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(budget.Interval), uint64(budget.checks()-1)),
		ctx,
	)
	notify := func(err error, next time.Duration) {
		if log.V(2) {
			log.Infof("Transaction %v check %v: %v, next check in %v", hash.Hex(), result.Attempts, err, next)
		}
	}

	err := backoff.RetryNotifyWithTimer(check, policy, notify, w.timer())
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, errStillPending):
		result.State = StateTimedOut
		return result, nil
	}
	return nil, err
}
