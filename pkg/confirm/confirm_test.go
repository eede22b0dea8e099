package confirm_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/joincivil/content-moderation-adapter/pkg/confirm"
	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/transport"
)

var testHash = transport.HexToTxHash("0x5c1d5d5ab1b4bf5a6d70e0b5e29d6cbd4ef0c35d7af3c23d0b9d9f5ac1ba4f0e")

// scriptedReader reports the scripted statuses in order, repeating the last
type scriptedReader struct {
	mu       sync.Mutex
	statuses []model.TxStatus
	errs     []error
	checks   int
}

func (r *scriptedReader) TransactionStatus(ctx context.Context, hash transport.TxHash) (*transport.StatusReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.checks
	r.checks++
	if idx < len(r.errs) && r.errs[idx] != nil {
		return nil, r.errs[idx]
	}
	status := model.TxStatusPending
	if len(r.statuses) > 0 {
		if idx >= len(r.statuses) {
			idx = len(r.statuses) - 1
		}
		status = r.statuses[idx]
	}
	return &transport.StatusReport{Status: status, StatusName: status.String(), Hash: hash.Hex()}, nil
}

func (r *scriptedReader) Checks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checks
}

func instantWatcher(reader transport.StatusReader) (*confirm.Watcher, *confirm.InstantTimer) {
	factory, timer := confirm.InstantTimers()
	return &confirm.Watcher{Reader: reader, NewTimer: factory}, timer
}

func TestWaitConfirmsAfterPending(t *testing.T) {
	reader := &scriptedReader{statuses: []model.TxStatus{
		model.TxStatusPending, model.TxStatusPending, model.TxStatusAccepted,
	}}
	watcher, timer := instantWatcher(reader)
	result, err := watcher.Wait(context.Background(), testHash, confirm.Budget{Retries: 10, Interval: time.Second})
	if err != nil {
		t.Fatalf("Should not have failed: err: %v", err)
	}
	if result.State != confirm.StateConfirmed {
		t.Errorf("Should have confirmed, got %v", result.State)
	}
	if result.Attempts != 3 || reader.Checks() != 3 {
		t.Errorf("Should have checked 3 times, got %v/%v", result.Attempts, reader.Checks())
	}
	waits := timer.Waits()
	if len(waits) != 2 {
		t.Fatalf("Should have waited twice, got %v", len(waits))
	}
	for _, w := range waits {
		if w != time.Second {
			t.Errorf("Should have waited the interval, got %v", w)
		}
	}
	if result.Report == nil || result.Report.Status != model.TxStatusAccepted {
		t.Errorf("Should have kept the last report")
	}
}

func TestWaitFinalizedByCode(t *testing.T) {
	reader := &scriptedReader{statuses: []model.TxStatus{model.TxStatusFinalized}}
	watcher, _ := instantWatcher(reader)
	result, err := watcher.Wait(context.Background(), testHash, confirm.Budget{Retries: 1})
	if err != nil {
		t.Fatalf("Should not have failed: err: %v", err)
	}
	if result.State != confirm.StateConfirmed {
		t.Errorf("Should have confirmed, got %v", result.State)
	}
}

func TestWaitTimesOut(t *testing.T) {
	reader := &scriptedReader{}
	watcher, timer := instantWatcher(reader)
	result, err := watcher.Wait(context.Background(), testHash, confirm.Budget{Retries: 5, Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("Timing out should not be an error: err: %v", err)
	}
	if result.State != confirm.StateTimedOut {
		t.Errorf("Should have timed out, got %v", result.State)
	}
	if result.State == confirm.StateFailed {
		t.Errorf("Timing out should not be reported as failure")
	}
	if reader.Checks() != 5 {
		t.Errorf("Should have used the whole budget of 5 checks, got %v", reader.Checks())
	}
	if len(timer.Waits()) != 4 {
		t.Errorf("Should have waited between checks only, got %v waits", len(timer.Waits()))
	}
}

func TestWaitRejectedFailsImmediately(t *testing.T) {
	rejections := []model.TxStatus{
		model.TxStatusCanceled, model.TxStatusUndetermined,
		model.TxStatusLeaderTimeout, model.TxStatusValidatorsTimeout,
	}
	for _, status := range rejections {
		reader := &scriptedReader{statuses: []model.TxStatus{model.TxStatusPending, status}}
		watcher, _ := instantWatcher(reader)
		result, err := watcher.Wait(context.Background(), testHash, confirm.Budget{Retries: 60, Interval: time.Second})
		if err != nil {
			t.Fatalf("Should not have failed: err: %v", err)
		}
		if result.State != confirm.StateFailed {
			t.Errorf("%v: should have failed, got %v", status, result.State)
		}
		if reader.Checks() != 2 {
			t.Errorf("%v: should have stopped at the rejection, got %v checks", status, reader.Checks())
		}
	}
}

func TestWaitLookupErrorsArePending(t *testing.T) {
	lookupErr := errors.New("connection reset")
	reader := &scriptedReader{
		statuses: []model.TxStatus{model.TxStatusPending, model.TxStatusPending, model.TxStatusAccepted},
		errs:     []error{lookupErr, lookupErr},
	}
	watcher, _ := instantWatcher(reader)
	result, err := watcher.Wait(context.Background(), testHash, confirm.Budget{Retries: 5})
	if err != nil {
		t.Fatalf("Lookup errors should not fail the poll: err: %v", err)
	}
	if result.State != confirm.StateConfirmed {
		t.Errorf("Should have confirmed after the errors, got %v", result.State)
	}
}

// cancelingTimer cancels the poll the first time it is started and never fires
type cancelingTimer struct {
	cancel context.CancelFunc
	c      chan time.Time
}

func (t *cancelingTimer) Start(time.Duration) { t.cancel() }
func (t *cancelingTimer) Stop() {}
func (t *cancelingTimer) C() <-chan time.Time { return t.c }

func TestWaitCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &scriptedReader{}
	timer := &cancelingTimer{cancel: cancel, c: make(chan time.Time)}
	watcher := &confirm.Watcher{
		Reader:   reader,
		NewTimer: func() backoff.Timer { return timer },
	}
	result, err := watcher.Wait(ctx, testHash, confirm.Budget{Retries: 60, Interval: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Should have returned the cancellation, got %v", err)
	}
	if result != nil {
		t.Errorf("Should not have returned a result")
	}
	if reader.Checks() != 1 {
		t.Errorf("Should not have checked again after cancel, got %v checks", reader.Checks())
	}
}

func TestWaitAlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader := &scriptedReader{}
	watcher, _ := instantWatcher(reader)
	_, err := watcher.Wait(ctx, testHash, confirm.Budget{Retries: 5})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Should have returned the cancellation, got %v", err)
	}
	if reader.Checks() > 1 {
		t.Errorf("Should not have kept checking, got %v checks", reader.Checks())
	}
}

func TestBudgetMaxWait(t *testing.T) {
	b := confirm.Budget{Retries: 24, Interval: 5 * time.Second}
	if b.MaxWait() != 115*time.Second {
		t.Errorf("Should have been 115s, got %v", b.MaxWait())
	}
	if (confirm.Budget{}).MaxWait() != 0 {
		t.Errorf("Empty budget should not wait")
	}
}
