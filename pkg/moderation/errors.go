package moderation // import "github.com/joincivil/content-moderation-adapter/pkg/moderation"

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/transport"
)

var (
	// ErrNoContractConfigured is returned when the client has no contract
	// address or no backend to reach it
	ErrNoContractConfigured = errors.New("No contract address configured")

	// ErrNoAccount is returned by writes on a client with no account
	ErrNoAccount = errors.New("No account configured for writes")

	// ErrSubmissionUnconfirmed is the cause of every SubmissionUnconfirmedError
	ErrSubmissionUnconfirmed = transport.ErrSubmissionUnconfirmed

	// ErrConfirmationTimeout is the cause of every ConfirmationTimeoutError
	ErrConfirmationTimeout = errors.New("Transaction not confirmed in time")
)

// FetchError is returned when a primary read fails in the transport
type FetchError struct {
	Method string
	Err    error
}

// Error implements error
func (e *FetchError) Error() string {
	return fmt.Sprintf("Error fetching %v: %v", e.Method, e.Err)
}

// Cause returns the transport error
func (e *FetchError) Cause() error { return e.Err }

// Unwrap returns the transport error
func (e *FetchError) Unwrap() error { return e.Err }

// SubmissionError is returned when a write never entered the pending pool
type SubmissionError struct {
	Method string
	Err    error
}

// Error implements error
func (e *SubmissionError) Error() string {
	return fmt.Sprintf("Error submitting %v: %v", e.Method, e.Err)
}

// Cause returns the transport error
func (e *SubmissionError) Cause() error { return e.Err }

// Unwrap returns the transport error
func (e *SubmissionError) Unwrap() error { return e.Err }

// SubmissionUnconfirmedError is returned when a write was sent but its ledger
// transaction could not be identified. The write may still execute and must
// not be resubmitted blindly.
type SubmissionUnconfirmedError struct {
	Method string
	// Submission is the hash of the transaction carrying the write
	Submission common.Hash
	Err        error
}

// Error implements error
func (e *SubmissionUnconfirmedError) Error() string {
	return fmt.Sprintf("Submitted %v as %v, outcome unknown: %v", e.Method, e.Submission.Hex(), e.Err)
}

// Cause returns ErrSubmissionUnconfirmed
func (e *SubmissionUnconfirmedError) Cause() error { return ErrSubmissionUnconfirmed }

// Unwrap returns the transport error
func (e *SubmissionUnconfirmedError) Unwrap() error { return e.Err }

// ConfirmationTimeoutError is returned when a transaction was still pending
// after the whole poll budget. The transaction may still confirm later.
type ConfirmationTimeoutError struct {
	Hash     transport.TxHash
	Attempts int
}

// Error implements error
func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("Transaction %v not confirmed after %v checks", e.Hash.Hex(), e.Attempts)
}

// Cause returns ErrConfirmationTimeout
func (e *ConfirmationTimeoutError) Cause() error { return ErrConfirmationTimeout }

// Unwrap returns ErrConfirmationTimeout
func (e *ConfirmationTimeoutError) Unwrap() error { return ErrConfirmationTimeout }

// TransactionFailedError is returned when the ledger rejected a transaction
type TransactionFailedError struct {
	Hash   transport.TxHash
	Status model.TxStatus
}

// Error implements error
func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("Transaction %v failed with status %v", e.Hash.Hex(), e.Status)
}
