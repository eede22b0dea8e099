package transport // import "github.com/joincivil/content-moderation-adapter/pkg/transport"

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrSubmissionUnconfirmed is the cause of every UnconfirmedSubmissionError
	ErrSubmissionUnconfirmed = errors.New("Submission sent but its ledger transaction is unknown")
)

// UnconfirmedSubmissionError is returned by writes that were accepted by the
// node but whose ledger transaction id could not be learned. The transaction
// may still execute, so the write must not be treated as rejected.
type UnconfirmedSubmissionError struct {
	// Submission is the hash of the transaction carrying the write
	Submission common.Hash
	Reason     string
}

// Error implements error
func (e *UnconfirmedSubmissionError) Error() string {
	return fmt.Sprintf("Submission %v sent, outcome unknown: %v", e.Submission.Hex(), e.Reason)
}

// Cause returns ErrSubmissionUnconfirmed
func (e *UnconfirmedSubmissionError) Cause() error { return ErrSubmissionUnconfirmed }

// Unwrap returns ErrSubmissionUnconfirmed
func (e *UnconfirmedSubmissionError) Unwrap() error { return ErrSubmissionUnconfirmed }
