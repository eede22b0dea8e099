package model // import "github.com/joincivil/content-moderation-adapter/pkg/model"

import (
	"strconv"
	"strings"

	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
)

// TxStatus is the status of a submitted contract transaction
type TxStatus int

// The numeric values match the codes reported by the ledger
const (
	TxStatusUninitialized TxStatus = iota
	TxStatusPending
	TxStatusProposing
	TxStatusCommitting
	TxStatusRevealing
	TxStatusAccepted
	TxStatusUndetermined
	TxStatusFinalized
	TxStatusCanceled
	TxStatusAppealRevealing
	TxStatusAppealCommitting
	TxStatusReadyToFinalize
	TxStatusValidatorsTimeout
	TxStatusLeaderTimeout

	// TxStatusUnknown is a status token the client does not recognize
	TxStatusUnknown TxStatus = -1
)

var txStatusNames = map[TxStatus]string{
	TxStatusUninitialized:     "UNINITIALIZED",
	TxStatusPending:           "PENDING",
	TxStatusProposing:         "PROPOSING",
	TxStatusCommitting:        "COMMITTING",
	TxStatusRevealing:         "REVEALING",
	TxStatusAccepted:          "ACCEPTED",
	TxStatusUndetermined:      "UNDETERMINED",
	TxStatusFinalized:         "FINALIZED",
	TxStatusCanceled:          "CANCELED",
	TxStatusAppealRevealing:   "APPEAL_REVEALING",
	TxStatusAppealCommitting:  "APPEAL_COMMITTING",
	TxStatusReadyToFinalize:   "READY_TO_FINALIZE",
	TxStatusValidatorsTimeout: "VALIDATORS_TIMEOUT",
	TxStatusLeaderTimeout:     "LEADER_TIMEOUT",
}

// String returns the ledger name of the status
func (s TxStatus) String() string {
	name, ok := txStatusNames[s]
	if !ok {
		return "UNKNOWN"
	}
	return name
}

// Confirmed returns true for accepted or finalized transactions
func (s TxStatus) Confirmed() bool {
	return s == TxStatusAccepted || s == TxStatusFinalized
}

// Rejected returns true for statuses that explicitly report the transaction
// did not go through
func (s TxStatus) Rejected() bool {
	switch s {
	case TxStatusCanceled, TxStatusUndetermined, TxStatusLeaderTimeout, TxStatusValidatorsTimeout:
		return true
	}
	return false
}

// Terminal returns true if no further status change is expected
func (s TxStatus) Terminal() bool {
	return s.Confirmed() || s.Rejected()
}

// TxStatusFromName parses a status name, case insensitive
func TxStatusFromName(name string) TxStatus {
	name = strings.ToUpper(strings.TrimSpace(name))
	for status, statusName := range txStatusNames {
		if statusName == name {
			return status
		}
	}
	return TxStatusUnknown
}

// TxStatusFromToken parses either a status name or its numeric code
func TxStatusFromToken(token string) TxStatus {
	if code, err := strconv.Atoi(strings.TrimSpace(token)); err == nil {
		if _, ok := txStatusNames[TxStatus(code)]; ok {
			return TxStatus(code)
		}
		return TxStatusUnknown
	}
	return TxStatusFromName(token)
}

// TransactionReceipt is the final observed state of a submitted transaction
type TransactionReceipt struct {
	Status TxStatus `json:"status"`
	// StatusName is the token as reported by the ledger
	StatusName string `json:"status_name"`
	Hash       string `json:"hash"`
	// ContractAddress is set when the transaction deployed a contract
	ContractAddress string `json:"contract_address,omitempty"`
	// DecodedPayload holds the side effects reported with the transaction, if any
	DecodedPayload rawvalue.Value `json:"-"`
}
