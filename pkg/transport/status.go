package transport // import "github.com/joincivil/content-moderation-adapter/pkg/transport"

import (
	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
)

const (
	statusFieldName     = "status"
	statusNameFieldName = "statusName"
	hashFieldName       = "hash"
	txIDFieldName       = "tx_id"
	resultFieldName     = "result"
	dataFieldName       = "data"
	decodedFieldName    = "txDataDecoded"

	// ContractAddressFieldName is the deployed address field on localnet payloads
	ContractAddressFieldName = "contract_address"
	// DecodedContractAddressFieldName is the deployed address field on decoded
	// public network payloads
	DecodedContractAddressFieldName = "contractAddress"
)

// StatusReport is a single observation of a transaction's state
type StatusReport struct {
	Status model.TxStatus
	// StatusName is the token as reported, before classification
	StatusName string
	Hash       string
	// HasResult is true when a localnet style result is attached
	HasResult bool
	// Payload is the side effect structure reported with the transaction,
	// either the localnet data object or the decoded public network data
	Payload rawvalue.Value
	// Raw is the whole transaction object
	Raw rawvalue.Value
}

// ParseStatusReport classifies a raw transaction object. A named status wins
// over a numeric one. Unrecognized shapes yield an unknown status, which
// callers treat as still pending.
func ParseStatusReport(raw rawvalue.Value) *StatusReport {
	report := &StatusReport{Status: model.TxStatusUnknown, Raw: raw}
	entries, ok := raw.(rawvalue.Entries)
	if !ok {
		return report
	}
	if v, ok := entries.Get(statusNameFieldName); ok {
		report.StatusName = rawvalue.KeyString(v)
		report.Status = model.TxStatusFromName(report.StatusName)
	}
	if report.Status == model.TxStatusUnknown {
		if v, ok := entries.Get(statusFieldName); ok {
			report.StatusName = rawvalue.KeyString(v)
			report.Status = model.TxStatusFromToken(report.StatusName)
		}
	}
	if v, ok := entries.Get(hashFieldName); ok {
		report.Hash = rawvalue.KeyString(v)
	} else if v, ok := entries.Get(txIDFieldName); ok {
		report.Hash = rawvalue.KeyString(v)
	}
	if v, ok := entries.Get(resultFieldName); ok {
		_, isNull := v.(rawvalue.Null)
		report.HasResult = !isNull
	}
	if v, ok := entries.Get(decodedFieldName); ok && v.Kind() == rawvalue.KindEntries {
		report.Payload = v
	} else if v, ok := entries.Get(dataFieldName); ok && v.Kind() == rawvalue.KindEntries {
		report.Payload = v
	}
	return report
}

// Effective returns the status used to classify the report. A report with no
// recognized status that already carries a result counts as accepted.
func (r *StatusReport) Effective() model.TxStatus {
	if r.Status == model.TxStatusUnknown && r.HasResult {
		return model.TxStatusAccepted
	}
	return r.Status
}
