package moderation // import "github.com/joincivil/content-moderation-adapter/pkg/moderation"

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/joincivil/content-moderation-adapter/pkg/address"
	"github.com/joincivil/content-moderation-adapter/pkg/confirm"
	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
	"github.com/joincivil/content-moderation-adapter/pkg/transport"
)

const (
	addGuidelineMethod    = "add_guideline"
	moderateContentMethod = "moderate_content"
	deployMethod          = "deploy"
)

// AddGuideline submits a new guideline and waits for it to be confirmed
func (c *Client) AddGuideline(ctx context.Context, id string, text string) (*model.TransactionReceipt, error) {
	return c.submit(ctx, addGuidelineMethod, []interface{}{id, text}, c.guidelineBudget)
}

// ModerateContent submits a post for moderation against a guideline and waits
// for the result to be confirmed
func (c *Client) ModerateContent(ctx context.Context, postID string, content string,
	guidelineID string) (*model.TransactionReceipt, error) {
	return c.submit(ctx, moderateContentMethod, []interface{}{postID, content, guidelineID}, c.moderationBudget)
}

// DeployContract deploys contract code with constructor args and waits for
// the deployment. The receipt's ContractAddress is empty if the ledger did
// not report one. No contract address needs to be configured.
func (c *Client) DeployContract(ctx context.Context, code []byte,
	args []interface{}) (*model.TransactionReceipt, error) {
	if c.backend == nil {
		return nil, ErrNoContractConfigured
	}
	if c.backend.Account() == (common.Address{}) {
		return nil, ErrNoAccount
	}
	if args == nil {
		args = []interface{}{}
	}
	hash, err := c.backend.Deploy(ctx, code, args)
	if err != nil {
		return nil, submitError(deployMethod, err)
	}
	log.Infof("Submitted contract deployment %v", hash.Hex())
	receipt, err := c.waitForReceipt(ctx, hash, c.deployBudget)
	if err != nil {
		return receipt, err
	}
	if receipt.ContractAddress == "" {
		log.Warningf("Deployment %v confirmed without a contract address", hash.Hex())
	}
	return receipt, nil
}

func (c *Client) submit(ctx context.Context, method string, args []interface{},
	budget confirm.Budget) (*model.TransactionReceipt, error) {
	if c.configErr != nil {
		return nil, c.configErr
	}
	if c.backend.Account() == (common.Address{}) {
		return nil, ErrNoAccount
	}
	hash, err := c.backend.Write(ctx, c.contract, method, args, big.NewInt(0))
	if err != nil {
		return nil, submitError(method, err)
	}
	log.Infof("Submitted %v as %v", method, hash.Hex())
	return c.waitForReceipt(ctx, hash, budget)
}

// submitError separates writes that were sent but could not be tracked from
// writes that never reached the ledger
func submitError(method string, err error) error {
	var unconfirmed *transport.UnconfirmedSubmissionError
	if errors.As(err, &unconfirmed) {
		log.Errorf("Submitted %v as %v but its outcome is unknown: %v", method, unconfirmed.Submission.Hex(), err)
		return &SubmissionUnconfirmedError{Method: method, Submission: unconfirmed.Submission, Err: err}
	}
	return &SubmissionError{Method: method, Err: err}
}

// waitForReceipt waits for the transaction. A rejected transaction returns its
// receipt along with the error.
func (c *Client) waitForReceipt(ctx context.Context, hash transport.TxHash,
	budget confirm.Budget) (*model.TransactionReceipt, error) {
	result, err := c.watcher.Wait(ctx, hash, budget)
	if err != nil {
		return nil, err
	}
	switch result.State {
	case confirm.StateConfirmed:
		receipt := c.receipt(hash, result.Report)
		log.Infof("Transaction %v confirmed as %v", hash.Hex(), receipt.Status)
		return receipt, nil
	case confirm.StateFailed:
		receipt := c.receipt(hash, result.Report)
		return receipt, &TransactionFailedError{Hash: hash, Status: receipt.Status}
	}
	return nil, &ConfirmationTimeoutError{Hash: hash, Attempts: result.Attempts}
}

func (c *Client) receipt(hash transport.TxHash, report *transport.StatusReport) *model.TransactionReceipt {
	receipt := &model.TransactionReceipt{
		Status:         report.Effective(),
		StatusName:     report.StatusName,
		Hash:           hash.Hex(),
		DecodedPayload: report.Payload,
	}
	payload, ok := report.Payload.(rawvalue.Entries)
	if !ok {
		return receipt
	}
	for _, name := range []string{transport.ContractAddressFieldName, transport.DecodedContractAddressFieldName} {
		if v, ok := payload.Get(name); ok {
			receipt.ContractAddress = address.Normalize(v, c.sink)
			break
		}
	}
	return receipt
}
