package moderation // import "github.com/joincivil/content-moderation-adapter/pkg/moderation"

import (
	"context"

	log "github.com/golang/glog"

	"golang.org/x/sync/errgroup"

	"github.com/joincivil/content-moderation-adapter/pkg/flatten"
	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
)

const (
	getAllGuidelinesMethod         = "get_all_guidelines"
	getGuidelineMethod             = "get_guideline"
	getModerationResultMethod      = "get_moderation_result"
	getPostModerationResultsMethod = "get_post_moderation_results"
	getAllModerationResultsMethod  = "get_all_moderation_results"
	getResultsPaginatedMethod      = "get_moderation_results_paginated"

	idFieldName          = "id"
	textFieldName        = "text"
	postIDFieldName      = "post_id"
	guidelineIDFieldName = "guideline_id"
	postContentFieldName = "post_content"
	outcomeFieldName     = "outcome"
	reasoningFieldName   = "reasoning"

	resultsFieldName    = "results"
	totalFieldName      = "total"
	pageFieldName       = "page"
	perPageFieldName    = "per_page"
	totalPagesFieldName = "total_pages"
)

func (c *Client) read(ctx context.Context, method string, args ...interface{}) (rawvalue.Value, error) {
	if args == nil {
		args = []interface{}{}
	}
	raw, err := c.backend.Read(ctx, c.contract, method, args)
	if err != nil {
		return nil, &FetchError{Method: method, Err: err}
	}
	c.sink.Tracef("%v returned %v", method, rawvalue.Describe(raw))
	return raw, nil
}

// Guidelines returns every guideline on the contract
func (c *Client) Guidelines(ctx context.Context) ([]*model.Guideline, error) {
	guidelines := []*model.Guideline{}
	if c.configErr != nil {
		return guidelines, nil
	}
	raw, err := c.read(ctx, getAllGuidelinesMethod)
	if err != nil {
		return nil, err
	}
	for _, rec := range c.flattener.Flatten(raw, flatten.TwoLevel(idFieldName)) {
		guidelines = append(guidelines, guidelineFromRecord(rec))
	}
	return guidelines, nil
}

// Guideline returns the guideline with the id, or nil if there is none or the
// contract returns an empty record. Read failures are logged and also return
// nil.
func (c *Client) Guideline(ctx context.Context, id string) (*model.Guideline, error) {
	if c.configErr != nil {
		return nil, nil
	}
	raw, err := c.read(ctx, getGuidelineMethod, id)
	if err != nil {
		log.Errorf("Error retrieving guideline %v: err: %v", id, err)
		return nil, nil
	}
	rec, ok := c.flattener.FlattenRecord(raw)
	if !ok || len(rec) == 0 {
		return nil, nil
	}
	if rec.Text(idFieldName) == "" {
		rec.Set(idFieldName, rawvalue.String(id))
	}
	return guidelineFromRecord(rec), nil
}

// ModerationResults returns every moderation result on the contract
func (c *Client) ModerationResults(ctx context.Context) ([]*model.ModerationResult, error) {
	results := []*model.ModerationResult{}
	if c.configErr != nil {
		return results, nil
	}
	raw, err := c.read(ctx, getAllModerationResultsMethod)
	if err != nil {
		return nil, err
	}
	shape := flatten.ThreeLevel(postIDFieldName, guidelineIDFieldName)
	for _, rec := range c.flattener.Flatten(raw, shape) {
		results = append(results, c.resultFromRecord(rec))
	}
	return results, nil
}

// FilteredModerationResults returns the moderation results matching the
// filter. A nil filter matches everything.
func (c *Client) FilteredModerationResults(ctx context.Context,
	filter *model.ModerationFilter) ([]*model.ModerationResult, error) {
	results, err := c.ModerationResults(ctx)
	if err != nil {
		return nil, err
	}
	return model.FilterModerationResults(results, filter), nil
}

// ModerationResultsPaginated returns one page of moderation results, newest
// first as ordered by the contract. Page values are passed through as given;
// pages past the end are empty. Missing paging fields are zero.
func (c *Client) ModerationResultsPaginated(ctx context.Context, page int64,
	perPage int64) (*model.PaginatedModerationResults, error) {
	paginated := &model.PaginatedModerationResults{Results: []*model.ModerationResult{}}
	if c.configErr != nil {
		return paginated, nil
	}
	raw, err := c.read(ctx, getResultsPaginatedMethod, page, perPage)
	if err != nil {
		return nil, err
	}
	rec, ok := c.flattener.FlattenRecord(raw)
	if !ok {
		c.sink.Anomalyf("%v returned %v", getResultsPaginatedMethod, rawvalue.Describe(raw))
		return paginated, nil
	}
	if items, ok := rec.Get(resultsFieldName); ok {
		for _, item := range c.flattener.FlattenItems(items) {
			paginated.Results = append(paginated.Results, c.resultFromRecord(item))
		}
	}
	paginated.Total = rec.Int(totalFieldName)
	paginated.Page = rec.Int(pageFieldName)
	paginated.PerPage = rec.Int(perPageFieldName)
	paginated.TotalPages = rec.Int(totalPagesFieldName)
	return paginated, nil
}

// PostModerationResults returns the results for one post, one per guideline.
// Read failures are logged and return an empty slice.
func (c *Client) PostModerationResults(ctx context.Context, postID string) ([]*model.ModerationResult, error) {
	results := []*model.ModerationResult{}
	if c.configErr != nil {
		return results, nil
	}
	raw, err := c.read(ctx, getPostModerationResultsMethod, postID)
	if err != nil {
		log.Errorf("Error retrieving moderation results for post %v: err: %v", postID, err)
		return results, nil
	}
	for _, rec := range c.flattener.Flatten(raw, flatten.TwoLevel(guidelineIDFieldName)) {
		rec.Set(postIDFieldName, rawvalue.String(postID))
		results = append(results, c.resultFromRecord(rec))
	}
	return results, nil
}

// ModerationResult returns the result of a post against a guideline, or nil.
// Read failures are logged and also return nil.
func (c *Client) ModerationResult(ctx context.Context, postID string,
	guidelineID string) (*model.ModerationResult, error) {
	if c.configErr != nil {
		return nil, nil
	}
	raw, err := c.read(ctx, getModerationResultMethod, postID, guidelineID)
	if err != nil {
		log.Errorf("Error retrieving moderation result %v/%v: err: %v", postID, guidelineID, err)
		return nil, nil
	}
	rec, ok := c.flattener.FlattenRecord(raw)
	if !ok || len(rec) == 0 {
		return nil, nil
	}
	if rec.Text(postIDFieldName) == "" {
		rec.Set(postIDFieldName, rawvalue.String(postID))
	}
	if rec.Text(guidelineIDFieldName) == "" {
		rec.Set(guidelineIDFieldName, rawvalue.String(guidelineID))
	}
	return c.resultFromRecord(rec), nil
}

// ContractSnapshot is the full state of the contract at one point
type ContractSnapshot struct {
	Guidelines []*model.Guideline
	Results    []*model.ModerationResult
}

// Snapshot reads all guidelines and all moderation results concurrently
func (c *Client) Snapshot(ctx context.Context) (*ContractSnapshot, error) {
	snap := &ContractSnapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		guidelines, err := c.Guidelines(gctx)
		snap.Guidelines = guidelines
		return err
	})
	g.Go(func() error {
		results, err := c.ModerationResults(gctx)
		snap.Results = results
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func guidelineFromRecord(rec flatten.Record) *model.Guideline {
	return model.NewGuideline(
		rec.Text(idFieldName),
		rec.Text(textFieldName),
		rec.Text(flatten.CreatorAddressFieldName),
	)
}

func (c *Client) resultFromRecord(rec flatten.Record) *model.ModerationResult {
	result := &model.ModerationResult{
		PostID:           rec.Text(postIDFieldName),
		GuidelineID:      rec.Text(guidelineIDFieldName),
		PostContent:      rec.Text(postContentFieldName),
		Outcome:          model.Outcome(rec.Text(outcomeFieldName)),
		Reasoning:        rec.Text(reasoningFieldName),
		ModeratorAddress: rec.Text(flatten.ModeratorAddressFieldName),
	}
	if !result.Outcome.Known() {
		c.sink.Anomalyf("Unknown outcome %q for %v/%v", result.Outcome, result.PostID, result.GuidelineID)
	}
	return result
}
