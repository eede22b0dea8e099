// Package simulated contains an in-memory moderation contract and a ledger
// backend around it. It follows the rules of the deployed contract closely
// enough to stand in for a node in tests and local runs.
package simulated // import "github.com/joincivil/content-moderation-adapter/pkg/simulated"

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
)

// Contract method names
const (
	MethodGetAllGuidelines         = "get_all_guidelines"
	MethodGetGuideline             = "get_guideline"
	MethodGetModerationResult      = "get_moderation_result"
	MethodGetPostModerationResults = "get_post_moderation_results"
	MethodGetAllModerationResults  = "get_all_moderation_results"
	MethodGetResultsPaginated      = "get_moderation_results_paginated"
	MethodAddGuideline             = "add_guideline"
	MethodModerateContent          = "moderate_content"
)

// Evaluator decides the outcome of content against a guideline text
type Evaluator func(content string, guidelineText string) (model.Outcome, string)

// KeywordEvaluator removes content containing any of the keywords, case
// insensitive, and keeps everything else
func KeywordEvaluator(keywords ...string) Evaluator {
	return func(content string, guidelineText string) (model.Outcome, string) {
		lower := strings.ToLower(content)
		for _, keyword := range keywords {
			if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
				return model.OutcomeRemove, fmt.Sprintf("Content mentions %q", keyword)
			}
		}
		return model.OutcomeKeep, "Content follows the guideline"
	}
}

// AddressStyle selects how addresses are encoded in contract responses
type AddressStyle int

const (
	// NativeAddresses returns addresses as native address values
	NativeAddresses AddressStyle = iota
	// IndexedByteAddresses returns addresses as a structure keyed 0..19
	IndexedByteAddresses
	// HexStringAddresses returns addresses as 0x prefixed strings
	HexStringAddresses
)

// ContractError is raised by the contract when a call is rejected
type ContractError struct {
	Method string
	Msg    string
}

// Error implements error
func (e *ContractError) Error() string {
	return fmt.Sprintf("%v: %v", e.Method, e.Msg)
}

type guideline struct {
	id      string
	text    string
	creator common.Address
}

type result struct {
	postID      string
	guidelineID string
	content     string
	outcome     model.Outcome
	reasoning   string
	moderator   common.Address
}

// Contract is the in-memory moderation contract
type Contract struct {
	Evaluator    Evaluator
	AddressStyle AddressStyle

	mu         sync.RWMutex
	guidelines map[string]*guideline
	results    map[string]map[string]*result
}

// NewContract returns an empty contract. A nil evaluator keeps all content.
func NewContract(evaluator Evaluator) *Contract {
	if evaluator == nil {
		evaluator = KeywordEvaluator()
	}
	return &Contract{
		Evaluator:  evaluator,
		guidelines: map[string]*guideline{},
		results:    map[string]map[string]*result{},
	}
}

// Call runs a view method
func (c *Contract) Call(method string, args []rawvalue.Value) (rawvalue.Value, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch method {
	case MethodGetAllGuidelines:
		return c.allGuidelines(), nil

	case MethodGetGuideline:
		id, err := stringArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		g, ok := c.guidelines[id]
		if !ok {
			return rawvalue.Null{}, nil
		}
		return c.guidelineValue(g), nil

	case MethodGetModerationResult:
		postID, err := stringArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		guidelineID, err := stringArg(method, args, 1)
		if err != nil {
			return nil, err
		}
		r, ok := c.results[postID][guidelineID]
		if !ok {
			return rawvalue.Null{}, nil
		}
		return c.resultValue(r), nil

	case MethodGetPostModerationResults:
		postID, err := stringArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		return c.postResults(postID), nil

	case MethodGetAllModerationResults:
		out := rawvalue.Entries{}
		for _, postID := range sortedKeys(c.results) {
			out = append(out, rawvalue.Pair{Key: rawvalue.String(postID), Value: c.postResults(postID)})
		}
		return out, nil

	case MethodGetResultsPaginated:
		page, err := intArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		perPage, err := intArg(method, args, 1)
		if err != nil {
			return nil, err
		}
		return c.paginated(page, perPage), nil
	}
	return nil, &ContractError{Method: method, Msg: "unknown view method"}
}

// Execute runs a write method on behalf of the sender. On error the state is
// left unchanged.
func (c *Contract) Execute(sender common.Address, method string, args []rawvalue.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch method {
	case MethodAddGuideline:
		id, err := stringArg(method, args, 0)
		if err != nil {
			return err
		}
		text, err := stringArg(method, args, 1)
		if err != nil {
			return err
		}
		if _, ok := c.guidelines[id]; ok {
			return &ContractError{Method: method, Msg: "Guideline ID already exists"}
		}
		if strings.TrimSpace(id) == "" || strings.TrimSpace(text) == "" {
			return &ContractError{Method: method, Msg: "Guideline ID and text cannot be empty"}
		}
		c.guidelines[id] = &guideline{id: id, text: text, creator: sender}
		return nil

	case MethodModerateContent:
		postID, err := stringArg(method, args, 0)
		if err != nil {
			return err
		}
		content, err := stringArg(method, args, 1)
		if err != nil {
			return err
		}
		guidelineID, err := stringArg(method, args, 2)
		if err != nil {
			return err
		}
		g, ok := c.guidelines[guidelineID]
		if !ok {
			return &ContractError{Method: method, Msg: "Guideline not found"}
		}
		if strings.TrimSpace(postID) == "" || strings.TrimSpace(content) == "" {
			return &ContractError{Method: method, Msg: "Post ID and content cannot be empty"}
		}
		outcome, reasoning := c.Evaluator(content, g.text)
		if !outcome.Known() {
			return &ContractError{Method: method, Msg: "Invalid moderation outcome from AI"}
		}
		if c.results[postID] == nil {
			c.results[postID] = map[string]*result{}
		}
		c.results[postID][guidelineID] = &result{
			postID:      postID,
			guidelineID: guidelineID,
			content:     content,
			outcome:     outcome,
			reasoning:   reasoning,
			moderator:   sender,
		}
		return nil
	}
	return &ContractError{Method: method, Msg: "unknown write method"}
}

func (c *Contract) allGuidelines() rawvalue.Value {
	out := rawvalue.Entries{}
	ids := make([]string, 0, len(c.guidelines))
	for id := range c.guidelines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, rawvalue.Pair{Key: rawvalue.String(id), Value: c.guidelineValue(c.guidelines[id])})
	}
	return out
}

func (c *Contract) postResults(postID string) rawvalue.Entries {
	out := rawvalue.Entries{}
	byGuideline := c.results[postID]
	ids := make([]string, 0, len(byGuideline))
	for id := range byGuideline {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, rawvalue.Pair{Key: rawvalue.String(id), Value: c.resultValue(byGuideline[id])})
	}
	return out
}

// paginated lists results in storage order, reversed so the newest come
// first, and slices out the 1-indexed page
func (c *Contract) paginated(page int64, perPage int64) rawvalue.Value {
	all := []rawvalue.Value{}
	for _, postID := range sortedKeys(c.results) {
		for _, pair := range c.postResults(postID) {
			all = append(all, pair.Value)
		}
	}
	total := int64(len(all))
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}

	pageResults := rawvalue.List{}
	if page > 0 && perPage > 0 {
		start := (page - 1) * perPage
		end := start + perPage
		if end > total {
			end = total
		}
		for i := start; i < end; i++ {
			pageResults = append(pageResults, all[i])
		}
	}
	return rawvalue.Entries{
		{Key: rawvalue.String("results"), Value: pageResults},
		{Key: rawvalue.String("total"), Value: rawvalue.Int(total)},
		{Key: rawvalue.String("page"), Value: rawvalue.Int(page)},
		{Key: rawvalue.String("per_page"), Value: rawvalue.Int(perPage)},
		{Key: rawvalue.String("total_pages"), Value: rawvalue.Int(model.TotalPagesFor(total, perPage))},
	}
}

func (c *Contract) guidelineValue(g *guideline) rawvalue.Value {
	return rawvalue.Entries{
		{Key: rawvalue.String("id"), Value: rawvalue.String(g.id)},
		{Key: rawvalue.String("text"), Value: rawvalue.String(g.text)},
		{Key: rawvalue.String("creator_address"), Value: c.addressValue(g.creator)},
	}
}

func (c *Contract) resultValue(r *result) rawvalue.Value {
	return rawvalue.Entries{
		{Key: rawvalue.String("post_id"), Value: rawvalue.String(r.postID)},
		{Key: rawvalue.String("guideline_id"), Value: rawvalue.String(r.guidelineID)},
		{Key: rawvalue.String("post_content"), Value: rawvalue.String(r.content)},
		{Key: rawvalue.String("outcome"), Value: rawvalue.String(string(r.outcome))},
		{Key: rawvalue.String("reasoning"), Value: rawvalue.String(r.reasoning)},
		{Key: rawvalue.String("moderator_address"), Value: c.addressValue(r.moderator)},
	}
}

func (c *Contract) addressValue(addr common.Address) rawvalue.Value {
	switch c.AddressStyle {
	case IndexedByteAddresses:
		out := rawvalue.Entries{}
		for i, b := range addr {
			out = append(out, rawvalue.Pair{Key: rawvalue.Int(int64(i)), Value: rawvalue.Int(int64(b))})
		}
		return out
	case HexStringAddresses:
		return rawvalue.String(rawvalue.Address(addr).Hex())
	}
	return rawvalue.Address(addr)
}

func sortedKeys(m map[string]map[string]*result) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringArg(method string, args []rawvalue.Value, i int) (string, error) {
	if i >= len(args) {
		return "", &ContractError{Method: method, Msg: fmt.Sprintf("missing argument %v", i)}
	}
	s, ok := args[i].(rawvalue.Scalar)
	if !ok {
		return "", &ContractError{Method: method, Msg: fmt.Sprintf("argument %v is not a string", i)}
	}
	str, ok := s.Str()
	if !ok {
		return "", &ContractError{Method: method, Msg: fmt.Sprintf("argument %v is not a string", i)}
	}
	return str, nil
}

func intArg(method string, args []rawvalue.Value, i int) (int64, error) {
	if i >= len(args) {
		return 0, &ContractError{Method: method, Msg: fmt.Sprintf("missing argument %v", i)}
	}
	s, ok := args[i].(rawvalue.Scalar)
	if !ok {
		return 0, &ContractError{Method: method, Msg: fmt.Sprintf("argument %v is not an integer", i)}
	}
	n, ok := s.BigInt()
	if !ok || !n.IsInt64() {
		return 0, &ContractError{Method: method, Msg: fmt.Sprintf("argument %v is not an integer", i)}
	}
	return n.Int64(), nil
}
