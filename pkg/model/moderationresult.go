package model // import "github.com/joincivil/content-moderation-adapter/pkg/model"

// Outcome is the moderation decision for a post against a guideline
type Outcome string

const (
	// OutcomeKeep means the content follows the guideline
	OutcomeKeep Outcome = "keep"
	// OutcomeLimit means the content is borderline and should have reduced visibility
	OutcomeLimit Outcome = "limit"
	// OutcomeRemove means the content violates the guideline
	OutcomeRemove Outcome = "remove"
)

// KnownOutcomes is the closed set of outcomes the contract produces
var KnownOutcomes = []Outcome{OutcomeKeep, OutcomeLimit, OutcomeRemove}

// Known returns true if the outcome is one of KnownOutcomes. Unknown values
// are kept verbatim on results and only flagged through this method.
func (o Outcome) Known() bool {
	for _, known := range KnownOutcomes {
		if o == known {
			return true
		}
	}
	return false
}

// String returns the outcome as a string
func (o Outcome) String() string {
	return string(o)
}

// ModerationResult is the evaluation of a post against a guideline. It is
// keyed by (PostID, GuidelineID), though readers should not assume the pair
// is unique in a response.
type ModerationResult struct {
	PostID           string  `json:"post_id"`
	GuidelineID      string  `json:"guideline_id"`
	PostContent      string  `json:"post_content"`
	Outcome          Outcome `json:"outcome"`
	Reasoning        string  `json:"reasoning"`
	ModeratorAddress string  `json:"moderator_address"`
}

// Key returns the (post id, guideline id) pair identifying the result
func (r *ModerationResult) Key() ResultKey {
	return ResultKey{PostID: r.PostID, GuidelineID: r.GuidelineID}
}

// ResultKey identifies a moderation result
type ResultKey struct {
	PostID      string
	GuidelineID string
}

// PaginatedModerationResults is one page of moderation results along with the
// paging metadata computed by the contract
type PaginatedModerationResults struct {
	Results    []*ModerationResult `json:"results"`
	Total      int64               `json:"total"`
	Page       int64               `json:"page"`
	PerPage    int64               `json:"per_page"`
	TotalPages int64               `json:"total_pages"`
}

// TotalPagesFor returns ceil(total / perPage), or 0 if perPage is not positive
func TotalPagesFor(total int64, perPage int64) int64 {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// PageLength returns the number of results expected on the given 1-indexed page
func PageLength(total int64, page int64, perPage int64) int64 {
	if perPage <= 0 || page <= 0 {
		return 0
	}
	remaining := total - (page-1)*perPage
	if remaining <= 0 {
		return 0
	}
	if remaining < perPage {
		return remaining
	}
	return perPage
}

// Post is content submitted for moderation
type Post struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}
