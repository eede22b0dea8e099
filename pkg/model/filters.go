package model // import "github.com/joincivil/content-moderation-adapter/pkg/model"

// ModerationFilter selects moderation results. Empty fields match anything.
type ModerationFilter struct {
	Outcome     Outcome
	PostID      string
	GuidelineID string
}

// Match returns true if the result passes the filter
func (f *ModerationFilter) Match(result *ModerationResult) bool {
	if f == nil {
		return true
	}
	if f.Outcome != "" && result.Outcome != f.Outcome {
		return false
	}
	if f.PostID != "" && result.PostID != f.PostID {
		return false
	}
	if f.GuidelineID != "" && result.GuidelineID != f.GuidelineID {
		return false
	}
	return true
}

// FilterModerationResults returns the results that pass the filter, in order
func FilterModerationResults(results []*ModerationResult, filter *ModerationFilter) []*ModerationResult {
	filtered := []*ModerationResult{}
	for _, result := range results {
		if filter.Match(result) {
			filtered = append(filtered, result)
		}
	}
	return filtered
}

// OutcomeCounts is the number of results per outcome. Unknown outcomes are
// counted under their verbatim value.
type OutcomeCounts map[Outcome]int

// CountOutcomes tallies the outcomes of the given results
func CountOutcomes(results []*ModerationResult) OutcomeCounts {
	counts := OutcomeCounts{}
	for _, result := range results {
		counts[result.Outcome]++
	}
	return counts
}
