package postgres // import "github.com/joincivil/content-moderation-adapter/pkg/persistence/postgres"

import (
	"fmt"

	"github.com/joincivil/content-moderation-adapter/pkg/model"
)

const (
	// ModerationResultTableName is the name of the moderation result table
	ModerationResultTableName = "moderation_result"
)

// CreateModerationResultTableQuery returns the query to create the
// moderation result table
func CreateModerationResultTableQuery() string {
	return CreateModerationResultTableQueryString(ModerationResultTableName)
}

// CreateModerationResultTableQueryString returns the query to create this table
func CreateModerationResultTableQueryString(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(
            post_id TEXT NOT NULL,
            guideline_id TEXT NOT NULL,
            post_content TEXT,
            outcome TEXT,
            reasoning TEXT,
            moderator_address TEXT,
            last_synced_timestamp BIGINT,
            PRIMARY KEY (post_id, guideline_id)
        );
        CREATE INDEX IF NOT EXISTS %s_outcome_idx ON %s (outcome);
    `, tableName, tableName, tableName)
	return queryString
}

// ModerationResult is the model definition for the moderation result table.
// Outcome is stored verbatim, including values the client does not know.
type ModerationResult struct {
	PostID string `db:"post_id"`

	GuidelineID string `db:"guideline_id"`

	PostContent string `db:"post_content"`

	Outcome string `db:"outcome"`

	Reasoning string `db:"reasoning"`

	ModeratorAddress string `db:"moderator_address"`

	LastSyncedTs int64 `db:"last_synced_timestamp"`
}

// NewModerationResult constructs a moderation result for DB from a
// model.ModerationResult
func NewModerationResult(result *model.ModerationResult, syncedTs int64) *ModerationResult {
	return &ModerationResult{
		PostID:           result.PostID,
		GuidelineID:      result.GuidelineID,
		PostContent:      result.PostContent,
		Outcome:          string(result.Outcome),
		Reasoning:        result.Reasoning,
		ModeratorAddress: NormalizeAddress(result.ModeratorAddress),
		LastSyncedTs:     syncedTs,
	}
}

// DbToModerationResultData creates a model.ModerationResult from postgres
// ModerationResult
func (r *ModerationResult) DbToModerationResultData() *model.ModerationResult {
	return &model.ModerationResult{
		PostID:           r.PostID,
		GuidelineID:      r.GuidelineID,
		PostContent:      r.PostContent,
		Outcome:          model.Outcome(r.Outcome),
		Reasoning:        r.Reasoning,
		ModeratorAddress: r.ModeratorAddress,
	}
}
