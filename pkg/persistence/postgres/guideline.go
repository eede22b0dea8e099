package postgres // import "github.com/joincivil/content-moderation-adapter/pkg/persistence/postgres"

import (
	"fmt"

	"github.com/joincivil/content-moderation-adapter/pkg/model"
)

const (
	// GuidelineTableName is the name of the guideline table
	GuidelineTableName = "guideline"
)

// CreateGuidelineTableQuery returns the query to create the guideline table
func CreateGuidelineTableQuery() string {
	return CreateGuidelineTableQueryString(GuidelineTableName)
}

// CreateGuidelineTableQueryString returns the query to create this table
func CreateGuidelineTableQueryString(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(
            guideline_id TEXT PRIMARY KEY,
            text TEXT,
            creator_address TEXT,
            last_synced_timestamp BIGINT
        );
    `, tableName)
	return queryString
}

// Guideline is the model definition for the guideline table
type Guideline struct {
	GuidelineID string `db:"guideline_id"`

	Text string `db:"text"`

	CreatorAddress string `db:"creator_address"`

	LastSyncedTs int64 `db:"last_synced_timestamp"`
}

// NewGuideline constructs a guideline for DB from a model.Guideline
func NewGuideline(guideline *model.Guideline, syncedTs int64) *Guideline {
	return &Guideline{
		GuidelineID:    guideline.ID,
		Text:           guideline.Text,
		CreatorAddress: NormalizeAddress(guideline.CreatorAddress),
		LastSyncedTs:   syncedTs,
	}
}

// DbToGuidelineData creates a model.Guideline from postgres Guideline
func (g *Guideline) DbToGuidelineData() *model.Guideline {
	return model.NewGuideline(g.GuidelineID, g.Text, g.CreatorAddress)
}
