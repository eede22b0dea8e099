package postgres // import "github.com/joincivil/content-moderation-adapter/pkg/persistence/postgres"

import (
	"fmt"
)

const (
	// CronTableName is the name of the cron table
	CronTableName = "cron"
)

// CreateCronTableQuery returns the query to create the cron table
func CreateCronTableQuery() string {
	return CreateCronTableQueryString(CronTableName)
}

// CreateCronTableQueryString returns the query to create this table
// NOTE: This table only is allowed to ever have 1 row
func CreateCronTableQueryString(tableName string) string {
	queryString := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s(timestamp BIGINT NOT NULL);
        CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s((timestamp IS NOT NULL));
    `, tableName, tableName+"_one_row", tableName)
	return queryString
}

// CronData is the last completed sync as stored in the cron table
type CronData struct {
	Timestamp int64 `db:"timestamp"`
}

// NewCron creates a CronData model for DB from a timestamp to save
func NewCron(timestamp int64) *CronData {
	return &CronData{Timestamp: timestamp}
}
