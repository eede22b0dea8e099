package postgres // import "github.com/joincivil/content-moderation-adapter/pkg/persistence/postgres"

import (
	"fmt"
	"strings"
)

// CheckTableCount returns the query to check the count of the table
func CheckTableCount(tableName string) string {
	queryString := fmt.Sprintf(`SELECT COUNT(*) FROM %v`, tableName) // nolint: gosec
	return queryString
}

// NormalizeAddress lowercases an address for storage so lookups do not
// depend on the checksum casing reported by the contract
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
