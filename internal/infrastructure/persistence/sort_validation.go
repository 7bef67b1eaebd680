package persistence

import (
	"strings"
)

// Sort parameters come straight from query strings and end up inside ORDER
// BY clauses, so both field and direction are reduced to known-safe values
// before they touch SQL.

// ValidateSortOrder returns "ASC" or "DESC", defaulting to "DESC" for
// anything unrecognized
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it appears in allowedFields,
// defaultField otherwise
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// TaskSortFields lists the columns ingestion task queries may sort by
var TaskSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"file_name":  true,
	"status":     true,
	"started_at": true,
}

// ErrorOrderSortFields lists the columns error ledger queries may sort by
var ErrorOrderSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"row_number": true,
	"category":   true,
	"status":     true,
}
