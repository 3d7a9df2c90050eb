package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// TransactionSortFields contains allowed sort fields for transactions
var TransactionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"transaction_date": true,
	"amount":           true,
	"type":             true,
	"wallet_id":        true,
	"category_id":      true,
}

// WalletSortFields contains allowed sort fields for wallets
var WalletSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"type":       true,
	"balance":    true,
	"is_active":  true,
}

// BudgetSortFields contains allowed sort fields for budgets
var BudgetSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"name":          true,
	"period":        true,
	"start_date":    true,
	"end_date":      true,
	"amount_limit":  true,
	"current_spent": true,
	"is_active":     true,
}

// CategorySortFields contains allowed sort fields for categories
var CategorySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"type":       true,
}
