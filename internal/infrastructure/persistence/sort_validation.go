package persistence

import (
	"strings"

	"github.com/erp/billing/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ClientSortFields contains allowed sort fields for clients
var ClientSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"display_name": true,
	"country_code": true,
	"city":         true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"sku":        true,
	"name":       true,
	"unit_price": true,
}

// OfferSortFields contains allowed sort fields for offers
var OfferSortFields = map[string]bool{
	"created_at":   true,
	"offer_number": true,
	"issue_date":   true,
	"valid_until":  true,
	"client_name":  true,
	"status":       true,
	"gross":        true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"created_at":     true,
	"invoice_number": true,
	"issue_date":     true,
	"due_date":       true,
	"client_name":    true,
	"status":         true,
	"dunning_stage":  true,
	"gross":          true,
}

// DeliveryNoteSortFields contains allowed sort fields for delivery notes
var DeliveryNoteSortFields = map[string]bool{
	"created_at":    true,
	"note_number":   true,
	"delivery_date": true,
	"client_name":   true,
}

// applyOrderAndPage orders by a whitelisted column and applies the page window
func applyOrderAndPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if field != "created_at" {
		query = query.Order("created_at DESC")
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// applySearch adds a case-insensitive substring match over columns.
// LOWER/LIKE keeps the query portable between PostgreSQL and SQLite.
func applySearch(query *gorm.DB, search string, columns ...string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + strings.ToLower(search) + "%"
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		clauses[i] = "LOWER(" + c + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where(strings.Join(clauses, " OR "), args...)
}
