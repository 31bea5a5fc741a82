// Package models contains GORM persistence models that map to database tables.
// Domain aggregates stay free of ORM tags; each model converts with ToDomain and
// FromDomain, and repositories only ever hand domain types to callers.
//
// Money columns are numeric(18,2), quantities numeric(18,4). Dates without a time
// of day are stored as UTC midnight.
package models
