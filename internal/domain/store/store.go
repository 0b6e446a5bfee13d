// internal/domain/store/store.go

package store

import (
	"context"
	"errors"
)

// Collection identifies a logical record collection in the external store
type Collection string

const (
	CollectionContentPieces      Collection = "content_pieces"
	CollectionAnalyticsSnapshots Collection = "analytics_snapshots"
	CollectionLearnings          Collection = "learnings"
	CollectionViralContent       Collection = "viral_content"
)

// Op is a filter comparison operator
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
)

// Filter restricts a query to records whose Field compares to Value with Op
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Order sorts query results by Field
type Order struct {
	Field string
	Desc  bool
}

// Query describes a read against one collection. A zero Limit means no limit,
// and empty Columns selects every column.
type Query struct {
	Collection Collection
	Columns    []string
	Filters    []Filter
	OrderBy    *Order
	Limit      int
}

// Record is an untyped row. Typed decoding happens at the caller's boundary.
type Record map[string]interface{}

// Store is the narrow read/write contract the analytics core depends on
type Store interface {
	// Query returns the records matching q, in the requested order
	Query(ctx context.Context, q Query) ([]Record, error)

	// Insert writes a single record into a collection
	Insert(ctx context.Context, collection Collection, record Record) error
}

// Common errors
var (
	ErrUnavailable       = errors.New("store unavailable")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidField      = errors.New("invalid field name")
)

// Eq is shorthand for an equality filter
func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Gte is shorthand for a greater-or-equal filter
func Gte(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpGte, Value: value}
}
