// internal/adapter/storage/record_store.go

package storage

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"agentesocial/internal/domain/store"
)

// knownCollections are the collections the analytics core reads and writes
var knownCollections = map[store.Collection]bool{
	store.CollectionContentPieces:      true,
	store.CollectionAnalyticsSnapshots: true,
	store.CollectionLearnings:          true,
	store.CollectionViralContent:       true,
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// RecordStore implements store.Store on PostgreSQL tables named prefix+collection
type RecordStore struct {
	db     *pgxpool.Pool
	prefix string
}

// NewRecordStore creates a new record store
func NewRecordStore(db *pgxpool.Pool, tablePrefix string) *RecordStore {
	return &RecordStore{
		db:     db,
		prefix: tablePrefix,
	}
}

// Query runs a filtered, ordered select against one collection
func (s *RecordStore) Query(ctx context.Context, q store.Query) ([]store.Record, error) {
	query, args, err := buildSelect(s.prefix, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()

	var records []store.Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("error scanning %s: %w", q.Collection, err)
		}

		record := make(store.Record, len(fields))
		for i, fd := range fields {
			record[string(fd.Name)] = normalizeValue(values[i])
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", q.Collection, err)
	}

	return records, nil
}

// Insert writes one record into a collection
func (s *RecordStore) Insert(ctx context.Context, collection store.Collection, record store.Record) error {
	query, args, err := buildInsert(s.prefix, collection, record)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("error inserting into %s: %w", collection, err)
	}

	return nil
}

// tableName maps a collection to its sanitized table identifier
func tableName(prefix string, collection store.Collection) (string, error) {
	if !knownCollections[collection] {
		return "", fmt.Errorf("%w: %s", store.ErrUnknownCollection, collection)
	}
	return pgx.Identifier{prefix + string(collection)}.Sanitize(), nil
}

func column(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", store.ErrInvalidField, name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

// buildSelect renders q as a parameterized SELECT
func buildSelect(prefix string, q store.Query) (string, []interface{}, error) {
	table, err := tableName(prefix, q.Collection)
	if err != nil {
		return "", nil, err
	}

	selectList := "*"
	if len(q.Columns) > 0 {
		cols := make([]string, 0, len(q.Columns))
		for _, name := range q.Columns {
			col, err := column(name)
			if err != nil {
				return "", nil, err
			}
			cols = append(cols, col)
		}
		selectList = strings.Join(cols, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", selectList, table)

	var args []interface{}
	for i, f := range q.Filters {
		col, err := column(f.Field)
		if err != nil {
			return "", nil, err
		}

		var op string
		switch f.Op {
		case store.OpEq:
			op = "="
		case store.OpGte:
			op = ">="
		default:
			return "", nil, fmt.Errorf("unsupported filter operator: %s", f.Op)
		}

		keyword := " AND "
		if i == 0 {
			keyword = " WHERE "
		}
		args = append(args, f.Value)
		fmt.Fprintf(&sb, "%s%s %s $%d", keyword, col, op, len(args))
	}

	if q.OrderBy != nil {
		col, err := column(q.OrderBy.Field)
		if err != nil {
			return "", nil, err
		}
		direction := "ASC"
		if q.OrderBy.Desc {
			direction = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", col, direction)
	}

	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}

	return sb.String(), args, nil
}

// buildInsert renders a parameterized INSERT with columns in sorted order
func buildInsert(prefix string, collection store.Collection, record store.Record) (string, []interface{}, error) {
	table, err := tableName(prefix, collection)
	if err != nil {
		return "", nil, err
	}
	if len(record) == 0 {
		return "", nil, fmt.Errorf("empty record for %s", collection)
	}

	names := sortedKeys(record)
	cols := make([]string, 0, len(names))
	placeholders := make([]string, 0, len(names))
	args := make([]interface{}, 0, len(names))

	for i, name := range names {
		col, err := column(name)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, record[name])
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)

	return query, args, nil
}

// normalizeValue converts driver types without a plain Go equivalent
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case pgtype.Numeric:
		var f float64
		if err := val.AssignTo(&f); err != nil {
			return nil
		}
		return f
	case [16]byte:
		return uuid.UUID(val).String()
	default:
		return v
	}
}

func sortedKeys(record store.Record) []string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
