package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/focusflow/pkg/recordapi"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidQuery   = errors.New("invalid query")
)

// Store reads and writes one collection table.
type Store struct {
	db      *sqlx.DB
	dialect string
	table   string
	now     func() time.Time
}

func NewStore(db *sqlx.DB, dialectName, table string) (*Store, error) {
	if dialectName != dialect.Postgres && dialectName != dialect.SQLite {
		return nil, fmt.Errorf("unsupported dialect %q", dialectName)
	}
	if !ValidTableName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{db: db, dialect: dialectName, table: table, now: time.Now}, nil
}

// Table is the collection this store serves.
func (s *Store) Table() string {
	return s.table
}

// Query runs a fetch and returns records keyed by wire field name.
func (s *Store) Query(ctx context.Context, params recordapi.FetchParams) ([]map[string]any, error) {
	cols := columnsFor(params.Fields)
	sel := s.selector(cols)

	for _, cond := range params.Where {
		p, err := predicate(cond.FieldName, cond.Operator, cond.Values)
		if err != nil {
			return nil, err
		}
		sel.Where(p)
	}
	for _, group := range params.WhereGroups {
		var subs []*entsql.Predicate
		for _, sg := range group.SubGroups {
			var preds []*entsql.Predicate
			for _, cond := range sg.Conditions {
				p, err := predicate(cond.FieldName, cond.Operator, cond.Values)
				if err != nil {
					return nil, err
				}
				preds = append(preds, p)
			}
			if p := combine(sg.Operator, preds); p != nil {
				subs = append(subs, p)
			}
		}
		if p := combine(group.Operator, subs); p != nil {
			sel.Where(p)
		}
	}

	for _, o := range params.OrderBy {
		c, ok := lookup(o.FieldName)
		if !ok {
			return nil, fmt.Errorf("%w: unknown order field %q", ErrInvalidQuery, o.FieldName)
		}
		if strings.EqualFold(o.SortType, recordapi.SortDesc) {
			sel.OrderBy(entsql.Desc(c.Name))
		} else {
			sel.OrderBy(entsql.Asc(c.Name))
		}
	}
	sel.OrderBy(entsql.Desc(colID))

	if pi := params.PagingInfo; pi != nil {
		if pi.Limit > 0 {
			sel.Limit(pi.Limit)
		}
		if pi.Offset > 0 {
			sel.Offset(pi.Offset)
		}
	}

	query, args := sel.Query()
	return s.scan(ctx, s.db, cols, query, args)
}

// Get returns one record or ErrRecordNotFound.
func (s *Store) Get(ctx context.Context, id int64, fields []recordapi.FieldSpec) (map[string]any, error) {
	return s.get(ctx, s.db, id, columnsFor(fields))
}

// Create inserts each record in its own transaction so one bad record does
// not sink the others. Ids are max+1.
func (s *Store) Create(ctx context.Context, records []json.RawMessage) []recordapi.RecordResult {
	results := make([]recordapi.RecordResult, len(records))
	for i, raw := range records {
		results[i] = s.createOne(ctx, raw)
	}
	return results
}

// Update applies each partial record by its Id.
func (s *Store) Update(ctx context.Context, records []json.RawMessage) []recordapi.RecordResult {
	results := make([]recordapi.RecordResult, len(records))
	for i, raw := range records {
		results[i] = s.updateOne(ctx, raw)
	}
	return results
}

// Delete removes each id independently.
func (s *Store) Delete(ctx context.Context, ids []int64) []recordapi.RecordResult {
	results := make([]recordapi.RecordResult, len(ids))
	for i, id := range ids {
		query, args := entsql.Dialect(s.dialect).
			Delete(s.table).
			Where(entsql.EQ(colID, id)).
			Query()

		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			results[i] = failure(http.StatusInternalServerError, err.Error())
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			results[i] = failure(http.StatusNotFound, fmt.Sprintf("record %d not found", id))
			continue
		}
		results[i] = recordapi.RecordResult{Success: true, Data: mustJSON(map[string]any{recordapi.FieldID: id})}
	}
	return results
}

func (s *Store) createOne(ctx context.Context, raw json.RawMessage) recordapi.RecordResult {
	values, fieldErrs := decodeRecord(raw)
	delete(values, colID)
	if !hasTitle(values) {
		fieldErrs = append(fieldErrs, recordapi.FieldError{FieldLabel: recordapi.FieldTitle, Message: "is required"})
	}
	if len(fieldErrs) > 0 {
		return rejected(fieldErrs)
	}
	if values[colCreatedOn] == nil {
		values[colCreatedOn] = s.now().UTC()
	}

	var record map[string]any
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		id, err := s.nextID(ctx, tx)
		if err != nil {
			return err
		}
		values[colID] = id

		cols, vals := sortedValues(values)
		query, args := entsql.Dialect(s.dialect).
			Insert(s.table).
			Columns(cols...).
			Values(vals...).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}

		record, err = s.get(ctx, tx, id, columns)
		return err
	})
	if err != nil {
		return failure(http.StatusInternalServerError, err.Error())
	}
	return recordapi.RecordResult{Success: true, Data: mustJSON(record)}
}

func (s *Store) updateOne(ctx context.Context, raw json.RawMessage) recordapi.RecordResult {
	values, fieldErrs := decodeRecord(raw)
	id, ok := values[colID].(int64)
	if !ok || id <= 0 {
		fieldErrs = append(fieldErrs, recordapi.FieldError{FieldLabel: recordapi.FieldID, Message: "is required"})
	}
	delete(values, colID)
	delete(values, colCreatedOn)
	for _, name := range []string{colTitle, colTitleC, colName} {
		if v, present := values[name]; present {
			if str, _ := v.(string); strings.TrimSpace(str) == "" {
				fieldErrs = append(fieldErrs, recordapi.FieldError{FieldLabel: fieldOf(name), Message: "must not be empty"})
			}
		}
	}
	if len(fieldErrs) > 0 {
		return rejected(fieldErrs)
	}

	var record map[string]any
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if len(values) > 0 {
			upd := entsql.Dialect(s.dialect).Update(s.table)
			cols, vals := sortedValues(values)
			for i, col := range cols {
				if vals[i] == nil {
					upd.SetNull(col)
				} else {
					upd.Set(col, vals[i])
				}
			}
			query, args := upd.Where(entsql.EQ(colID, id)).Query()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("update record: %w", err)
			}
		}

		var err error
		record, err = s.get(ctx, tx, id, columns)
		return err
	})
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return failure(http.StatusNotFound, fmt.Sprintf("record %d not found", id))
	case err != nil:
		return failure(http.StatusInternalServerError, err.Error())
	}
	return recordapi.RecordResult{Success: true, Data: mustJSON(record)}
}

func (s *Store) nextID(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	if s.dialect == dialect.Postgres {
		lock := "LOCK TABLE " + s.quote(s.table) + " IN SHARE ROW EXCLUSIVE MODE"
		if _, err := tx.ExecContext(ctx, lock); err != nil {
			return 0, fmt.Errorf("lock table: %w", err)
		}
	}

	query, args := entsql.Dialect(s.dialect).
		Select(entsql.Max(colID)).
		From(entsql.Dialect(s.dialect).Table(s.table)).
		Query()

	var maxID sql.NullInt64
	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("read max id: %w", err)
	}
	return maxID.Int64 + 1, nil
}

func (s *Store) get(ctx context.Context, q sqlx.QueryerContext, id int64, cols []column) (map[string]any, error) {
	sel := s.selector(cols).Where(entsql.EQ(colID, id))
	query, args := sel.Query()

	records, err := s.scan(ctx, q, cols, query, args)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrRecordNotFound
	}
	return records[0], nil
}

func (s *Store) selector(cols []column) *entsql.Selector {
	b := entsql.Dialect(s.dialect)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return b.Select(names...).From(b.Table(s.table))
}

func (s *Store) scan(ctx context.Context, q sqlx.QueryerContext, cols []column, query string, args []any) ([]map[string]any, error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		row := make(map[string]any, len(cols))
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		record := make(map[string]any, len(cols))
		for _, c := range cols {
			if v := decode(c, row[c.Name]); v != nil {
				record[c.Field] = v
			}
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) quote(ident string) string {
	return entsql.Dialect(s.dialect).String(func(b *entsql.Builder) { b.Ident(ident) })
}

// predicate builds one filter. ExactMatch and Contains accept several
// values, any of which may match.
func predicate(field, op string, values []any) (*entsql.Predicate, error) {
	c, ok := lookup(field)
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, field)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no values for %q", ErrInvalidQuery, field)
	}

	preds := make([]*entsql.Predicate, 0, len(values))
	for _, v := range values {
		switch op {
		case recordapi.OperatorExactMatch:
			enc, err := encode(c, v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s %v", ErrInvalidQuery, field, err)
			}
			if enc == nil {
				preds = append(preds, entsql.IsNull(c.Name))
			} else {
				preds = append(preds, entsql.EQ(c.Name, enc))
			}
		case recordapi.OperatorContains:
			preds = append(preds, entsql.ContainsFold(c.Name, fmt.Sprint(v)))
		default:
			return nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, op)
		}
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return entsql.Or(preds...), nil
}

func combine(op string, preds []*entsql.Predicate) *entsql.Predicate {
	switch {
	case len(preds) == 0:
		return nil
	case len(preds) == 1:
		return preds[0]
	case strings.EqualFold(op, recordapi.GroupAnd):
		return entsql.And(preds...)
	default:
		return entsql.Or(preds...)
	}
}

// decodeRecord maps a wire record onto column values. Unknown fields are
// ignored; badly typed ones become field errors.
func decodeRecord(raw json.RawMessage) (map[string]any, []recordapi.FieldError) {
	var in map[string]any
	if err := json.Unmarshal(raw, &in); err != nil {
		return map[string]any{}, []recordapi.FieldError{{Message: "record is not a JSON object"}}
	}

	values := make(map[string]any, len(in))
	var errs []recordapi.FieldError
	for field, v := range in {
		c, ok := lookup(field)
		if !ok {
			continue
		}
		enc, err := encode(c, v)
		if err != nil {
			errs = append(errs, recordapi.FieldError{FieldLabel: field, Message: err.Error()})
			continue
		}
		values[c.Name] = enc
	}
	return values, errs
}

func hasTitle(values map[string]any) bool {
	for _, name := range []string{colTitle, colTitleC, colName} {
		if s, ok := values[name].(string); ok && strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

func fieldOf(colName string) string {
	for _, c := range columns {
		if c.Name == colName {
			return c.Field
		}
	}
	return colName
}

// sortedValues returns columns in table order so generated SQL is stable.
func sortedValues(values map[string]any) ([]string, []any) {
	cols := make([]string, 0, len(values))
	vals := make([]any, 0, len(values))
	for _, c := range columns {
		if v, ok := values[c.Name]; ok {
			cols = append(cols, c.Name)
			vals = append(vals, v)
		}
	}
	return cols, vals
}

func failure(status int, msg string) recordapi.RecordResult {
	return recordapi.RecordResult{Success: false, StatusCode: status, Message: msg}
}

func rejected(errs []recordapi.FieldError) recordapi.RecordResult {
	return recordapi.RecordResult{
		Success:    false,
		StatusCode: http.StatusBadRequest,
		Message:    "validation failed",
		Errors:     errs,
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
