package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/minerva/erp/pkg/constants"
	"github.com/minerva/erp/pkg/models"
	"github.com/minerva/erp/pkg/query"
)

const defaultListLimit = 200

// ErrInvalidQuery marks List requests rejected before reaching the database.
var ErrInvalidQuery = errors.New("invalid query")

// RecordRepository handles generic CRUD for the plain tables (clientes,
// colaboradores, lancamentos, agendamentos ...).
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// GetExecutor returns the transaction if present, or the DB connection
func (r *RecordRepository) GetExecutor(tx *sql.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

// FindOne returns the record or nil when it does not exist.
func (r *RecordRepository) FindOne(ctx context.Context, tx *sql.Tx, tableName, id string) (models.SObject, error) {
	q := query.From(tableName).
		Select([]string{"*"}).
		WhereEq(constants.FieldID, id).
		Limit(1).
		Build()

	rows, err := r.GetExecutor(tx).QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := query.ScanRowsToSObjects(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// List returns records matching the request filters. Unrecognised filter
// terms and sort fields fail with ErrInvalidQuery.
func (r *RecordRepository) List(ctx context.Context, tableName string, req models.QueryRequest) ([]models.SObject, error) {
	builder := query.From(tableName).Select([]string{"*"})

	for _, term := range req.Filters {
		condition, params, ok := query.ParseFilterTerm(term)
		if !ok {
			return nil, fmt.Errorf("%w: filter %q", ErrInvalidQuery, term)
		}
		builder.WhereRaw(condition, params)
	}
	if req.SortField != "" {
		if !query.IsIdentifier(req.SortField) {
			return nil, fmt.Errorf("%w: sort field %q", ErrInvalidQuery, req.SortField)
		}
		builder.OrderBy(req.SortField, req.SortDirection)
	}

	limit := req.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	q := builder.Limit(limit).Build()

	rows, err := r.db.QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return query.ScanRowsToSObjects(rows)
}

// Insert executes an INSERT statement
func (r *RecordRepository) Insert(ctx context.Context, tx *sql.Tx, tableName string, record models.SObject) error {
	q := query.Insert(tableName, record).Build()
	_, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...)
	return err
}

// Update executes an UPDATE statement and reports the affected rows.
func (r *RecordRepository) Update(ctx context.Context, tx *sql.Tx, tableName, id string, updates models.SObject) (int64, error) {
	q := query.Update(tableName).
		Set(updates).
		WhereEq(constants.FieldID, id).
		Build()

	res, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a record and reports the affected rows.
func (r *RecordRepository) Delete(ctx context.Context, tx *sql.Tx, tableName, id string) (int64, error) {
	q := query.Delete(tableName).WhereEq(constants.FieldID, id).Build()

	res, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByField removes all rows where field = value.
func (r *RecordRepository) DeleteByField(ctx context.Context, tx *sql.Tx, tableName, fieldName string, value interface{}) error {
	q := query.Delete(tableName).WhereEq(fieldName, value).Build()
	_, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...)
	return err
}
