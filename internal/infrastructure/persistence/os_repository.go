package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/minerva/erp/internal/domain/workflow"
	"github.com/minerva/erp/pkg/constants"
	apperrors "github.com/minerva/erp/pkg/errors"
	"github.com/minerva/erp/pkg/query"
	"github.com/minerva/erp/pkg/utils"
)

const txMaxRetries = 3

// OSRepository persists service orders and their steps. It implements workflow.Persister.
type OSRepository struct {
	db    *sql.DB
	txMgr *TransactionManager
	now   func() time.Time
}

func NewOSRepository(db *sql.DB) *OSRepository {
	return &OSRepository{db: db, txMgr: NewTransactionManager(db), now: time.Now}
}

var _ workflow.Persister = (*OSRepository)(nil)

// CreateRecord inserts a new OS with the next codigo of its type for the current year.
func (r *OSRepository) CreateRecord(ctx context.Context, osType string, seed workflow.Payload, createdBy string) (workflow.Record, error) {
	now := r.now()
	year := now.Year()
	rec := workflow.Record{
		ID:             utils.GenerateID(),
		OSType:         osType,
		Status:         constants.OSStatusRascunho,
		CurrentStep:    1,
		LastActiveStep: 1,
		CreatedByID:    createdBy,
	}

	err := r.txMgr.WithRetry(ctx, func(tx *sql.Tx) error {
		seq, err := r.nextSequence(ctx, tx, osType, year)
		if err != nil {
			return err
		}
		rec.Codigo = fmt.Sprintf("%s-%d-%04d", osType, year, seq)

		row := map[string]interface{}{
			constants.FieldID:               rec.ID,
			constants.FieldOSCodigo:         rec.Codigo,
			constants.FieldOSType:           osType,
			constants.FieldOSStatus:         rec.Status,
			constants.FieldOSCurrentStep:    rec.CurrentStep,
			constants.FieldOSLastActiveStep: rec.LastActiveStep,
			constants.FieldCreatedByID:      nullableString(createdBy),
			constants.FieldCreatedDate:      now,
			constants.FieldLastModifiedDate: now,
		}
		if clienteID, ok := seed["clienteId"].(string); ok && clienteID != "" {
			row[constants.FieldOSClienteID] = clienteID
		}

		q := query.Insert(constants.TableOrdemServico, row).Build()
		if _, err := tx.ExecContext(ctx, q.SQL, q.Params...); err != nil {
			return fmt.Errorf("failed to insert OS: %w", err)
		}
		return nil
	}, txMaxRetries)
	if err != nil {
		return workflow.Record{}, err
	}
	return rec, nil
}

// nextSequence bumps and returns the per-type yearly counter. The upsert
// locks the row until the transaction ends.
func (r *OSRepository) nextSequence(ctx context.Context, tx *sql.Tx, osType string, year int) (int, error) {
	upsert := fmt.Sprintf("INSERT INTO `%s` (`os_type`, `ano`, `seq`) VALUES (?, ?, 1) ON DUPLICATE KEY UPDATE `seq` = `seq` + 1",
		constants.TableOSSequence)
	if _, err := tx.ExecContext(ctx, upsert, osType, year); err != nil {
		return 0, fmt.Errorf("failed to bump OS sequence: %w", err)
	}

	q := query.From(constants.TableOSSequence).
		Select([]string{"seq"}).
		WhereEq(constants.FieldOSType, osType).
		WhereEq("ano", year).
		ForUpdate().
		Build()

	var seq int
	if err := tx.QueryRowContext(ctx, q.SQL, q.Params...).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read OS sequence: %w", err)
	}
	return seq, nil
}

// SaveStep writes a step if its stored version still matches.
func (r *OSRepository) SaveStep(ctx context.Context, w workflow.StepWrite) (int64, error) {
	payload, err := json.Marshal(w.Payload)
	if err != nil {
		return 0, apperrors.NewValidationError(constants.FieldEtapaPayload, fmt.Sprintf("payload is not valid JSON: %v", err))
	}

	status := constants.EtapaStatusDone
	if w.Draft {
		status = constants.EtapaStatusDraft
	}

	var newVersion int64
	err = r.txMgr.WithRetry(ctx, func(tx *sql.Tx) error {
		now := r.now()

		lock := query.From(constants.TableOSEtapa).
			Select([]string{constants.FieldID, constants.FieldEtapaVersion}).
			WhereEq(constants.FieldEtapaOSID, w.OSID).
			WhereEq(constants.FieldEtapaStep, w.Step).
			Limit(1).
			ForUpdate().
			Build()

		var etapaID string
		var current int64
		err := tx.QueryRowContext(ctx, lock.SQL, lock.Params...).Scan(&etapaID, &current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to lock step: %w", err)
		}

		if current != w.ExpectedVersion {
			return apperrors.NewConflictError("os_etapa", fmt.Sprintf("%s/%d", w.OSID, w.Step), w.ExpectedVersion, current)
		}
		newVersion = current + 1

		var q query.QueryResult
		if etapaID == "" {
			q = query.Insert(constants.TableOSEtapa, map[string]interface{}{
				constants.FieldID:               utils.GenerateID(),
				constants.FieldEtapaOSID:        w.OSID,
				constants.FieldEtapaStep:        w.Step,
				constants.FieldEtapaPayload:     string(payload),
				constants.FieldEtapaStatus:      status,
				constants.FieldEtapaVersion:     newVersion,
				constants.FieldLastModifiedDate: now,
			}).Build()
		} else {
			q = query.Update(constants.TableOSEtapa).
				Set(map[string]interface{}{
					constants.FieldEtapaPayload:     string(payload),
					constants.FieldEtapaStatus:      status,
					constants.FieldEtapaVersion:     newVersion,
					constants.FieldLastModifiedDate: now,
				}).
				WhereEq(constants.FieldID, etapaID).
				Build()
		}
		if _, err := tx.ExecContext(ctx, q.SQL, q.Params...); err != nil {
			return fmt.Errorf("failed to write step: %w", err)
		}

		osUpdate := query.Update(constants.TableOrdemServico).
			Set(map[string]interface{}{
				constants.FieldOSStatus:         w.Status,
				constants.FieldOSCurrentStep:    w.CurrentStep,
				constants.FieldOSLastActiveStep: w.LastActiveStep,
				constants.FieldLastModifiedDate: now,
			}).
			WhereEq(constants.FieldID, w.OSID).
			Build()
		if _, err := tx.ExecContext(ctx, osUpdate.SQL, osUpdate.Params...); err != nil {
			return fmt.Errorf("failed to update OS: %w", err)
		}
		return nil
	}, txMaxRetries)
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// LoadRecord reads the OS row. All columns are exposed in Record.Fields.
func (r *OSRepository) LoadRecord(ctx context.Context, osID string) (workflow.Record, error) {
	q := query.From(constants.TableOrdemServico).
		Select([]string{"*"}).
		WhereEq(constants.FieldID, osID).
		Limit(1).
		Build()

	rows, err := r.db.QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return workflow.Record{}, err
	}
	defer rows.Close()

	results, err := query.ScanRowsToSObjects(rows)
	if err != nil {
		return workflow.Record{}, err
	}
	if len(results) == 0 {
		return workflow.Record{}, apperrors.NewNotFoundError("OS", osID)
	}

	row := results[0]
	return workflow.Record{
		ID:             row.GetString(constants.FieldID),
		Codigo:         row.GetString(constants.FieldOSCodigo),
		OSType:         row.GetString(constants.FieldOSType),
		Status:         row.GetString(constants.FieldOSStatus),
		CurrentStep:    int(row.GetInt64(constants.FieldOSCurrentStep)),
		LastActiveStep: int(row.GetInt64(constants.FieldOSLastActiveStep)),
		CreatedByID:    row.GetString(constants.FieldCreatedByID),
		Fields:         map[string]interface{}(row),
	}, nil
}

// LoadSteps returns every stored step of an OS ordered by step.
func (r *OSRepository) LoadSteps(ctx context.Context, osID string) ([]workflow.StepRecord, error) {
	q := query.From(constants.TableOSEtapa).
		Select([]string{constants.FieldEtapaStep, constants.FieldEtapaPayload, constants.FieldEtapaStatus, constants.FieldEtapaVersion}).
		WhereEq(constants.FieldEtapaOSID, osID).
		OrderBy(constants.FieldEtapaStep, "ASC").
		Build()

	rows, err := r.db.QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []workflow.StepRecord
	for rows.Next() {
		var s workflow.StepRecord
		var payload sql.NullString
		var status string
		if err := rows.Scan(&s.Step, &payload, &status, &s.Version); err != nil {
			return nil, err
		}
		s.Draft = status == constants.EtapaStatusDraft
		s.Payload = workflow.Payload{}
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &s.Payload); err != nil {
				return nil, fmt.Errorf("corrupt payload for OS %s step %d: %w", osID, s.Step, err)
			}
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
