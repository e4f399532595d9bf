package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/minerva/erp/internal/domain/events"
	"github.com/minerva/erp/internal/domain/finance"
	"github.com/minerva/erp/internal/domain/ports"
	"github.com/minerva/erp/internal/infrastructure/persistence"
	"github.com/minerva/erp/pkg/auth"
	"github.com/minerva/erp/pkg/constants"
	appErrors "github.com/minerva/erp/pkg/errors"
	"github.com/minerva/erp/pkg/models"
	"github.com/minerva/erp/pkg/utils"
)

const classifyMaxRetries = 3

// FinanceService handles lancamento classification across cost centers.
type FinanceService struct {
	records   *persistence.RecordRepository
	txMgr     *persistence.TransactionManager
	publisher ports.EventPublisher
}

// NewFinanceService creates a new FinanceService
func NewFinanceService(records *persistence.RecordRepository, txMgr *persistence.TransactionManager, publisher ports.EventPublisher) *FinanceService {
	return &FinanceService{
		records:   records,
		txMgr:     txMgr,
		publisher: publisher,
	}
}

// Preview splits a value without persisting anything.
func (s *FinanceService) Preview(valor float64, itens []finance.RateioItem) finance.Rateio {
	return finance.Split(valor, itens)
}

// ListLancamentos lists lancamentos, newest first unless a sort is given.
func (s *FinanceService) ListLancamentos(ctx context.Context, req models.QueryRequest) ([]finance.Lancamento, error) {
	if req.SortField == "" {
		req.SortField = constants.FieldLancamentoData
		req.SortDirection = "DESC"
	}
	rows, err := s.records.List(ctx, constants.TableLancamento, req)
	if err != nil {
		return nil, mapListError(constants.TableLancamento, err)
	}

	result := make([]finance.Lancamento, 0, len(rows))
	for _, row := range rows {
		result = append(result, lancamentoFromRecord(row))
	}
	return result, nil
}

// Classify splits the lancamento value across the given cost centers and
// replaces any previous classification. Invalid splits are rejected with the
// computed rateio in the error details.
func (s *FinanceService) Classify(ctx context.Context, lancamentoID string, itens []finance.RateioItem, user *auth.UserSession) (*finance.Rateio, error) {
	record, err := s.records.FindOne(ctx, nil, constants.TableLancamento, lancamentoID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lancamento %s: %w", lancamentoID, err)
	}
	if record == nil {
		return nil, appErrors.NewNotFoundError(constants.TableLancamento, lancamentoID)
	}

	lanc := lancamentoFromRecord(record)
	rateio := finance.Split(lanc.Valor, itens)
	if err := rateio.Validate(); err != nil {
		return nil, appErrors.NewValidationError("itens", err.Error()).WithDetails(rateio)
	}

	err = s.txMgr.WithRetry(ctx, func(tx *sql.Tx) error {
		if err := s.records.DeleteByField(ctx, tx, constants.TableRateioItem, constants.FieldRateioLancamentoID, lancamentoID); err != nil {
			return fmt.Errorf("failed to clear previous rateio: %w", err)
		}
		for _, item := range rateio.Itens {
			row := models.SObject{
				constants.FieldID:                  utils.GenerateID(),
				constants.FieldRateioLancamentoID:  lancamentoID,
				constants.FieldRateioCentroCustoID: item.CentroCustoID,
				constants.FieldRateioPercentual:    item.Percentual,
				constants.FieldRateioValor:         item.Valor,
			}
			if err := s.records.Insert(ctx, tx, constants.TableRateioItem, row); err != nil {
				return fmt.Errorf("failed to insert rateio item: %w", err)
			}
		}
		_, err := s.records.Update(ctx, tx, constants.TableLancamento, lancamentoID, models.SObject{
			constants.FieldLancamentoClassificado: true,
			constants.FieldLastModifiedDate:       time.Now(),
		})
		return err
	}, classifyMaxRetries)
	if err != nil {
		log.Printf("❌ Failed to classify lancamento %s: %v", lancamentoID, err)
		return nil, appErrors.NewInternalError("failed to classify lancamento", err)
	}

	log.Printf("✅ Lancamento %s classified across %d centros de custo", lancamentoID, len(rateio.Itens))
	if s.publisher != nil {
		payload := events.RecordPayload{
			Table:    constants.TableLancamento,
			RecordID: lancamentoID,
			Data:     map[string]interface{}{"rateio": rateio, "user_id": user.ID},
		}
		if err := s.publisher.Publish(ctx, events.LancamentoClassified, payload); err != nil {
			log.Printf("⚠️ Failed to publish %s: %v", events.LancamentoClassified, err)
		}
	}
	return &rateio, nil
}

func lancamentoFromRecord(r models.SObject) finance.Lancamento {
	return finance.Lancamento{
		ID:           r.GetString(constants.FieldID),
		Descricao:    r.GetString(constants.FieldLancamentoDescricao),
		Valor:        r.GetFloat(constants.FieldLancamentoValor),
		Data:         r.GetTime(constants.FieldLancamentoData),
		Tipo:         r.GetString(constants.FieldLancamentoTipo),
		Classificado: r.GetBool(constants.FieldLancamentoClassificado),
	}
}
