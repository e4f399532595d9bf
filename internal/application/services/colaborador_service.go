package services

import (
	"context"
	"fmt"

	"github.com/minerva/erp/internal/domain/costs"
	"github.com/minerva/erp/internal/infrastructure/persistence"
	"github.com/minerva/erp/pkg/constants"
	appErrors "github.com/minerva/erp/pkg/errors"
	"github.com/minerva/erp/pkg/models"
)

// ColaboradorService reads collaborators and prices their time.
type ColaboradorService struct {
	records *persistence.RecordRepository
}

// NewColaboradorService creates a new ColaboradorService
func NewColaboradorService(records *persistence.RecordRepository) *ColaboradorService {
	return &ColaboradorService{records: records}
}

// List returns collaborators ordered by name. activeOnly drops inactive ones.
func (s *ColaboradorService) List(ctx context.Context, activeOnly bool) ([]costs.Colaborador, error) {
	req := models.QueryRequest{SortField: constants.FieldColaboradorNome}
	if activeOnly {
		req.Filters = []string{constants.FieldColaboradorAtivo + " = 1"}
	}

	rows, err := s.records.List(ctx, constants.TableColaborador, req)
	if err != nil {
		return nil, mapListError(constants.TableColaborador, err)
	}

	result := make([]costs.Colaborador, 0, len(rows))
	for _, row := range rows {
		result = append(result, colaboradorFromRecord(row))
	}
	return result, nil
}

// Get returns one collaborator.
func (s *ColaboradorService) Get(ctx context.Context, id string) (*costs.Colaborador, error) {
	row, err := s.records.FindOne(ctx, nil, constants.TableColaborador, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load colaborador %s: %w", id, err)
	}
	if row == nil {
		return nil, appErrors.NewNotFoundError(constants.TableColaborador, id)
	}
	c := colaboradorFromRecord(row)
	return &c, nil
}

// Custo computes the daily, hourly and monthly cost of a collaborator.
func (s *ColaboradorService) Custo(ctx context.Context, id string) (*costs.Custo, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	custo, err := costs.Calcular(*c)
	if err != nil {
		return nil, appErrors.NewValidationError(constants.FieldColaboradorRegime, err.Error())
	}
	return &custo, nil
}

func colaboradorFromRecord(r models.SObject) costs.Colaborador {
	return costs.Colaborador{
		ID:          r.GetString(constants.FieldID),
		Nome:        r.GetString(constants.FieldColaboradorNome),
		Regime:      r.GetString(constants.FieldColaboradorRegime),
		SalarioBase: r.GetFloat(constants.FieldColaboradorSalarioBase),
		CustoDia:    r.GetFloat(constants.FieldColaboradorCustoDia),
		Funcao:      r.GetString(constants.FieldColaboradorFuncao),
		Ativo:       r.GetBool(constants.FieldColaboradorAtivo),
	}
}
