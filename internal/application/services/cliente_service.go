package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/minerva/erp/internal/domain/events"
	"github.com/minerva/erp/internal/domain/ports"
	"github.com/minerva/erp/internal/infrastructure/persistence"
	"github.com/minerva/erp/pkg/auth"
	"github.com/minerva/erp/pkg/constants"
	appErrors "github.com/minerva/erp/pkg/errors"
	"github.com/minerva/erp/pkg/expression"
	"github.com/minerva/erp/pkg/models"
	"github.com/minerva/erp/pkg/utils"
)

// writable cliente columns
var clienteFields = map[string]bool{
	constants.FieldClienteNome:     true,
	constants.FieldClienteCPFCNPJ:  true,
	constants.FieldClienteEmail:    true,
	constants.FieldClienteTelefone: true,
	constants.FieldClienteEndereco: true,
}

// ClienteService is CRUD over the clientes table.
type ClienteService struct {
	records   *persistence.RecordRepository
	engine    *expression.Engine
	publisher ports.EventPublisher
}

// NewClienteService creates a new ClienteService
func NewClienteService(records *persistence.RecordRepository, engine *expression.Engine, publisher ports.EventPublisher) *ClienteService {
	return &ClienteService{records: records, engine: engine, publisher: publisher}
}

// List returns clientes matching the request, by name unless sorted otherwise.
func (s *ClienteService) List(ctx context.Context, req models.QueryRequest) ([]models.SObject, error) {
	if req.SortField == "" {
		req.SortField = constants.FieldClienteNome
	}
	rows, err := s.records.List(ctx, constants.TableCliente, req)
	if err != nil {
		return nil, mapListError(constants.TableCliente, err)
	}
	return rows, nil
}

// Get returns one cliente.
func (s *ClienteService) Get(ctx context.Context, id string) (models.SObject, error) {
	row, err := s.records.FindOne(ctx, nil, constants.TableCliente, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load cliente %s: %w", id, err)
	}
	if row == nil {
		return nil, appErrors.NewNotFoundError(constants.TableCliente, id)
	}
	return row, nil
}

// Create inserts a cliente and returns the stored values.
func (s *ClienteService) Create(ctx context.Context, data models.SObject, user *auth.UserSession) (models.SObject, error) {
	record, err := s.sanitize(data, true)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record[constants.FieldID] = utils.GenerateID()
	record[constants.FieldCreatedByID] = user.ID
	record[constants.FieldCreatedDate] = now
	record[constants.FieldLastModifiedDate] = now

	if err := s.records.Insert(ctx, nil, constants.TableCliente, record); err != nil {
		log.Printf("❌ Failed to create cliente: %v", err)
		return nil, appErrors.NewInternalError("failed to create cliente", err)
	}

	id := record.GetString(constants.FieldID)
	s.publish(ctx, events.RecordCreated, id, record)
	return record, nil
}

// Update applies a partial update.
func (s *ClienteService) Update(ctx context.Context, id string, data models.SObject) (models.SObject, error) {
	updates, err := s.sanitize(data, false)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, appErrors.NewValidationError("", "no updatable fields provided")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates[constants.FieldLastModifiedDate] = time.Now()
	if _, err := s.records.Update(ctx, nil, constants.TableCliente, id, updates); err != nil {
		return nil, appErrors.NewInternalError("failed to update cliente", err)
	}

	s.publish(ctx, events.RecordUpdated, id, updates)
	return s.Get(ctx, id)
}

// Delete removes a cliente.
func (s *ClienteService) Delete(ctx context.Context, id string) error {
	n, err := s.records.Delete(ctx, nil, constants.TableCliente, id)
	if err != nil {
		return appErrors.NewInternalError("failed to delete cliente", err)
	}
	if n == 0 {
		return appErrors.NewNotFoundError(constants.TableCliente, id)
	}
	s.publish(ctx, events.RecordDeleted, id, nil)
	return nil
}

// sanitize keeps writable fields and validates them. create requires nome.
func (s *ClienteService) sanitize(data models.SObject, create bool) (models.SObject, error) {
	out := make(models.SObject)
	for k, v := range data {
		if !clienteFields[k] {
			continue
		}
		if str, ok := v.(string); ok {
			v = strings.TrimSpace(str)
		}
		out[k] = v
	}

	if _, ok := out[constants.FieldClienteNome]; ok || create {
		if expression.IsBlank(out[constants.FieldClienteNome]) {
			return nil, appErrors.NewValidationError(constants.FieldClienteNome, "nome é obrigatório")
		}
	}

	if doc, ok := out[constants.FieldClienteCPFCNPJ]; ok && !expression.IsBlank(doc) {
		valid, err := s.engine.EvaluateBool("CPF_CNPJ(doc)", map[string]interface{}{"doc": doc})
		if err != nil || !valid {
			return nil, appErrors.NewValidationError(constants.FieldClienteCPFCNPJ, "CPF/CNPJ inválido")
		}
	}
	if email, ok := out[constants.FieldClienteEmail].(string); ok && email != "" && !auth.IsValidEmail(email) {
		return nil, appErrors.NewValidationError(constants.FieldClienteEmail, "email inválido")
	}
	return out, nil
}

func (s *ClienteService) publish(ctx context.Context, eventType events.EventType, id string, data models.SObject) {
	if s.publisher == nil {
		return
	}
	payload := events.RecordPayload{Table: constants.TableCliente, RecordID: id, Data: data}
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		log.Printf("⚠️ Failed to publish %s: %v", eventType, err)
	}
}
