package services

import (
	"errors"
	"log"

	"github.com/minerva/erp/internal/infrastructure/persistence"
	appErrors "github.com/minerva/erp/pkg/errors"
)

// mapListError turns a RecordRepository.List failure into an AppError.
// Rejected filters or sort fields are the caller's fault, the rest is ours.
func mapListError(table string, err error) error {
	if errors.Is(err, persistence.ErrInvalidQuery) {
		return appErrors.NewValidationError("query", err.Error())
	}
	log.Printf("❌ Failed to list %s: %v", table, err)
	return appErrors.NewInternalError("failed to list "+table, err)
}
