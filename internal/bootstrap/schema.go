package bootstrap

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/minerva/erp/internal/domain/schema"
	"github.com/minerva/erp/internal/infrastructure/persistence"
)

//go:embed tables.json
var tablesJSON []byte

// GetTableDefinitions returns the table definitions in creation order.
func GetTableDefinitions() ([]schema.TableDefinition, error) {
	var definitions []schema.TableDefinition
	if err := json.Unmarshal(tablesJSON, &definitions); err != nil {
		return nil, fmt.Errorf("failed to parse tables.json: %w", err)
	}
	return definitions, nil
}

// InitializeSchema creates missing tables. Definitions are ordered so that
// referenced tables come first.
func InitializeSchema(ctx context.Context, exec persistence.Executor) error {
	log.Println("🔧 Initializing schema...")

	defs, err := GetTableDefinitions()
	if err != nil {
		return err
	}

	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}
		if _, err := exec.ExecContext(ctx, def.CreateStatement()); err != nil {
			log.Printf("❌ Failed to create table %s: %v", def.TableName, err)
			return fmt.Errorf("failed to create table %s: %w", def.TableName, err)
		}
		log.Printf("   ✅ %s", def.TableName)
	}
	return nil
}
