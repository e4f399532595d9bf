package schema

import (
	"fmt"
	"regexp"
	"strings"
)

var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ColumnDefinition represents a single column in a table
type ColumnDefinition struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	PrimaryKey    bool   `json:"primary_key,omitempty"`
	Unique        bool   `json:"unique,omitempty"`
	Nullable      bool   `json:"nullable,omitempty"`
	Default       string `json:"default,omitempty"`
	AutoIncrement bool   `json:"auto_increment,omitempty"`
}

// IndexDefinition represents an index on a table
type IndexDefinition struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// ForeignKeyDefinition represents a foreign key constraint
type ForeignKeyDefinition struct {
	Column     string `json:"column"`
	References string `json:"references"` // format: "tableName(columnName)"
	OnDelete   string `json:"on_delete,omitempty"`
}

// TableDefinition represents a complete table schema
type TableDefinition struct {
	TableName   string                 `json:"table_name"`
	Category    string                 `json:"category"` // auth, workflow, financeiro, ...
	Description string                 `json:"description"`
	Columns     []ColumnDefinition     `json:"columns"`
	Indices     []IndexDefinition      `json:"indices,omitempty"`
	ForeignKeys []ForeignKeyDefinition `json:"foreign_keys,omitempty"`
}

// Validate fails fast on names and types the DDL builder cannot handle.
func (t TableDefinition) Validate() error {
	if !tableNamePattern.MatchString(t.TableName) {
		return fmt.Errorf("table name '%s' must be snake_case (lowercase, alphanumeric, underscores)", t.TableName)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table '%s' has no columns", t.TableName)
	}
	for _, col := range t.Columns {
		if col.Name == "" || col.Type == "" {
			return fmt.Errorf("table '%s' has a column without name or type", t.TableName)
		}
	}
	return nil
}

// CreateStatement builds the CREATE TABLE IF NOT EXISTS statement with
// indexes and foreign keys inline.
func (t TableDefinition) CreateStatement() string {
	var parts []string
	for _, col := range t.Columns {
		parts = append(parts, columnDDL(col))
	}
	for _, idx := range t.Indices {
		parts = append(parts, indexDDL(t.TableName, idx))
	}
	for _, fk := range t.ForeignKeys {
		parts = append(parts, foreignKeyDDL(fk))
	}

	var ddl strings.Builder
	ddl.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n", t.TableName))
	ddl.WriteString("  ")
	ddl.WriteString(strings.Join(parts, ",\n  "))
	ddl.WriteString("\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci")
	return ddl.String()
}

func columnDDL(col ColumnDefinition) string {
	ddl := fmt.Sprintf("`%s` %s", col.Name, col.Type)
	if col.PrimaryKey {
		ddl += " PRIMARY KEY"
	}
	if col.AutoIncrement {
		ddl += " AUTO_INCREMENT"
	}
	if !col.Nullable && !col.PrimaryKey {
		ddl += " NOT NULL"
	}
	if col.Unique && !col.PrimaryKey {
		ddl += " UNIQUE"
	}
	if col.Default != "" {
		ddl += " DEFAULT " + col.Default
	}
	return ddl
}

func indexDDL(tableName string, idx IndexDefinition) string {
	indexName := idx.Name
	if indexName == "" {
		indexName = fmt.Sprintf("idx_%s_%s", tableName, strings.Join(idx.Columns, "_"))
	}
	columnList := strings.Join(idx.Columns, "`, `")
	if idx.Unique {
		return fmt.Sprintf("UNIQUE KEY `%s` (`%s`)", indexName, columnList)
	}
	return fmt.Sprintf("KEY `%s` (`%s`)", indexName, columnList)
}

func foreignKeyDDL(fk ForeignKeyDefinition) string {
	table, column := fk.References, "id"
	if open := strings.Index(fk.References, "("); open > 0 && strings.HasSuffix(fk.References, ")") {
		table = fk.References[:open]
		column = fk.References[open+1 : len(fk.References)-1]
	}
	ddl := fmt.Sprintf("FOREIGN KEY (`%s`) REFERENCES `%s`(`%s`)", fk.Column, table, column)
	if fk.OnDelete != "" {
		ddl += " ON DELETE " + fk.OnDelete
	}
	return ddl
}
