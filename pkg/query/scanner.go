package query

import (
	"database/sql"

	"github.com/minerva/erp/pkg/models"
)

// ScanRowsToSObjects scans SQL rows into a slice of SObject maps.
// Raw []byte values (VARCHAR, DECIMAL, JSON) are converted to strings.
func ScanRowsToSObjects(rows *sql.Rows) ([]models.SObject, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]models.SObject, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make(models.SObject, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}

		results = append(results, record)
	}

	return results, rows.Err()
}
