package query

import (
	"fmt"
	"strings"
)

// ParseFilterTerm parses list filters like "cidade = Goiania" or "valor > 100".
// Returns SQL condition, params, and true if the term was recognised.
func ParseFilterTerm(term string) (string, []interface{}, bool) {
	// multi-char operators first
	operators := []struct {
		symbol string
		sqlOp  string
	}{
		{"!=", "!="}, {"<>", "!="}, {">=", ">="}, {"<=", "<="},
		{"=", "="}, {">", ">"}, {"<", "<"},
	}

	for _, op := range operators {
		idx := strings.Index(term, op.symbol)
		if idx <= 0 {
			continue
		}
		field := strings.TrimSpace(term[:idx])
		value := strings.TrimSpace(term[idx+len(op.symbol):])
		if field == "" || value == "" {
			continue
		}
		if !IsIdentifier(field) {
			return "", nil, false
		}

		condition := fmt.Sprintf("`%s` %s ?", field, op.sqlOp)
		return condition, []interface{}{strings.Trim(value, `'"`)}, true
	}

	return "", nil, false
}

// IsIdentifier reports whether s is a bare column name: letters, digits and
// underscore only.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}
