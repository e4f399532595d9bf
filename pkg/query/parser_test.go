package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilterTerm(t *testing.T) {
	tests := []struct {
		name      string
		term      string
		wantSQL   string
		wantParam interface{}
		wantOK    bool
	}{
		{"equals", "cidade = Goiania", "`cidade` = ?", "Goiania", true},
		{"quoted", "nome = 'ACME Ltda'", "`nome` = ?", "ACME Ltda", true},
		{"greater or equal", "valor >= 100", "`valor` >= ?", "100", true},
		{"not equals diamond", "status <> ativo", "`status` != ?", "ativo", true},
		{"injection in field", "nome; DROP = 1", "", nil, false},
		{"no operator", "just text", "", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, ok := ParseFilterTerm(tc.term)
			assert.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				return
			}
			assert.Equal(t, tc.wantSQL, sql)
			assert.Equal(t, []interface{}{tc.wantParam}, params)
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("last_modified_date"))
	assert.True(t, IsIdentifier("Col2"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("data`"))
	assert.False(t, IsIdentifier("data DESC"))
	assert.False(t, IsIdentifier("t.data"))
}
