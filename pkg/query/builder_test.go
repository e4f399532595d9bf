package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_Select(t *testing.T) {
	q := From("os_etapas").
		Select([]string{"step", "payload"}).
		WhereEq("os_id", "os-1").
		OrderBy("step", "asc").
		Limit(10).
		Build()

	assert.Equal(t, "SELECT `step`, `payload` FROM `os_etapas` WHERE `os_id` = ? ORDER BY `step` ASC LIMIT 10", q.SQL)
	assert.Equal(t, []interface{}{"os-1"}, q.Params)
}

func TestBuilder_SelectForUpdate(t *testing.T) {
	q := From("os_etapas").WhereEq("id", "e1").ForUpdate().Build()
	assert.Equal(t, "SELECT * FROM `os_etapas` WHERE `id` = ? FOR UPDATE", q.SQL)
}

func TestBuilder_InsertIsSorted(t *testing.T) {
	q := Insert("clientes", map[string]interface{}{"nome": "ACME", "id": "c1", "cidade": "Goiania"}).Build()

	assert.Equal(t, "INSERT INTO `clientes` (`cidade`, `id`, `nome`) VALUES (?, ?, ?)", q.SQL)
	assert.Equal(t, []interface{}{"Goiania", "c1", "ACME"}, q.Params)
}

func TestBuilder_Update(t *testing.T) {
	q := Update("clientes").
		Set(map[string]interface{}{"nome": "ACME", "cidade": "Anapolis"}).
		WhereEq("id", "c1").
		Build()

	assert.Equal(t, "UPDATE `clientes` SET `cidade` = ?, `nome` = ? WHERE `id` = ?", q.SQL)
	assert.Equal(t, []interface{}{"Anapolis", "ACME", "c1"}, q.Params)
}

func TestBuilder_Delete(t *testing.T) {
	q := Delete("clientes").WhereEq("id", "c1").Build()
	assert.Equal(t, "DELETE FROM `clientes` WHERE `id` = ?", q.SQL)
	assert.Equal(t, []interface{}{"c1"}, q.Params)
}

func TestBuilder_OrderByIgnoresNonIdentifiers(t *testing.T) {
	q := From("lancamentos").OrderBy("data`, (SELECT 1) -- ", "DESC").Limit(5).Build()
	assert.Equal(t, "SELECT * FROM `lancamentos` LIMIT 5", q.SQL)

	q = From("lancamentos").OrderBy("data", "desc").Build()
	assert.Equal(t, "SELECT * FROM `lancamentos` ORDER BY `data` DESC", q.SQL)
}
