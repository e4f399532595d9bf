package costs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustoDia_CLT(t *testing.T) {
	c := Colaborador{ID: "c1", Regime: "CLT", SalarioBase: 3000}

	dia, err := CustoDia(c)
	require.NoError(t, err)
	assert.InDelta(t, 3000*FatorEncargosCLT/22, dia, 0.005)
	assert.InDelta(t, 199.09, dia, 0.005)
}

func TestCustoDia_PJIgnoresSalary(t *testing.T) {
	c := Colaborador{ID: "c2", Regime: "PJ", SalarioBase: 9999, CustoDia: 250}

	dia, err := CustoDia(c)
	require.NoError(t, err)
	assert.Equal(t, 250.0, dia)

	hora, err := CustoHora(c)
	require.NoError(t, err)
	assert.Equal(t, 31.25, hora)
}

func TestCustoDia_UnknownRegime(t *testing.T) {
	_, err := CustoDia(Colaborador{ID: "c3", Regime: "estagio"})
	assert.Error(t, err)

	_, err = Calcular(Colaborador{ID: "c3"})
	assert.Error(t, err)
}

func TestCalcular(t *testing.T) {
	custo, err := Calcular(Colaborador{ID: "c1", Regime: "CLT", SalarioBase: 3000})
	require.NoError(t, err)

	assert.Equal(t, "c1", custo.ColaboradorID)
	assert.Equal(t, 199.09, custo.CustoDia)
	assert.Equal(t, 24.89, custo.CustoHora)
	assert.Equal(t, 4380.0, custo.CustoMes)
}
