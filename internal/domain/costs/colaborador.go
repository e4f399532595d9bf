package costs

import (
	"fmt"

	"github.com/minerva/erp/pkg/constants"
	"github.com/minerva/erp/pkg/utils"
)

const (
	// FatorEncargosCLT is the payroll burden multiplier applied to CLT salaries
	FatorEncargosCLT = 1.46
	// DiasUteisMes is the number of working days used to prorate a monthly salary
	DiasUteisMes = 22
	// HorasDia is the length of a working day
	HorasDia = 8
)

// Colaborador is an employee or contractor.
type Colaborador struct {
	ID          string  `json:"id"`
	Nome        string  `json:"nome"`
	Regime      string  `json:"regime"`
	SalarioBase float64 `json:"salario_base"`
	CustoDia    float64 `json:"custo_dia"`
	Funcao      string  `json:"funcao,omitempty"`
	Ativo       bool    `json:"ativo"`
}

// Custo is the presentation view of a collaborator's cost.
type Custo struct {
	ColaboradorID string  `json:"colaborador_id"`
	Regime        string  `json:"regime"`
	CustoDia      float64 `json:"custo_dia"`
	CustoHora     float64 `json:"custo_hora"`
	CustoMes      float64 `json:"custo_mes"`
}

// CustoDia returns the unrounded daily cost. CLT salaries carry the payroll
// burden over the working days of a month; PJ contractors bill a fixed day rate.
func CustoDia(c Colaborador) (float64, error) {
	switch c.Regime {
	case constants.RegimeCLT:
		return c.SalarioBase * FatorEncargosCLT / DiasUteisMes, nil
	case constants.RegimePJ:
		return c.CustoDia, nil
	default:
		return 0, fmt.Errorf("regime desconhecido %q para colaborador %s", c.Regime, c.ID)
	}
}

// CustoHora is the daily cost spread over a working day.
func CustoHora(c Colaborador) (float64, error) {
	dia, err := CustoDia(c)
	if err != nil {
		return 0, err
	}
	return dia / HorasDia, nil
}

// Calcular builds the rounded cost view.
func Calcular(c Colaborador) (Custo, error) {
	dia, err := CustoDia(c)
	if err != nil {
		return Custo{}, err
	}
	return Custo{
		ColaboradorID: c.ID,
		Regime:        c.Regime,
		CustoDia:      utils.Round2(dia),
		CustoHora:     utils.Round2(dia / HorasDia),
		CustoMes:      utils.Round2(dia * DiasUteisMes),
	}, nil
}
