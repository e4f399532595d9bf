package finance

import (
	"fmt"
	"math"
	"time"

	"github.com/minerva/erp/pkg/utils"
)

// RateioTolerance is how far the percentage total may drift from 100.
const RateioTolerance = 0.1

// Lancamento types
const (
	TipoReceita = "receita"
	TipoDespesa = "despesa"
)

// Lancamento is a financial entry.
type Lancamento struct {
	ID           string    `json:"id"`
	Descricao    string    `json:"descricao"`
	Valor        float64   `json:"valor"`
	Data         time.Time `json:"data"`
	Tipo         string    `json:"tipo"`
	Classificado bool      `json:"classificado"`
}

// RateioItem is one cost-center share of a lancamento.
type RateioItem struct {
	CentroCustoID string  `json:"centro_custo_id"`
	Percentual    float64 `json:"percentual"`
	Valor         float64 `json:"valor"`
}

// Rateio is the result of splitting a value across cost centers.
type Rateio struct {
	Valor           float64      `json:"valor"`
	Itens           []RateioItem `json:"itens"`
	TotalPercentual float64      `json:"total_percentual"`
	TotalValor      float64      `json:"total_valor"`
	Residual        float64      `json:"residual"`
	Valido          bool         `json:"valido"`
}

// Split computes each item's value from its percentage. Input items are not modified.
func Split(valor float64, itens []RateioItem) Rateio {
	r := Rateio{Valor: valor, Itens: make([]RateioItem, len(itens))}

	var totalPct, totalValor float64
	for i, item := range itens {
		item.Valor = utils.Round2(valor * item.Percentual / 100)
		r.Itens[i] = item
		totalPct += item.Percentual
		totalValor += item.Valor
	}

	r.TotalPercentual = utils.Round2(totalPct)
	r.TotalValor = utils.Round2(totalValor)
	r.Residual = utils.Round2(valor - totalValor)
	r.Valido = math.Abs(r.TotalPercentual-100) <= RateioTolerance
	return r
}

// Validate returns the first reason the rateio cannot be persisted.
func (r Rateio) Validate() error {
	if len(r.Itens) == 0 {
		return fmt.Errorf("rateio sem centros de custo")
	}
	seen := make(map[string]bool, len(r.Itens))
	for _, item := range r.Itens {
		if item.CentroCustoID == "" {
			return fmt.Errorf("centro de custo não informado")
		}
		if seen[item.CentroCustoID] {
			return fmt.Errorf("centro de custo %s repetido", item.CentroCustoID)
		}
		seen[item.CentroCustoID] = true
		if item.Percentual <= 0 {
			return fmt.Errorf("percentual do centro de custo %s deve ser positivo", item.CentroCustoID)
		}
	}
	if !r.Valido {
		return fmt.Errorf("percentuais somam %.2f%%, esperado 100%%", r.TotalPercentual)
	}
	return nil
}
