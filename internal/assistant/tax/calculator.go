// Package tax computes flat-rate taxes from the knowledge base regimes.
package tax

import (
	"strings"

	"github.com/bu-online/assistant/internal/assistant/knowledge"
	"github.com/bu-online/assistant/internal/assistant/model"
	"github.com/bu-online/assistant/internal/assistant/money"
	errx "github.com/bu-online/assistant/internal/core/error"
	logx "github.com/bu-online/assistant/pkg/logger"
)

// RegionalNote is attached when a region is given. Regional coefficients are never applied.
const RegionalNote = "Учтите региональные коэффициенты"

type Calculator struct {
	regimes *knowledge.Regimes
}

func NewCalculator(regimes *knowledge.Regimes) *Calculator {
	return &Calculator{regimes: regimes}
}

// Calculate parses incomeText and applies the regime's flat rate.
// An empty region means no regional note.
func (c *Calculator) Calculate(incomeText, regimeName, region string) (model.TaxResult, error) {
	income, err := money.ParseNonNegative(incomeText)
	if err != nil {
		logx.Debug().Err(err).Str("income", incomeText).Msg("income rejected")
		return model.TaxResult{}, errx.New(errx.InvalidInput, err, "Введите сумму дохода неотрицательным числом, например 150000")
	}

	regime, ok := c.regimes.Lookup(regimeName)
	if !ok {
		logx.Warn().Str("regime", regimeName).Msg("unknown tax regime requested")
		return model.TaxResult{}, errx.Newf(errx.UnknownRegime, "Неподдерживаемая система налогообложения: %s. Доступны: %s",
			regimeName, strings.Join(c.regimes.Names(), ", "))
	}

	result := model.TaxResult{
		Regime:   regime.Name,
		Income:   income,
		Rate:     regime.Rate,
		Tax:      income * regime.Rate,
		Deadline: regime.Deadline,
		Forms:    regime.Forms,
	}
	if region != "" {
		result.Note = RegionalNote
	}
	return result, nil
}
