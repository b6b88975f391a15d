package model

import (
	"fmt"
	"strings"

	"github.com/bu-online/assistant/internal/assistant/money"
)

// TaxRegime is a named flat-rate rule from the knowledge base.
type TaxRegime struct {
	Name     string
	Rate     float64
	Deadline string
	Forms    []string
}

// TaxResult is computed per request and never stored.
type TaxResult struct {
	Regime   string
	Income   float64
	Rate     float64
	Tax      float64
	Deadline string
	Forms    []string
	// Note is advisory text, it never changes Tax.
	Note string
}

// Format renders the result as a chat reply.
func (r TaxResult) Format() string {
	var b strings.Builder
	b.WriteString("📊 <b>Налоговый расчет</b>\n\n")
	fmt.Fprintf(&b, "• Система: %s\n", r.Regime)
	fmt.Fprintf(&b, "• Доход: %s ₽\n", money.Format(r.Income))
	fmt.Fprintf(&b, "• Ставка: %s%%\n", money.Percent(r.Rate))
	fmt.Fprintf(&b, "• Налог к уплате: %s ₽\n\n", money.Format(r.Tax))
	fmt.Fprintf(&b, "⏰ Срок уплаты: %s\n", r.Deadline)
	fmt.Fprintf(&b, "📝 Формы: %s", strings.Join(r.Forms, ", "))
	if r.Note != "" {
		fmt.Fprintf(&b, "\n\nℹ️ %s", r.Note)
	}
	return b.String()
}
