package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/bu-online/assistant/internal/assistant/money"
)

// Table is raw tabular input: a header row followed by data rows.
type Table struct {
	Header []string
	Rows   [][]string
	// SerialDates marks workbook input, where a numeric date cell is an Excel serial day.
	SerialDates bool
}

// FinancialRecord is one parsed row. Date is nil when the cell did not parse.
type FinancialRecord struct {
	Date   *time.Time
	Amount float64
}

type AnalysisSummary struct {
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	TotalIncome    float64
	TotalExpenses  float64
	Net            float64
	Recommendation string
	Records        int
}

const periodLayout = "02.01.2006"

func formatPeriodDate(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format(periodLayout)
}

// Format renders the summary as a chat reply.
func (s AnalysisSummary) Format() string {
	var b strings.Builder
	b.WriteString("📈 <b>Финансовый анализ</b>\n\n")
	fmt.Fprintf(&b, "📅 Период: %s - %s\n", formatPeriodDate(s.PeriodStart), formatPeriodDate(s.PeriodEnd))
	fmt.Fprintf(&b, "💰 Доходы: %s ₽\n", money.Format(s.TotalIncome))
	fmt.Fprintf(&b, "💸 Расходы: %s ₽\n\n", money.Format(s.TotalExpenses))
	b.WriteString("💡 <b>Рекомендации:</b>\n")
	b.WriteString(s.Recommendation)
	return b.String()
}
