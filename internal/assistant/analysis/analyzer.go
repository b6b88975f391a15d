// Package analysis summarises tabular income/expense records and recommends a tax regime.
package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bu-online/assistant/internal/assistant/model"
	"github.com/bu-online/assistant/internal/assistant/money"
	errx "github.com/bu-online/assistant/internal/core/error"
	logx "github.com/bu-online/assistant/pkg/logger"
)

const (
	ColumnDate   = "Дата"
	ColumnAmount = "Сумма"
)

const (
	RecommendGeneral     = "Рекомендуем ОСНО с НДС"
	RecommendUSNIncomeEx = "Оптимально УСН 15% (доходы минус расходы)"
	RecommendUSNFlat     = "Можно применять УСН 6% или патент"

	generalThreshold = 3_000_000
	usn15Threshold   = 1_000_000
)

var requiredColumns = []string{ColumnDate, ColumnAmount}

var columnAliases = map[string]string{
	"дата":   ColumnDate,
	"date":   ColumnDate,
	"сумма":  ColumnAmount,
	"amount": ColumnAmount,
}

// ColumnsError lists the required columns a table lacks.
type ColumnsError struct {
	Missing []string
}

func (e *ColumnsError) Error() string {
	return "missing columns: " + strings.Join(e.Missing, ", ")
}

// Analyze validates the columns, parses every row and computes the summary.
func Analyze(t model.Table) (model.AnalysisSummary, error) {
	idx := map[string]int{}
	for i, h := range t.Header {
		canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, seen := idx[canonical]; !seen {
			idx[canonical] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return model.AnalysisSummary{}, errx.New(errx.MissingColumns, &ColumnsError{Missing: missing},
			"Отсутствуют колонки: "+strings.Join(missing, ", "))
	}

	records, err := parseRecords(t.Rows, idx[ColumnDate], idx[ColumnAmount], t.SerialDates)
	if err != nil {
		return model.AnalysisSummary{}, err
	}
	summary := Summarize(records)
	logx.Debug().Int("records", summary.Records).Float64("net", summary.Net).Msg("spreadsheet analysed")
	return summary, nil
}

func parseRecords(rows [][]string, dateCol, amountCol int, serialDates bool) ([]model.FinancialRecord, error) {
	parseDate := ParseDate
	if serialDates {
		parseDate = parseCellDate
	}
	records := make([]model.FinancialRecord, 0, len(rows))
	for i, row := range rows {
		dateText, amountText := cell(row, dateCol), cell(row, amountCol)
		if dateText == "" && amountText == "" {
			continue
		}
		rec := model.FinancialRecord{Date: parseDate(dateText)}
		if amountText != "" {
			amount, err := money.Parse(amountText)
			if err != nil {
				// header is row 1, data starts at row 2
				return nil, errx.New(errx.InvalidInput, err, fmt.Sprintf("Некорректная сумма в строке %d: %q", i+2, amountText))
			}
			rec.Amount = amount
		}
		records = append(records, rec)
	}
	return records, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// Summarize folds records into totals and the recommendation. Records without a
// date still count towards the sums.
func Summarize(records []model.FinancialRecord) model.AnalysisSummary {
	var s model.AnalysisSummary
	for _, r := range records {
		switch {
		case r.Amount > 0:
			s.TotalIncome += r.Amount
		case r.Amount < 0:
			s.TotalExpenses += -r.Amount
		}
		s.Net += r.Amount

		if r.Date == nil {
			continue
		}
		if s.PeriodStart == nil || r.Date.Before(*s.PeriodStart) {
			s.PeriodStart = r.Date
		}
		if s.PeriodEnd == nil || r.Date.After(*s.PeriodEnd) {
			s.PeriodEnd = r.Date
		}
	}
	s.Records = len(records)
	s.Recommendation = Recommend(s.Net)
	return s
}

// Recommend is a three-tier ladder over the net sum of all amounts.
func Recommend(net float64) string {
	switch {
	case net > generalThreshold:
		return RecommendGeneral
	case net >= usn15Threshold:
		return RecommendUSNIncomeEx
	default:
		return RecommendUSNFlat
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"02.01.2006 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2006/01/02",
	"01-02-06",
}

// maxExcelSerial is 9999-12-31.
const maxExcelSerial = 2958465

// ParseDate accepts the common textual layouts. It returns nil when nothing matches.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseExcelSerial converts an Excel serial day number such as "45296".
func parseExcelSerial(s string) *time.Time {
	serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || serial < 1 || serial > maxExcelSerial {
		return nil
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return nil
	}
	return &t
}

// parseCellDate is ParseDate for workbook cells, which also hold serial days.
func parseCellDate(s string) *time.Time {
	if t := ParseDate(s); t != nil {
		return t
	}
	return parseExcelSerial(s)
}
