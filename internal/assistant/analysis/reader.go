package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bu-online/assistant/internal/assistant/model"
	errx "github.com/bu-online/assistant/internal/core/error"
)

// ReadFile loads the first sheet of an Excel workbook or a CSV file.
func ReadFile(path string) (model.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx":
		return readWorkbook(path)
	case ".csv":
		return readCSV(path)
	default:
		return model.Table{}, errx.Newf(errx.InvalidInput, "Неподдерживаемый формат файла %q, нужен .xlsx или .csv", filepath.Ext(path))
	}
}

func readWorkbook(path string) (model.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return model.Table{}, errx.New(errx.InvalidInput, err, "Не удалось открыть Excel-файл")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.Table{}, nil
	}
	// raw values keep dates as serial numbers and amounts unformatted
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return model.Table{}, errx.New(errx.InvalidInput, err, "Не удалось прочитать лист "+sheets[0])
	}
	t := toTable(rows)
	t.SerialDates = true
	return t, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(path string) (model.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Table{}, fmt.Errorf("read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = sniffDelimiter(raw)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Table{}, errx.New(errx.InvalidInput, err, "Не удалось разобрать CSV-файл")
		}
		rows = append(rows, rec)
	}
	return toTable(rows), nil
}

// sniffDelimiter prefers ';' when the header line has more semicolons than commas,
// which is how spreadsheet tools export CSV in comma-decimal locales.
func sniffDelimiter(raw []byte) rune {
	header := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		header = raw[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

func toTable(rows [][]string) model.Table {
	if len(rows) == 0 {
		return model.Table{}
	}
	return model.Table{Header: rows[0], Rows: rows[1:]}
}
