package roster

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Header names accepted in supplier workbooks, matched case-insensitively.
var headerAliases = map[string]string{
	"nombre":              "name",
	"producto":            "name",
	"sku":                 "sku",
	"precio en usd":       "price_usd",
	"precio usd":          "price_usd",
	"precio rmb":          "price_rmb",
	"cantidad por carton": "units",
	"cantidad por cartón": "units",
	"cantidad":            "units",
	"cbm":                 "cbm",
	"gw":                  "gross_weight_kg",
	"peso bruto":          "gross_weight_kg",
	"ddi (%)":             "duty_percent",
	"ddi":                 "duty_percent",
}

var requiredColumns = []string{"name", "units", "cbm", "gross_weight_kg"}

// ReadWorkbook reads supplier rows from the first sheet of an XLSX file.
// The first row holds headers; fully blank rows are ignored.
func ReadWorkbook(r io.Reader) ([]Row, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no data rows", sheets[0])
	}

	columns := mapHeaders(rows[0])
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	out := make([]Row, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		cells := rows[i]
		if blank(cells) {
			continue
		}
		row, err := parseRow(cells, columns)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func mapHeaders(headers []string) map[string]int {
	columns := make(map[string]int, len(headers))
	for i, h := range headers {
		key, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	return columns
}

func parseRow(cells []string, columns map[string]int) (Row, error) {
	cell := func(key string) string {
		i, ok := columns[key]
		if !ok || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}
	num := func(key string) (float64, error) {
		v := cell(key)
		if v == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", key, v)
		}
		return f, nil
	}

	row := Row{Name: cell("name"), SKU: cell("sku")}
	var err error
	if row.PriceUSD, err = num("price_usd"); err != nil {
		return Row{}, err
	}
	if row.PriceRMB, err = num("price_rmb"); err != nil {
		return Row{}, err
	}
	units, err := num("units")
	if err != nil {
		return Row{}, err
	}
	row.Units = int(units)
	if float64(row.Units) != units {
		return Row{}, fmt.Errorf("units: %v is not a whole number", units)
	}
	if row.CBM, err = num("cbm"); err != nil {
		return Row{}, err
	}
	if row.GrossWeightKG, err = num("gross_weight_kg"); err != nil {
		return Row{}, err
	}
	if cell("duty_percent") != "" {
		duty, err := num("duty_percent")
		if err != nil {
			return Row{}, err
		}
		row.DutyPercent = &duty
	}
	return row, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
