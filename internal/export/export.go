// Package export renders container calculations as an XLSX workbook or a
// plain text summary.
package export

import (
	"github.com/shopspring/decimal"
)

// Sheet names of the workbook.
const (
	SheetProducts     = "Productos"
	SheetSummary      = "Resumen"
	SheetVerification = "Verificación"
)

// cents rounds a monetary amount half away from zero to two decimals.
func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// round4 keeps volumes and shares readable without losing precision that
// matters for container fill.
func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}
