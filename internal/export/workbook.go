package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/settings"
)

type column struct {
	header string
	value  func(l costing.Line) any
}

var productColumns = []column{
	{"Nombre", func(l costing.Line) any { return l.Product.Name }},
	{"SKU", func(l costing.Line) any { return l.Product.SKU }},
	{"Cantidad", func(l costing.Line) any { return l.Product.Quantity }},
	{"FOB unitario (USD)", func(l costing.Line) any { return cents(l.Product.FOBUnitPriceUSD) }},
	{"CBM por caja", func(l costing.Line) any { return round4(l.Geometry.CBMPerBox) }},
	{"Piezas por caja", func(l costing.Line) any { return l.Geometry.UnitsPerBox }},
	{"Cajas", func(l costing.Line) any { return round4(l.Capacity.BoxesNeeded) }},
	{"CBM total", func(l costing.Line) any { return round4(l.Capacity.CBMTotal) }},
	{"Peso total (kg)", func(l costing.Line) any { return round4(l.Capacity.WeightTotalKG) }},
	{"DDI (%)", func(l costing.Line) any { return l.Cost.DutyPercent }},
	{"FOB (USD)", func(l costing.Line) any { return cents(l.Cost.FOBUSD) }},
	{"Seguro (USD)", func(l costing.Line) any { return cents(l.Cost.InsuranceUSD) }},
	{"Flete (USD)", func(l costing.Line) any { return cents(l.Allocation.FreightUSD) }},
	{"CIF (USD)", func(l costing.Line) any { return cents(l.Cost.CIFUSD) }},
	{"DDI (USD)", func(l costing.Line) any { return cents(l.Cost.DutyUSD) }},
	{"Tasas (USD)", func(l costing.Line) any { return cents(l.Cost.StatisticalTaxUSD) }},
	{"Base IVA (USD)", func(l costing.Line) any { return cents(l.Cost.IVABaseUSD) }},
	{"IVA (USD)", func(l costing.Line) any { return cents(l.Cost.VATUSD) }},
	{"IVA adicional (USD)", func(l costing.Line) any { return cents(l.Cost.AdditionalVATUSD) }},
	{"Ganancias (USD)", func(l costing.Line) any { return cents(l.Cost.IncomeTaxUSD) }},
	{"IIBB (USD)", func(l costing.Line) any { return cents(l.Cost.GrossReceiptsUSD) }},
	{"Agente (USD)", func(l costing.Line) any { return cents(l.Cost.AgentFeeUSD) }},
	{"Despachante (USD)", func(l costing.Line) any { return cents(l.Cost.BrokerFeeUSD) }},
	{"Antidumping (USD)", func(l costing.Line) any { return cents(l.Cost.AntidumpingUSD) }},
	{"Exolgan (USD)", func(l costing.Line) any { return cents(l.Allocation.PortHandlingUSD) }},
	{"Agencia marítima (USD)", func(l costing.Line) any { return cents(l.Allocation.ShippingAgencyUSD) }},
	{"Almacenaje (USD)", func(l costing.Line) any { return cents(l.Allocation.WarehousingUSD) }},
	{"Acarreo (USD)", func(l costing.Line) any { return cents(l.Allocation.TruckingUSD) }},
	{"Gastos fijos (USD)", func(l costing.Line) any { return cents(l.Allocation.FixedUSD) }},
	{"Costo no recuperable (USD)", func(l costing.Line) any { return cents(l.Cost.NonRecoverableUSD) }},
	{"Costo total (USD)", func(l costing.Line) any { return cents(l.Cost.FullCostUSD) }},
	{"Costo unitario (USD)", func(l costing.Line) any { return cents(l.Cost.UnitCostUSD) }},
	{"Costo unitario (ARS)", func(l costing.Line) any { return cents(l.Cost.UnitCostLocal) }},
	{"Precio de publicación (ARS)", func(l costing.Line) any { return cents(l.Listing.ListingPrice) }},
	{"% contenedor", func(l costing.Line) any { return round4(l.Shares.ContainerCBMPercent) }},
	{"% CBM utilizado", func(l costing.Line) any { return round4(l.Shares.UtilizedCBMPercent) }},
	{"% peso", func(l costing.Line) any { return round4(l.Shares.WeightPercent) }},
	{"% costo", func(l costing.Line) any { return round4(l.Shares.CostPercent) }},
}

// WriteWorkbook writes the calculation as an XLSX file with one sheet per
// view: product lines, batch summary and proportionality checks.
func WriteWorkbook(w io.Writer, title string, res *costing.ContainerResult, s settings.Settings) error {
	if res == nil {
		return fmt.Errorf("export workbook: nil result")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetProducts); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeProducts(f, res, headerStyle); err != nil {
		return err
	}
	if err := writeSummary(f, title, res, s, headerStyle); err != nil {
		return err
	}
	if err := writeVerification(f, res, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeProducts(f *excelize.File, res *costing.ContainerResult, headerStyle int) error {
	header := make([]any, len(productColumns))
	for i, c := range productColumns {
		header[i] = c.header
	}
	if err := writeRow(f, SheetProducts, 1, header); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetProducts, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style products header: %w", err)
	}

	for i, l := range res.Lines {
		row := make([]any, len(productColumns))
		for j, c := range productColumns {
			row[j] = c.value(l)
		}
		if err := writeRow(f, SheetProducts, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, title string, res *costing.ContainerResult, s settings.Settings, headerStyle int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	t := res.Totals
	r := s.Rates
	e := s.Expenses
	rows := [][]any{
		{"Concepto", "Valor"},
		{"Contenedor", title},
		{"Tipo de cambio (ARS/USD)", cents(res.ExchangeRate)},
		{"Capacidad (m³)", res.CapacityCBM},
		{"CBM utilizado", round4(t.CBM)},
		{"Utilización (%)", round4(t.UtilizationPercent)},
		{"Contenedores necesarios", round4(t.ContainersNeeded)},
		{"Peso total (kg)", round4(t.WeightKG)},
		{"Unidades", t.Units},
		{"FOB total (USD)", cents(t.FOBUSD)},
		{"Flete total (USD)", cents(t.FreightUSD)},
		{"Gastos fijos del contenedor (USD)", cents(t.ContainerFixedUSD)},
		{"Gastos fijos del contenedor (ARS)", cents(t.ContainerFixedLocal)},
		{"Gastos fijos por m³ (ARS)", cents(t.FixedRateLocalCBM)},
		{"Gastos fijos asignados (USD)", cents(t.AllocatedFixedUSD)},
		{"Gastos fijos sin asignar (USD)", cents(t.UnallocatedFixedUSD)},
		{"Impuestos recuperables (USD)", cents(t.RecoverableUSD)},
		{"Costo no recuperable (USD)", cents(t.NonRecoverableUSD)},
		{"Costo no recuperable (ARS)", cents(t.NonRecoverableLocal)},
		{"Costo total (USD)", cents(t.FullCostUSD)},
		{"Costo total (ARS)", cents(t.FullCostLocal)},
		{},
		{"DDI (%)", r.DutyPercent},
		{"Tasas (%)", r.StatisticalTaxPercent},
		{"IVA (%)", r.VATPercent},
		{"IVA adicional (%)", r.AdditionalVATPercent},
		{"Ganancias (%)", r.IncomeTaxPercent},
		{"IIBB (%)", r.GrossReceiptsPercent},
		{"Seguro (%)", r.InsurancePercent},
		{"Agente (%)", r.AgentPercent},
		{"Despachante (%)", r.BrokerPercent},
		{"Flete por m³ (USD)", e.FreightPerCBMUSD},
		{"Exolgan (USD)", e.PortHandlingUSD},
		{"Agencia marítima (USD)", e.ShippingAgencyUSD},
		{"Almacenaje (USD)", e.WarehousingUSD},
		{"Acarreo (USD)", e.TruckingUSD},
	}
	if res.Overcapacity != nil {
		rows = append(rows, []any{}, []any{"Advertencia", res.Overcapacity.String()})
	}

	for i, row := range rows {
		if err := writeRow(f, SheetSummary, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(SheetSummary, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	return f.SetColWidth(SheetSummary, "A", "A", 36)
}

func writeVerification(f *excelize.File, res *costing.ContainerResult, headerStyle int) error {
	if _, err := f.NewSheet(SheetVerification); err != nil {
		return fmt.Errorf("create verification sheet: %w", err)
	}

	rowNo := 1
	if err := writeRow(f, SheetVerification, rowNo, []any{"Control", "Resultado", "Detalle"}); err != nil {
		return err
	}
	for _, c := range res.Verification.Checks {
		rowNo++
		if err := writeRow(f, SheetVerification, rowNo, []any{c.Name, verdict(c), c.Detail}); err != nil {
			return err
		}
	}

	if len(res.Rejected) > 0 {
		rowNo += 2
		if err := writeRow(f, SheetVerification, rowNo, []any{"Producto rechazado", "Campo", "Motivo"}); err != nil {
			return err
		}
		for _, rj := range res.Rejected {
			rowNo++
			if err := writeRow(f, SheetVerification, rowNo, []any{rj.Product.Name, rj.Field, rj.Reason}); err != nil {
				return err
			}
		}
	}

	if err := f.SetRowStyle(SheetVerification, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style verification header: %w", err)
	}
	return nil
}

func verdict(c costing.Check) string {
	switch {
	case c.Skipped:
		return "N/A"
	case c.OK:
		return "OK"
	default:
		return "ERROR"
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
