package export

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/settings"
)

// Locale of the text report.
var Locale = language.MustParse("es-AR")

// WriteText writes a plain text summary of the calculation with es-AR number
// formatting.
func WriteText(w io.Writer, title string, res *costing.ContainerResult, s settings.Settings) error {
	if res == nil {
		return fmt.Errorf("export text: nil result")
	}

	p := message.NewPrinter(Locale)
	var b strings.Builder
	t := res.Totals

	p.Fprintf(&b, "COSTEO DE CONTENEDOR: %s\n", title)
	b.WriteString(strings.Repeat("=", 60) + "\n")
	p.Fprintf(&b, "Tipo de cambio: $ %.2f por USD\n", cents(res.ExchangeRate))
	p.Fprintf(&b, "Capacidad: %.1f m³ | Utilizado: %.4f m³ (%.2f %%)\n", res.CapacityCBM, t.CBM, t.UtilizationPercent)
	p.Fprintf(&b, "Flete: USD %.2f por m³ | Gastos fijos: USD %.2f\n", s.Expenses.FreightPerCBMUSD, cents(t.ContainerFixedUSD))
	b.WriteString("\n")

	for i, l := range res.Lines {
		p.Fprintf(&b, "%d. %s", i+1, l.Product.Name)
		if l.Product.SKU != "" {
			p.Fprintf(&b, " (%s)", l.Product.SKU)
		}
		b.WriteString("\n")
		p.Fprintf(&b, "   Cantidad: %d | CBM: %.4f | Peso: %.2f kg\n", l.Product.Quantity, l.Capacity.CBMTotal, l.Capacity.WeightTotalKG)
		p.Fprintf(&b, "   Costo total: USD %.2f | Unitario: USD %.2f / $ %.2f\n", cents(l.Cost.FullCostUSD), cents(l.Cost.UnitCostUSD), cents(l.Cost.UnitCostLocal))
		p.Fprintf(&b, "   Precio de publicación sugerido: $ %.2f\n", cents(l.Listing.ListingPrice))
	}
	if len(res.Lines) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("TOTALES\n")
	p.Fprintf(&b, "   Unidades: %d | Peso: %.2f kg\n", t.Units, t.WeightKG)
	p.Fprintf(&b, "   FOB: USD %.2f | Flete: USD %.2f\n", cents(t.FOBUSD), cents(t.FreightUSD))
	p.Fprintf(&b, "   Costo no recuperable: USD %.2f / $ %.2f\n", cents(t.NonRecoverableUSD), cents(t.NonRecoverableLocal))
	p.Fprintf(&b, "   Costo total: USD %.2f / $ %.2f\n", cents(t.FullCostUSD), cents(t.FullCostLocal))

	if res.Overcapacity != nil {
		p.Fprintf(&b, "\nADVERTENCIA: %s\n", res.Overcapacity.String())
	}
	for _, rj := range res.Rejected {
		p.Fprintf(&b, "RECHAZADO: %s (%s): %s\n", rj.Product.Name, rj.Field, rj.Reason)
	}
	if failed := res.Verification.Failed(); len(failed) > 0 {
		b.WriteString("\nVERIFICACIÓN CON ERRORES\n")
		for _, c := range failed {
			p.Fprintf(&b, "   %s: %s\n", c.Name, c.Detail)
		}
	} else {
		b.WriteString("\nVerificación de proporcionalidad: OK\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
