package costing

const cm3PerM3 = 1_000_000.0

// Geometry is the resolved per-box and per-unit volume and weight of a product.
type Geometry struct {
	CBMPerBox       float64 `json:"cbm_per_box"`
	CBMPerUnit      float64 `json:"cbm_per_unit"`
	UnitsPerBox     int     `json:"units_per_box"`
	WeightPerBoxKG  float64 `json:"weight_per_box_kg"`
	WeightPerUnitKG float64 `json:"weight_per_unit_kg"`
}

// BoxCBM converts box dimensions in centimetres to cubic metres.
func BoxCBM(d Dimensions) float64 {
	return d.LengthCM * d.WidthCM * d.HeightCM / cm3PerM3
}

// ResolveGeometry derives the box volume (from dimensions when present) and
// the per-unit figures. A non-positive volume or fewer than one unit per box
// is rejected.
func ResolveGeometry(p Packing) (Geometry, error) {
	cbm := p.CBMPerBox
	if p.Dimensions != nil {
		d := *p.Dimensions
		if !finite(d.LengthCM) || !finite(d.WidthCM) || !finite(d.HeightCM) ||
			d.LengthCM <= 0 || d.WidthCM <= 0 || d.HeightCM <= 0 {
			return Geometry{}, &ValidationError{
				Field:   "dimensions",
				Message: "largo, ancho y alto deben ser mayores a 0",
				Err:     ErrInvalidGeometry,
			}
		}
		cbm = BoxCBM(d)
	}
	if !finite(cbm) || cbm <= 0 {
		return Geometry{}, &ValidationError{
			Field:   "cbm_per_box",
			Message: "el CBM debe ser mayor a 0",
			Err:     ErrInvalidGeometry,
		}
	}
	if p.UnitsPerBox < 1 {
		return Geometry{}, &ValidationError{
			Field:   "units_per_box",
			Message: "las piezas por caja deben ser al menos 1",
			Err:     ErrInvalidGeometry,
		}
	}
	if !finite(p.WeightPerBoxKG) || p.WeightPerBoxKG < 0 {
		return Geometry{}, &ValidationError{
			Field:   "weight_per_box_kg",
			Message: "el peso no puede ser negativo",
			Err:     ErrInvalidGeometry,
		}
	}

	return PerUnit(cbm, p.WeightPerBoxKG, p.UnitsPerBox), nil
}

// PerUnit splits per-carton totals across the units packed in the carton.
// Callers must ensure unitsPerBox >= 1.
func PerUnit(cbmPerBox, weightPerBoxKG float64, unitsPerBox int) Geometry {
	units := float64(unitsPerBox)
	return Geometry{
		CBMPerBox:       cbmPerBox,
		CBMPerUnit:      cbmPerBox / units,
		UnitsPerBox:     unitsPerBox,
		WeightPerBoxKG:  weightPerBoxKG,
		WeightPerUnitKG: weightPerBoxKG / units,
	}
}
