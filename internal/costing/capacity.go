package costing

import (
	"fmt"
	"math"
)

// CapacityPlan is the container fit of one product's total quantity.
type CapacityPlan struct {
	CapacityCBM       float64 `json:"capacity_cbm"`
	BoxesNeeded       float64 `json:"boxes_needed"`
	BoxesPerContainer int     `json:"boxes_per_container"`
	UnitsPerContainer int     `json:"units_per_container"`
	CBMTotal          float64 `json:"cbm_total"`
	WeightTotalKG     float64 `json:"weight_total_kg"`
	ContainersNeeded  float64 `json:"containers_needed"`
}

// OvercapacityWarning is advisory: the calculation still runs.
type OvercapacityWarning struct {
	CBMTotal    float64 `json:"cbm_total"`
	CapacityCBM float64 `json:"capacity_cbm"`
	ExcessCBM   float64 `json:"excess_cbm"`
}

func (w OvercapacityWarning) String() string {
	return fmt.Sprintf("exceso de CBM: %.4f m³ sobre un límite de %.1f m³ (excede %.4f m³)",
		w.CBMTotal, w.CapacityCBM, w.ExcessCBM)
}

// PlanCapacity computes how the quantity packs into containers of the given
// capacity. Boxes needed and containers needed stay fractional.
func PlanCapacity(g Geometry, quantity int, capacityCBM float64) CapacityPlan {
	boxesNeeded := float64(quantity) / float64(g.UnitsPerBox)
	boxesPerContainer := int(math.Floor(capacityCBM / g.CBMPerBox))
	cbmTotal := boxesNeeded * g.CBMPerBox

	return CapacityPlan{
		CapacityCBM:       capacityCBM,
		BoxesNeeded:       boxesNeeded,
		BoxesPerContainer: boxesPerContainer,
		UnitsPerContainer: boxesPerContainer * g.UnitsPerBox,
		CBMTotal:          cbmTotal,
		WeightTotalKG:     boxesNeeded * g.WeightPerBoxKG,
		ContainersNeeded:  cbmTotal / capacityCBM,
	}
}

// Overcapacity returns a warning when the plan's volume exceeds one container.
func (p CapacityPlan) Overcapacity() *OvercapacityWarning {
	if p.CBMTotal <= p.CapacityCBM {
		return nil
	}
	return &OvercapacityWarning{
		CBMTotal:    p.CBMTotal,
		CapacityCBM: p.CapacityCBM,
		ExcessCBM:   p.CBMTotal - p.CapacityCBM,
	}
}
