package costing

// AllocateShared distributes container expenses across products by volume.
//
// Freight is charged per CBM actually shipped. The four flat fees are
// converted to local currency, spread over the container's full capacity and
// converted back, so each product pays cbm * fees / capacity. Under-filled
// containers leave part of the fees unallocated; this is intentional and
// changes unit economics, do not switch the denominator to utilized volume.
//
// The result has one Allocation per entry of cbmTotals, in order.
func AllocateShared(cbmTotals []float64, exp ContainerExpenses, fx Converter, capacityCBM float64) []Allocation {
	perCBM := func(feeUSD float64) float64 {
		return fx.ToLocal(feeUSD) / capacityCBM
	}
	portRate := perCBM(exp.PortHandlingUSD)
	agencyRate := perCBM(exp.ShippingAgencyUSD)
	warehouseRate := perCBM(exp.WarehousingUSD)
	truckingRate := perCBM(exp.TruckingUSD)
	fixedRate := perCBM(exp.FixedTotalUSD())

	out := make([]Allocation, len(cbmTotals))
	for i, cbm := range cbmTotals {
		out[i] = Allocation{
			FreightUSD:        cbm * exp.FreightPerCBMUSD,
			FixedUSD:          fx.ToUSD(cbm * fixedRate),
			PortHandlingUSD:   fx.ToUSD(cbm * portRate),
			ShippingAgencyUSD: fx.ToUSD(cbm * agencyRate),
			WarehousingUSD:    fx.ToUSD(cbm * warehouseRate),
			TruckingUSD:       fx.ToUSD(cbm * truckingRate),
		}
	}
	return out
}

// FixedRateLocalPerCBM is the local-currency fixed cost charged per CBM of
// container capacity.
func FixedRateLocalPerCBM(exp ContainerExpenses, fx Converter, capacityCBM float64) float64 {
	return fx.ToLocal(exp.FixedTotalUSD()) / capacityCBM
}
