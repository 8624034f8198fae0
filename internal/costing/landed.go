package costing

// Allocation is a product's share of the container-level expenses. The zero
// value is the individual-product flow where nothing is shared yet.
type Allocation struct {
	FreightUSD        float64 `json:"freight_usd"`
	FixedUSD          float64 `json:"fixed_usd"`
	PortHandlingUSD   float64 `json:"port_handling_usd"`
	ShippingAgencyUSD float64 `json:"shipping_agency_usd"`
	WarehousingUSD    float64 `json:"warehousing_usd"`
	TruckingUSD       float64 `json:"trucking_usd"`
}

// CostBreakdown contains every intermediate and total of the landed cost
// pipeline for the full quantity of one product. Downstream consumers read
// these fields by name, so the field set is stable.
type CostBreakdown struct {
	Quantity     int     `json:"quantity"`
	ExchangeRate float64 `json:"exchange_rate"`
	DutyPercent  float64 `json:"duty_percent"`

	FOBUSD            float64 `json:"fob_usd"`
	InsuranceUSD      float64 `json:"insurance_usd"`
	FreightUSD        float64 `json:"freight_usd"`
	CIFUSD            float64 `json:"cif_usd"`
	DutyUSD           float64 `json:"duty_usd"`
	StatisticalTaxUSD float64 `json:"statistical_tax_usd"`
	IVABaseUSD        float64 `json:"iva_base_usd"`

	// Recoverable taxes. Reported for cash flow, never priced in.
	VATUSD           float64 `json:"vat_usd"`
	AdditionalVATUSD float64 `json:"additional_vat_usd"`
	IncomeTaxUSD     float64 `json:"income_tax_usd"`
	GrossReceiptsUSD float64 `json:"gross_receipts_usd"`

	AgentFeeUSD      float64 `json:"agent_fee_usd"`
	BrokerFeeUSD     float64 `json:"broker_fee_usd"`
	AntidumpingUSD   float64 `json:"antidumping_usd"`
	FixedExpensesUSD float64 `json:"fixed_expenses_usd"`

	NonRecoverableUSD   float64 `json:"non_recoverable_usd"`
	FullCostUSD         float64 `json:"full_cost_usd"`
	NonRecoverableLocal float64 `json:"non_recoverable_local"`
	UnitCostUSD         float64 `json:"unit_cost_usd"`
	UnitCostLocal       float64 `json:"unit_cost_local"`
}

// RecoverableTaxesUSD sums the four recoverable taxes.
func (b CostBreakdown) RecoverableTaxesUSD() float64 {
	return b.VATUSD + b.AdditionalVATUSD + b.IncomeTaxUSD + b.GrossReceiptsUSD
}

// Calculate runs the landed cost pipeline for one product. It is the single
// entry point for both flows: the individual-product flow passes the zero
// Allocation, the container flow passes the product's allocated freight and
// fixed expenses. Freight is part of CIF; fixed expenses are added to the
// non-recoverable total only.
//
// The product must have passed Validate.
func Calculate(p Product, rates RateConfig, alloc Allocation, fx Converter) CostBreakdown {
	qty := float64(p.Quantity)
	dutyPercent := p.DutyRate(rates)

	fob := p.FOBUnitPriceUSD * qty
	insurance := fob * pct(rates.InsurancePercent)
	cif := fob + insurance + alloc.FreightUSD

	duty := cif * pct(dutyPercent)
	statTax := cif * pct(rates.StatisticalTaxPercent)
	ivaBase := cif + duty + statTax

	vat := ivaBase * pct(rates.VATPercent)
	additionalVAT := ivaBase * pct(rates.AdditionalVATPercent)
	incomeTax := ivaBase * pct(rates.IncomeTaxPercent)
	grossReceipts := ivaBase * pct(rates.GrossReceiptsPercent)

	agent := fob * pct(rates.AgentPercent)
	broker := fob * pct(rates.BrokerPercent)

	nonRecoverable := cif + duty + statTax + p.AntidumpingUSD + agent + broker + alloc.FixedUSD
	full := nonRecoverable + vat + additionalVAT + incomeTax + grossReceipts
	unitUSD := nonRecoverable / qty

	return CostBreakdown{
		Quantity:            p.Quantity,
		ExchangeRate:        fx.Rate(),
		DutyPercent:         dutyPercent,
		FOBUSD:              fob,
		InsuranceUSD:        insurance,
		FreightUSD:          alloc.FreightUSD,
		CIFUSD:              cif,
		DutyUSD:             duty,
		StatisticalTaxUSD:   statTax,
		IVABaseUSD:          ivaBase,
		VATUSD:              vat,
		AdditionalVATUSD:    additionalVAT,
		IncomeTaxUSD:        incomeTax,
		GrossReceiptsUSD:    grossReceipts,
		AgentFeeUSD:         agent,
		BrokerFeeUSD:        broker,
		AntidumpingUSD:      p.AntidumpingUSD,
		FixedExpensesUSD:    alloc.FixedUSD,
		NonRecoverableUSD:   nonRecoverable,
		FullCostUSD:         full,
		NonRecoverableLocal: fx.ToLocal(nonRecoverable),
		UnitCostUSD:         unitUSD,
		UnitCostLocal:       fx.ToLocal(unitUSD),
	}
}

func pct(v float64) float64 {
	return v / 100.0
}
