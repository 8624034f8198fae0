// Package costing computes landed import cost for products shipped by sea
// container and distributes shared container expenses across them.
//
// All rates are expressed as percentages (18 means 18%). Monetary amounts
// are USD unless a field name says Local.
package costing

import (
	"errors"
	"fmt"
)

// ContainerCapacityCBM is the volumetric capacity of a standard 40' high cube.
const ContainerCapacityCBM = 70.0

var (
	ErrInvalidGeometry     = errors.New("invalid geometry")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidRate         = errors.New("invalid rate")
	ErrInvalidExchangeRate = errors.New("invalid exchange rate")
)

// ValidationError reports an input that blocks the pipeline for one product.
type ValidationError struct {
	Product string
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Product == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Product, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Dimensions are the outer measures of one box in centimetres.
type Dimensions struct {
	LengthCM float64 `json:"length_cm"`
	WidthCM  float64 `json:"width_cm"`
	HeightCM float64 `json:"height_cm"`
}

// Packing describes how a product is boxed. When Dimensions is set the box
// volume is derived from it and CBMPerBox is ignored.
type Packing struct {
	Dimensions     *Dimensions `json:"dimensions,omitempty"`
	CBMPerBox      float64     `json:"cbm_per_box,omitempty"`
	UnitsPerBox    int         `json:"units_per_box"`
	WeightPerBoxKG float64     `json:"weight_per_box_kg"`
}

// Product is one line of a container roster.
type Product struct {
	ID              string  `json:"id,omitempty"`
	Name            string  `json:"name"`
	SKU             string  `json:"sku,omitempty"`
	FOBUnitPriceUSD float64 `json:"fob_unit_price_usd"`
	Quantity        int     `json:"quantity"`
	Packing         Packing `json:"packing"`

	// DutyPercent overrides RateConfig.DutyPercent when set.
	DutyPercent    *float64 `json:"duty_percent,omitempty"`
	AntidumpingUSD float64  `json:"antidumping_usd,omitempty"`
}

// Validate checks the fields that have no safe fallback.
func (p Product) Validate() error {
	_, err := p.resolve()
	return err
}

// resolve validates the product and returns its geometry.
func (p Product) resolve() (Geometry, error) {
	if p.Quantity <= 0 {
		return Geometry{}, p.invalid("quantity", "la cantidad debe ser mayor a 0", ErrInvalidQuantity)
	}
	if !finite(p.FOBUnitPriceUSD) || p.FOBUnitPriceUSD <= 0 {
		return Geometry{}, p.invalid("fob_unit_price_usd", "el precio FOB debe ser mayor a 0", ErrInvalidPrice)
	}
	if !finite(p.AntidumpingUSD) || p.AntidumpingUSD < 0 {
		return Geometry{}, p.invalid("antidumping_usd", "el antidumping no puede ser negativo", ErrInvalidPrice)
	}
	if p.DutyPercent != nil && (!finite(*p.DutyPercent) || *p.DutyPercent < 0) {
		return Geometry{}, p.invalid("duty_percent", "el DDI no puede ser negativo", ErrInvalidRate)
	}
	geom, err := ResolveGeometry(p.Packing)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Product = p.Name
		}
		return Geometry{}, err
	}
	return geom, nil
}

// DutyRate returns the duty percentage that applies to the product.
func (p Product) DutyRate(rates RateConfig) float64 {
	if p.DutyPercent != nil {
		return *p.DutyPercent
	}
	return rates.DutyPercent
}

func (p Product) invalid(field, msg string, err error) error {
	return &ValidationError{Product: p.Name, Field: field, Message: msg, Err: err}
}

// RateConfig holds the percentage rates shared by every product of a container.
type RateConfig struct {
	DutyPercent           float64 `json:"duty_percent"`
	StatisticalTaxPercent float64 `json:"statistical_tax_percent"`
	VATPercent            float64 `json:"vat_percent"`
	AdditionalVATPercent  float64 `json:"additional_vat_percent"`
	IncomeTaxPercent      float64 `json:"income_tax_percent"`
	GrossReceiptsPercent  float64 `json:"gross_receipts_percent"`
	InsurancePercent      float64 `json:"insurance_percent"`
	AgentPercent          float64 `json:"agent_percent"`
	BrokerPercent         float64 `json:"broker_percent"`
}

// Validate rejects negative and non-finite rates. There is no upper bound.
func (r RateConfig) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"duty_percent", r.DutyPercent},
		{"statistical_tax_percent", r.StatisticalTaxPercent},
		{"vat_percent", r.VATPercent},
		{"additional_vat_percent", r.AdditionalVATPercent},
		{"income_tax_percent", r.IncomeTaxPercent},
		{"gross_receipts_percent", r.GrossReceiptsPercent},
		{"insurance_percent", r.InsurancePercent},
		{"agent_percent", r.AgentPercent},
		{"broker_percent", r.BrokerPercent},
	}
	for _, f := range fields {
		if !finite(f.value) || f.value < 0 {
			return &ValidationError{Field: f.name, Message: "debe ser mayor o igual a 0", Err: ErrInvalidRate}
		}
	}
	return nil
}

// ContainerExpenses are the shared costs of one container load, in USD.
type ContainerExpenses struct {
	FreightPerCBMUSD  float64 `json:"freight_per_cbm_usd"`
	PortHandlingUSD   float64 `json:"port_handling_usd"`
	ShippingAgencyUSD float64 `json:"shipping_agency_usd"`
	WarehousingUSD    float64 `json:"warehousing_usd"`
	TruckingUSD       float64 `json:"trucking_usd"`
}

// FixedTotalUSD is the sum of the four flat container fees.
func (e ContainerExpenses) FixedTotalUSD() float64 {
	return e.PortHandlingUSD + e.ShippingAgencyUSD + e.WarehousingUSD + e.TruckingUSD
}

// Validate rejects negative and non-finite amounts.
func (e ContainerExpenses) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"freight_per_cbm_usd", e.FreightPerCBMUSD},
		{"port_handling_usd", e.PortHandlingUSD},
		{"shipping_agency_usd", e.ShippingAgencyUSD},
		{"warehousing_usd", e.WarehousingUSD},
		{"trucking_usd", e.TruckingUSD},
	}
	for _, f := range fields {
		if !finite(f.value) || f.value < 0 {
			return &ValidationError{Field: f.name, Message: "debe ser mayor o igual a 0", Err: ErrInvalidRate}
		}
	}
	return nil
}
