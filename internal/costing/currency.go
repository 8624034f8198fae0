package costing

import "math"

// Converter turns USD amounts into local currency (ARS) and back using a
// single exchange rate expressed as local units per USD.
type Converter struct {
	rate float64
}

// NewConverter returns a Converter for a strictly positive, finite rate.
func NewConverter(rate float64) (Converter, error) {
	if !finite(rate) || rate <= 0 {
		return Converter{}, &ValidationError{
			Field:   "exchange_rate",
			Message: "el tipo de cambio debe ser mayor a 0",
			Err:     ErrInvalidExchangeRate,
		}
	}
	return Converter{rate: rate}, nil
}

// Rate returns local currency units per USD.
func (c Converter) Rate() float64 {
	return c.rate
}

// ToLocal converts USD to local currency.
func (c Converter) ToLocal(usd float64) float64 {
	return usd * c.rate
}

// ToUSD converts local currency to USD.
func (c Converter) ToUSD(local float64) float64 {
	return local / c.rate
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
