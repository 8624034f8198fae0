package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/pricing"
)

func quoteProduct() costing.Product {
	return costing.Product{
		Name:            "Organizador",
		FOBUnitPriceUSD: 10,
		Quantity:        1000,
		Packing: costing.Packing{
			Dimensions:     &costing.Dimensions{LengthCM: 30, WidthCM: 20, HeightCM: 15},
			UnitsPerBox:    10,
			WeightPerBoxKG: 5,
		},
	}
}

func TestQuote_SingleProductFlow(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	rr := c.do(http.MethodPost, "/api/quote", quoteProduct())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	base := decode[costing.ProductResult](t, rr)

	nearlyEqual(t, "cbm total", base.Capacity.CBMTotal, 0.9)
	nearlyEqual(t, "freight", base.Cost.FreightUSD, 0)
	nearlyEqual(t, "fixed", base.Cost.FixedExpensesUSD, 0)
	require.Nil(t, base.Overcapacity)
	require.Greater(t, base.Cost.UnitCostUSD, 10.0)
	nearlyEqual(t, "listing", base.Listing.Base, base.Cost.UnitCostLocal)

	rr = c.do(http.MethodPost, "/api/quote?exchange_rate=2000", quoteProduct())
	require.Equal(t, http.StatusOK, rr.Code)
	doubled := decode[costing.ProductResult](t, rr)
	nearlyEqual(t, "usd unchanged", doubled.Cost.UnitCostUSD, base.Cost.UnitCostUSD)
	nearlyEqual(t, "local doubled", doubled.Cost.UnitCostLocal, 2*base.Cost.UnitCostLocal)
}

func TestQuote_OvercapacityIsAWarning(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	p := quoteProduct()
	p.Quantity = 100000
	rr := c.do(http.MethodPost, "/api/quote", p)
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[costing.ProductResult](t, rr)
	require.NotNil(t, res.Overcapacity)
	nearlyEqual(t, "excess", res.Overcapacity.ExcessCBM, 20)
}

func TestQuote_InvalidInput(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	p := quoteProduct()
	p.Packing.UnitsPerBox = 0
	rr := c.do(http.MethodPost, "/api/quote", p)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "units_per_box", decode[errorBody](t, rr).Field)

	rr = c.do(http.MethodPost, "/api/quote?exchange_rate=-3", quoteProduct())
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestQuote_RejectsNonFiniteNumbers(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	for _, raw := range []string{"NaN", "Inf", "-Inf"} {
		rr := c.do(http.MethodPost, "/api/quote?exchange_rate="+raw, quoteProduct())
		require.Equal(t, http.StatusBadRequest, rr.Code, raw)
		require.Contains(t, decode[errorBody](t, rr).Error, "exchange_rate")

		rr = c.do(http.MethodGet, "/api/pricing/estimate?unit_cost_local="+raw, nil)
		require.Equal(t, http.StatusBadRequest, rr.Code, raw)
		require.Contains(t, decode[errorBody](t, rr).Error, "unit_cost_local")
	}
}

func TestPricingEstimate(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	rr := c.do(http.MethodGet, "/api/pricing/estimate?unit_cost_local=10000", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	nearlyEqual(t, "listing", decode[pricing.ListingEstimate](t, rr).ListingPrice, 30458)

	rr = c.do(http.MethodGet, "/api/pricing/estimate?unit_cost_local=abc", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
