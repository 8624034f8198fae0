package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/pricing"
)

// handleQuote costs one product on its own, without shared container
// expenses. An exchange_rate query parameter overrides the stored rate.
func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var p costing.Product
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}

	cfg, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in := cfg.Inputs()
	if raw := r.URL.Query().Get("exchange_rate"); raw != "" {
		if in.ExchangeRate, err = parsePositiveFloat(raw, "exchange_rate"); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	res, err := costing.CalculateProduct(p, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Overcapacity != nil {
		s.logger.Warn("product exceeds container capacity",
			zap.String("product", p.Name),
			zap.Float64("cbm_total", res.Overcapacity.CBMTotal),
			zap.Float64("excess_cbm", res.Overcapacity.ExcessCBM),
		)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handlePricingEstimate(w http.ResponseWriter, r *http.Request) {
	cost, err := parseNonNegativeFloat(r.URL.Query().Get("unit_cost_local"), "unit_cost_local")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pricing.EstimateListingPrice(cost))
}
