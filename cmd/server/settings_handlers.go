package main

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/settings"
)

type exchangeRateBody struct {
	ExchangeRate float64 `json:"exchange_rate"`
}

func (s *server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg.Rates)
}

func (s *server) handlePutRates(w http.ResponseWriter, r *http.Request) {
	var rates costing.RateConfig
	if err := decodeJSON(r, &rates); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.UpdateRates(r.Context(), rates); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("rates updated")
	writeJSON(w, http.StatusOK, rates)
}

func (s *server) handleGetContainerExpenses(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg.Expenses)
}

func (s *server) handlePutContainerExpenses(w http.ResponseWriter, r *http.Request) {
	var exp costing.ContainerExpenses
	if err := decodeJSON(r, &exp); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.UpdateExpenses(r.Context(), exp); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("container expenses updated", zap.Float64("fixed_total_usd", exp.FixedTotalUSD()))
	writeJSON(w, http.StatusOK, exp)
}

func (s *server) handleGetExchangeRate(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeRateBody{ExchangeRate: cfg.ExchangeRate})
}

func (s *server) handlePutExchangeRate(w http.ResponseWriter, r *http.Request) {
	var body exchangeRateBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SetExchangeRate(r.Context(), body.ExchangeRate); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("exchange rate updated", zap.Float64("exchange_rate", body.ExchangeRate))
	writeJSON(w, http.StatusOK, body)
}

// handleExportSettings returns the flat key/value settings document.
func (s *server) handleExportSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := settings.EncodeFlat(&buf, cfg); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="configuracion.json"`)
	_, _ = w.Write(buf.Bytes())
}

type importResponse struct {
	settings.Settings
	AntidumpingApplied int `json:"antidumping_applied"`
}

// handleImportSettings overlays a settings file, including legacy keys, on
// the current settings. With a container_id query parameter the file's
// antidumping amounts are applied to that container's products by name.
func (s *server) handleImportSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := settings.DecodeDocument(http.MaxBytesReader(w, r.Body, maxBodyBytes), current)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	containerID := r.URL.Query().Get("container_id")
	if containerID != "" {
		if _, err := s.store.GetContainer(r.Context(), containerID); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	if err := s.store.ReplaceSettings(r.Context(), doc.Settings); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := importResponse{Settings: doc.Settings}
	if containerID != "" && len(doc.Antidumping) > 0 {
		if resp.AntidumpingApplied, err = s.store.SetAntidumping(r.Context(), containerID, doc.Antidumping); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.logger.Info("settings imported",
		zap.Float64("exchange_rate", doc.Settings.ExchangeRate),
		zap.Int("antidumping_applied", resp.AntidumpingApplied),
	)
	writeJSON(w, http.StatusOK, resp)
}
