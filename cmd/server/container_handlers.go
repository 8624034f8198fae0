package main

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/export"
	"github.com/Simplici0/costeo/internal/roster"
	"github.com/Simplici0/costeo/internal/settings"
	"github.com/Simplici0/costeo/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createContainerBody struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

type containerDetail struct {
	store.Container
	Products []costing.Product `json:"products"`
}

type bulkBody struct {
	Rows []roster.Row `json:"rows"`
}

type bulkResponse struct {
	Added   []costing.Product `json:"added"`
	Skipped int               `json:"skipped"`
	Errors  []roster.RowError `json:"errors,omitempty"`
}

// containerCosts is a live calculation with the settings it used.
type containerCosts struct {
	Container store.Container          `json:"container"`
	Settings  settings.Settings        `json:"settings"`
	Result    *costing.ContainerResult `json:"result"`
}

func (s *server) handleListContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := s.store.ListContainers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, containers)
}

func (s *server) handleCreateContainer(w http.ResponseWriter, r *http.Request) {
	var body createContainerBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.store.CreateContainer(r.Context(), body.Name, body.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleGetContainer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.store.GetContainer(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	products, err := s.store.ListProducts(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, containerDetail{Container: c, Products: products})
}

func (s *server) handleDeleteContainer(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteContainer(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var p costing.Product
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.AddProduct(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p costing.Product
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	p.ID = chi.URLParam(r, "productID")
	out, err := s.store.UpdateProduct(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProduct(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBulkProducts loads supplier carton rows from a JSON body or an
// uploaded XLSX file (multipart field "file").
func (s *server) handleBulkProducts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetContainer(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := readRosterRows(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	existing, err := s.store.ProductNames(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	built := roster.Build(rows, existing)

	added, skipped, err := s.store.AddProducts(r.Context(), id, built.Products)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if added == nil {
		added = []costing.Product{}
	}

	s.logger.Info("bulk load",
		zap.String("container_id", id),
		zap.Int("rows", len(rows)),
		zap.Int("added", len(added)),
		zap.Int("skipped", built.Skipped+skipped),
		zap.Int("errors", len(built.Errors)),
	)
	writeJSON(w, http.StatusOK, bulkResponse{Added: added, Skipped: built.Skipped + skipped, Errors: built.Errors})
}

func readRosterRows(r *http.Request) ([]roster.Row, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body bulkBody
		if err := decodeJSON(r, &body); err != nil {
			return nil, err
		}
		return body.Rows, nil
	}

	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return nil, badRequest("formulario inválido: %v", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest("falta el archivo")
	}
	defer file.Close()

	rows, err := roster.ReadWorkbook(file)
	if err != nil {
		return nil, badRequest("planilla inválida: %v", err)
	}
	return rows, nil
}

// calculate runs the live calculation for a container with the current
// settings.
func (s *server) calculate(r *http.Request, id string) (containerCosts, error) {
	c, err := s.store.GetContainer(r.Context(), id)
	if err != nil {
		return containerCosts{}, err
	}
	cfg, err := s.store.GetSettings(r.Context())
	if err != nil {
		return containerCosts{}, err
	}
	products, err := s.store.ListProducts(r.Context(), id)
	if err != nil {
		return containerCosts{}, err
	}

	res, err := costing.CalculateContainer(products, cfg.Inputs())
	if err != nil {
		return containerCosts{}, fmt.Errorf("calculate container %s: %w", id, err)
	}
	s.logWarnings(c, res)
	return containerCosts{Container: c, Settings: cfg, Result: res}, nil
}

func (s *server) logWarnings(c store.Container, res *costing.ContainerResult) {
	if res.Overcapacity != nil {
		s.logger.Warn("container over capacity",
			zap.String("container_id", c.ID),
			zap.Float64("cbm_total", res.Overcapacity.CBMTotal),
			zap.Float64("excess_cbm", res.Overcapacity.ExcessCBM),
		)
	}
	for _, check := range res.Verification.Failed() {
		s.logger.Warn("allocation check failed",
			zap.String("container_id", c.ID),
			zap.String("check", check.Name),
			zap.String("detail", check.Detail),
		)
	}
	for _, rj := range res.Rejected {
		s.logger.Warn("product rejected",
			zap.String("container_id", c.ID),
			zap.String("product", rj.Product.Name),
			zap.String("field", rj.Field),
			zap.String("reason", rj.Reason),
		)
	}
}

func (s *server) handleContainerCosts(w http.ResponseWriter, r *http.Request) {
	costs, err := s.calculate(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, costs)
}

func (s *server) handleContainerCostsWorkbook(w http.ResponseWriter, r *http.Request) {
	costs, err := s.calculate(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, costs.Container.Name, costs.Result, costs.Settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", attachment(costs.Container.Name, "xlsx"))
	_, _ = w.Write(buf.Bytes())
}

func (s *server) handleContainerCostsText(w http.ResponseWriter, r *http.Request) {
	costs, err := s.calculate(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteText(&buf, costs.Container.Name, costs.Result, costs.Settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleCreateSnapshot freezes the current calculation so later settings
// changes do not alter it.
func (s *server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	costs, err := s.calculate(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.store.SaveSnapshot(r.Context(), costs.Container.ID, costs.Settings, costs.Result)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("snapshot saved",
		zap.String("container_id", costs.Container.ID),
		zap.String("snapshot_id", snap.ID),
		zap.Float64("full_cost_usd", snap.FullCostUSD),
	)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.ListSnapshots(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// handleGetSnapshot serves a stored calculation without recomputing it.
func (s *server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.GetSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func attachment(name, ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
	if safe == "" {
		safe = "contenedor"
	}
	return fmt.Sprintf(`attachment; filename="costeo_%s.%s"`, safe, ext)
}
