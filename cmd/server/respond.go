package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/settings"
	"github.com/Simplici0/costeo/internal/store"
)

const maxBodyBytes = 10 << 20

// requestError is a client mistake reported as 400 with its message.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSON encodes v before writing the status, so an unencodable value
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"error interno"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError maps domain errors to HTTP statuses. Unexpected errors are
// logged and hidden from the client.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr *requestError
		verr   *costing.ValidationError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Message, Field: verr.Field})
	case errors.As(err, &reqErr),
		errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, settings.ErrInvalidDocument):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no encontrado"})
	case errors.Is(err, store.ErrDuplicateProduct):
		writeJSON(w, http.StatusConflict, errorBody{Error: "ya existe un producto con ese nombre en el contenedor"})
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "error interno"})
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("JSON inválido: %v", err)
	}
	return nil
}

func parseNonNegativeFloat(raw, field string) (float64, error) {
	value, err := parseFiniteFloat(raw, field)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, badRequest("%s debe ser mayor o igual a 0", field)
	}
	return value, nil
}

func parsePositiveFloat(raw, field string) (float64, error) {
	value, err := parseFiniteFloat(raw, field)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, badRequest("%s debe ser mayor a 0", field)
	}
	return value, nil
}

// parseFiniteFloat rejects NaN and infinities, which strconv accepts.
func parseFiniteFloat(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, badRequest("%s debe ser numérico", field)
	}
	return value, nil
}
