package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/settings"
)

func TestSettings_ReadAndUpdate(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	rr := c.do(http.MethodGet, "/api/settings/rates", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rates := decode[costing.RateConfig](t, rr)
	require.Equal(t, settings.Defaults().Rates, rates)

	rates.DutyPercent = 35
	rr = c.do(http.MethodPut, "/api/settings/rates", rates)
	require.Equal(t, http.StatusOK, rr.Code)

	rates.VATPercent = -1
	rr = c.do(http.MethodPut, "/api/settings/rates", rates)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "vat_percent", decode[errorBody](t, rr).Field)

	exp := costing.ContainerExpenses{FreightPerCBMUSD: 95, PortHandlingUSD: 1500, ShippingAgencyUSD: 1000, WarehousingUSD: 900, TruckingUSD: 600}
	rr = c.do(http.MethodPut, "/api/settings/container", exp)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = c.do(http.MethodGet, "/api/settings/container", nil)
	require.Equal(t, exp, decode[costing.ContainerExpenses](t, rr))

	rr = c.do(http.MethodPut, "/api/settings/exchange-rate", map[string]float64{"exchange_rate": 0})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	rr = c.do(http.MethodPut, "/api/settings/exchange-rate", map[string]float64{"exchange_rate": 1350})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = c.do(http.MethodGet, "/api/settings/exchange-rate", nil)
	require.Equal(t, 1350.0, decode[exchangeRateBody](t, rr).ExchangeRate)

	rr = c.do(http.MethodGet, "/api/settings/rates", nil)
	require.Equal(t, 35.0, decode[costing.RateConfig](t, rr).DutyPercent)
}

func TestSettings_RejectsUnknownFields(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	rr := c.do(http.MethodPut, "/api/settings/exchange-rate", map[string]float64{"dolar": 1200})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSettings_ExportImportWithLegacyKeys(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	rr := c.do(http.MethodGet, "/api/settings/export", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"precio_dolar": 1000`)
	require.Contains(t, rr.Header().Get("Content-Disposition"), "configuracion.json")

	legacy := `{"precio_dolar": 1200, "ddi_pct": 20, "exolgan_puerto": 1650000, "acarreo": 550000}`
	req := httptest.NewRequest(http.MethodPost, "/api/settings/import", bytes.NewBufferString(legacy))
	rr = c.send(req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decode[settings.Settings](t, rr)
	require.Equal(t, 1200.0, got.ExchangeRate)
	require.Equal(t, 20.0, got.Rates.DutyPercent)
	require.InDelta(t, 1500.0, got.Expenses.PortHandlingUSD, 1e-9)
	require.InDelta(t, 500.0, got.Expenses.TruckingUSD, 1e-9)
	require.Equal(t, 21.0, got.Rates.VATPercent)

	req = httptest.NewRequest(http.MethodPost, "/api/settings/import", bytes.NewBufferString(`{"iva_pct": "x"}`))
	rr = c.send(req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/settings/import", bytes.NewBufferString(`{"precio_dolar": -5}`))
	rr = c.send(req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = c.do(http.MethodGet, "/api/settings/exchange-rate", nil)
	require.Equal(t, 1200.0, decode[exchangeRateBody](t, rr).ExchangeRate)
}

func TestSettings_ImportSavedConfigWithAntidumping(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	ctr := createContainer(t, c, "Importado")
	for _, name := range []string{"Organizador", "Lámpara"} {
		rr := c.do(http.MethodPost, "/api/containers/"+ctr.ID+"/products", cubeProduct(name, 10, 0.1))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	saved := `{"exolgan_puerto_usd": 1500.0, "agencia_maritima_usd": 1000.0, "almacenaje_usd": 900.0,
		"acarreo_usd": 600.0, "flete_cbm": 95.0, "precio_dolar": 1180.0, "antidumping": {"Organizador": 150.0}}`

	req := httptest.NewRequest(http.MethodPost, "/api/settings/import", bytes.NewBufferString(saved))
	rr := c.send(req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[importResponse](t, rr)
	require.Equal(t, 1180.0, got.ExchangeRate)
	require.Equal(t, 0, got.AntidumpingApplied)

	req = httptest.NewRequest(http.MethodPost, "/api/settings/import?container_id="+ctr.ID, bytes.NewBufferString(saved))
	rr = c.send(req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, 1, decode[importResponse](t, rr).AntidumpingApplied)

	rr = c.do(http.MethodGet, "/api/containers/"+ctr.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	detail := decode[containerDetail](t, rr)
	require.Equal(t, 150.0, detail.Products[0].AntidumpingUSD)
	require.Equal(t, 0.0, detail.Products[1].AntidumpingUSD)

	req = httptest.NewRequest(http.MethodPost, "/api/settings/import?container_id=00000000-0000-0000-0000-000000000000", bytes.NewBufferString(saved))
	rr = c.send(req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
