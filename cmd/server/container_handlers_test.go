package main

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/export"
	"github.com/Simplici0/costeo/internal/roster"
	"github.com/Simplici0/costeo/internal/store"
)

func cubeProduct(name string, qty int, cbm float64) costing.Product {
	return costing.Product{
		Name:            name,
		FOBUnitPriceUSD: 10,
		Quantity:        qty,
		Packing:         costing.Packing{CBMPerBox: cbm, UnitsPerBox: 1, WeightPerBoxKG: 1},
	}
}

func createContainer(t *testing.T, c *testClient, name string) store.Container {
	t.Helper()
	rr := c.do(http.MethodPost, "/api/containers", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[store.Container](t, rr)
}

func TestContainers_ProductLifecycleAndCosts(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	rr := c.do(http.MethodPut, "/api/settings/container", costing.ContainerExpenses{
		FreightPerCBMUSD: 93, PortHandlingUSD: 1500, ShippingAgencyUSD: 1000, WarehousingUSD: 900, TruckingUSD: 600,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	ctr := createContainer(t, c, "Marzo 2025")
	base := "/api/containers/" + ctr.ID

	rr = c.do(http.MethodPost, base+"/products", cubeProduct("A", 100, 0.1))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	a := decode[costing.Product](t, rr)
	rr = c.do(http.MethodPost, base+"/products", cubeProduct("B", 100, 0.3))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = c.do(http.MethodPost, base+"/products", cubeProduct("A", 5, 0.1))
	require.Equal(t, http.StatusConflict, rr.Code)
	rr = c.do(http.MethodPost, base+"/products", cubeProduct("C", 0, 0.1))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "quantity", decode[errorBody](t, rr).Field)

	rr = c.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	detail := decode[containerDetail](t, rr)
	require.Equal(t, 2, detail.ProductCount)
	require.Len(t, detail.Products, 2)

	rr = c.do(http.MethodGet, base+"/costs", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	costs := decode[containerCosts](t, rr)
	res := costs.Result
	require.Len(t, res.Lines, 2)
	require.True(t, res.Verification.OK())
	nearlyEqual(t, "cbm", res.Totals.CBM, 40)
	nearlyEqual(t, "fixed A", res.Lines[0].Allocation.FixedUSD, 4000*10.0/70)
	nearlyEqual(t, "fixed B", res.Lines[1].Allocation.FixedUSD, 4000*30.0/70)
	nearlyEqual(t, "freight B", res.Lines[1].Allocation.FreightUSD, 30*93)
	nearlyEqual(t, "shares", res.Lines[0].Shares.UtilizedCBMPercent+res.Lines[1].Shares.UtilizedCBMPercent, 100)

	a.Quantity = 200
	rr = c.do(http.MethodPut, base+"/products/"+a.ID, a)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = c.do(http.MethodGet, base+"/costs", nil)
	nearlyEqual(t, "cbm after update", decode[containerCosts](t, rr).Result.Totals.CBM, 50)

	rr = c.do(http.MethodDelete, base+"/products/"+a.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = c.do(http.MethodDelete, base+"/products/"+a.ID, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = c.do(http.MethodGet, "/api/containers", nil)
	list := decode[[]store.Container](t, rr)
	require.Len(t, list, 1)
	require.Equal(t, 1, list[0].ProductCount)

	rr = c.do(http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = c.do(http.MethodGet, base+"/costs", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestContainers_Validation(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	rr := c.do(http.MethodPost, "/api/containers", map[string]string{"name": "  "})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = c.do(http.MethodGet, "/api/containers/00000000-0000-0000-0000-000000000000", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	rr = c.do(http.MethodGet, "/api/containers/no-es-un-id/costs", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestContainers_OverfilledBatchStillCosts(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	ctr := createContainer(t, c, "Lleno")
	base := "/api/containers/" + ctr.ID
	rr := c.do(http.MethodPost, base+"/products", cubeProduct("A", 100, 0.5))
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = c.do(http.MethodPost, base+"/products", cubeProduct("B", 100, 0.3))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = c.do(http.MethodGet, base+"/costs", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[containerCosts](t, rr).Result
	require.NotNil(t, res.Overcapacity)
	nearlyEqual(t, "excess", res.Overcapacity.ExcessCBM, 10)
	require.Len(t, res.Lines, 2)
}

func TestContainers_Exports(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	ctr := createContainer(t, c, "Abril")
	base := "/api/containers/" + ctr.ID
	rr := c.do(http.MethodPost, base+"/products", cubeProduct("Lámpara", 100, 0.1))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = c.do(http.MethodGet, base+"/costs.xlsx", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="costeo_Abril.xlsx"`, rr.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	name, err := f.GetCellValue(export.SheetProducts, "A2")
	require.NoError(t, err)
	require.Equal(t, "Lámpara", name)

	rr = c.do(http.MethodGet, base+"/costs.txt", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	require.Contains(t, rr.Body.String(), "COSTEO DE CONTENEDOR: Abril")
	require.Contains(t, rr.Body.String(), "1. Lámpara")
}

func TestContainers_BulkJSON(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	ctr := createContainer(t, c, "Bulk")
	base := "/api/containers/" + ctr.ID
	rr := c.do(http.MethodPost, base+"/products", cubeProduct("Existente", 10, 0.1))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = c.do(http.MethodPost, base+"/products/bulk", bulkBody{Rows: []roster.Row{
		{Name: "Existente", PriceUSD: 1, Units: 10, CBM: 1, GrossWeightKG: 10},
		{Name: "Taza", PriceRMB: 14.2, Units: 500, CBM: 2.5, GrossWeightKG: 250},
		{Name: "Taza", PriceUSD: 1, Units: 10, CBM: 1, GrossWeightKG: 10},
		{Name: "Rota", PriceUSD: 1, Units: 0, CBM: 1, GrossWeightKG: 10},
	}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	out := decode[bulkResponse](t, rr)
	require.Len(t, out.Added, 1)
	require.Equal(t, 2, out.Skipped)
	require.Len(t, out.Errors, 1)
	require.Equal(t, 4, out.Errors[0].Row)

	taza := out.Added[0]
	nearlyEqual(t, "rmb price", taza.FOBUnitPriceUSD, 2)
	require.Equal(t, "SKU001", taza.SKU)
	require.Equal(t, 1, taza.Packing.UnitsPerBox)
	nearlyEqual(t, "cbm per unit", taza.Packing.CBMPerBox, 0.005)
}

func TestContainers_BulkWorkbookUpload(t *testing.T) {
	_, c := newTestServer(t)
	c.login()
	ctr := createContainer(t, c, "Planilla")

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"Nombre", "Precio En USD", "Cantidad por Carton", "CBM", "GW"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]any{"Vaso", 0.8, 1200, 3.6, 400}))
	require.NoError(t, wb.SetSheetRow(sheet, "A3", &[]any{"Plato", 1.1, 600, 2.4, 300}))
	var xlsx bytes.Buffer
	require.NoError(t, wb.Write(&xlsx))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "proveedor.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/containers/"+ctr.ID+"/products/bulk", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := c.send(req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	out := decode[bulkResponse](t, rr)
	require.Len(t, out.Added, 2)
	require.Equal(t, "Vaso", out.Added[0].Name)
	require.Equal(t, 1200, out.Added[0].Quantity)
}

func TestSnapshots_AreRateLocked(t *testing.T) {
	_, c := newTestServer(t)
	c.login()

	ctr := createContainer(t, c, "Mayo")
	base := "/api/containers/" + ctr.ID
	rr := c.do(http.MethodPost, base+"/products", cubeProduct("A", 100, 0.1))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = c.do(http.MethodPost, base+"/snapshots", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	snap := decode[store.Snapshot](t, rr)
	require.Equal(t, 1000.0, snap.ExchangeRate)

	rr = c.do(http.MethodPut, "/api/settings/exchange-rate", map[string]float64{"exchange_rate": 1500})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = c.do(http.MethodGet, "/api/snapshots/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	stored := decode[store.Snapshot](t, rr)
	require.Equal(t, 1000.0, stored.Result.ExchangeRate)
	require.Equal(t, 1000.0, stored.Settings.ExchangeRate)

	rr = c.do(http.MethodGet, base+"/costs", nil)
	require.Equal(t, 1500.0, decode[containerCosts](t, rr).Result.ExchangeRate)

	rr = c.do(http.MethodGet, base+"/snapshots", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decode[[]store.Snapshot](t, rr), 1)
}

func TestHandleGetSnapshotReadsWithoutRecalculation(t *testing.T) {
	srv, c := newTestServer(t)
	c.login()

	ctr := createContainer(t, c, "Junio")
	rr := c.do(http.MethodPost, "/api/containers/"+ctr.ID+"/products", cubeProduct("A", 100, 0.1))
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = c.do(http.MethodPost, "/api/containers/"+ctr.ID+"/snapshots", nil)
	snap := decode[store.Snapshot](t, rr)

	// Removing the product would change a live calculation.
	product := decode[containerDetail](t, c.do(http.MethodGet, "/api/containers/"+ctr.ID, nil)).Products[0]
	rr = c.do(http.MethodDelete, "/api/containers/"+ctr.ID+"/products/"+product.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/snapshots/"+snap.ID, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", snap.ID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr = httptest.NewRecorder()
	srv.handleGetSnapshot(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[store.Snapshot](t, rr)
	require.Len(t, got.Result.Lines, 1)
	require.Equal(t, "A", got.Result.Lines[0].Product.Name)

	req = httptest.NewRequest(http.MethodGet, "/api/snapshots/x", nil)
	rctx = chi.NewRouteContext()
	rctx.URLParams.Add("id", "x")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr = httptest.NewRecorder()
	srv.handleGetSnapshot(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
