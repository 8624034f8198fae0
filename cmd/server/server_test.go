package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/costeo/internal/db"
	"github.com/Simplici0/costeo/internal/migrations"
	"github.com/Simplici0/costeo/internal/seed"
	"github.com/Simplici0/costeo/internal/settings"
	"github.com/Simplici0/costeo/internal/store"
)

const (
	testEmail    = "admin@costeo.local"
	testPassword = "clave-segura"
)

type testClient struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newTestServer(t *testing.T) (*server, *testClient) {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, filepath.Join(t.TempDir(), "server-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, migrations.Up(ctx, conn, "", nil))
	_, err = seed.Run(ctx, conn, seed.Config{AdminEmail: testEmail, AdminPassword: testPassword, Defaults: settings.Defaults()})
	require.NoError(t, err)

	st := store.New(conn)
	auth, err := newAuthService(st, "test-session-secret-0123456789abcdef", false)
	require.NoError(t, err)

	srv := &server{auth: auth, store: st, logger: zap.NewNop()}
	return srv, &testClient{t: t, handler: srv.routes()}
}

func (c *testClient) login() {
	c.t.Helper()
	rr := c.do(http.MethodPost, "/login", map[string]string{"email": testEmail, "password": testPassword})
	require.Equal(c.t, http.StatusOK, rr.Code, rr.Body.String())
	c.cookies = rr.Result().Cookies()
	require.NotEmpty(c.t, c.cookies)
}

func (c *testClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *testClient) send(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	return rr
}

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestAuth_RequiresSession(t *testing.T) {
	_, c := newTestServer(t)

	rr := c.do(http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = c.do(http.MethodGet, "/api/containers", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = c.do(http.MethodPost, "/login", map[string]string{"email": testEmail, "password": "otra"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "Credenciales inválidas")

	rr = c.do(http.MethodPost, "/login", map[string]string{"email": "nadie@costeo.local", "password": testPassword})
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	c.login()
	rr = c.do(http.MethodGet, "/api/containers", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[]`, rr.Body.String())

	rr = c.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	c.cookies = rr.Result().Cookies()
	rr = c.do(http.MethodGet, "/api/containers", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_FormLogin(t *testing.T) {
	_, c := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("email=admin%40costeo.local&password=clave-segura"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := c.send(req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestParseNumbers(t *testing.T) {
	v, err := parseNonNegativeFloat("0", "unit_cost_local")
	require.NoError(t, err)
	require.Equal(t, 0.0, v)

	_, err = parseNonNegativeFloat("-1", "unit_cost_local")
	require.EqualError(t, err, "unit_cost_local debe ser mayor o igual a 0")

	_, err = parseNonNegativeFloat("abc", "unit_cost_local")
	require.EqualError(t, err, "unit_cost_local debe ser numérico")

	_, err = parsePositiveFloat("0", "exchange_rate")
	require.EqualError(t, err, "exchange_rate debe ser mayor a 0")

	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "infinity"} {
		_, err = parseNonNegativeFloat(raw, "unit_cost_local")
		require.EqualError(t, err, "unit_cost_local debe ser numérico", raw)
		_, err = parsePositiveFloat(raw, "exchange_rate")
		require.EqualError(t, err, "exchange_rate debe ser numérico", raw)
	}
}

func TestWriteJSON_UnencodableValueIsServerError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, map[string]float64{"v": math.NaN()})
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.JSONEq(t, `{"error":"error interno"}`, rr.Body.String())
}
