package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-dashboard/internal/dashboard"
	"sales-dashboard/internal/table"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	params      []dashboard.Params
	renderErr   error
	projection  *table.Projection
	readyErr    error
	invalidated []string
}

func (f *fakeService) Render(_ context.Context, p dashboard.Params) (*dashboard.Page, error) {
	f.params = append(f.params, p)
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return &dashboard.Page{View: p.View, Title: "t", Metrics: []dashboard.Metric{}, Charts: []dashboard.Chart{}}, nil
}

func (f *fakeService) ExportCustomers(_ context.Context, p dashboard.Params) (*table.Projection, error) {
	f.params = append(f.params, p)
	return f.projection, nil
}

func (f *fakeService) InvalidateSnapshot(_ context.Context, trigger string) error {
	f.invalidated = append(f.invalidated, trigger)
	return nil
}

func (f *fakeService) Ready(context.Context) error {
	return f.readyErr
}

func setupRouter(svc DashboardService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(svc).SetupRoutes(router)
	return router
}

func do(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetDashboardParsesParams(t *testing.T) {
	svc := &fakeService{}
	router := setupRouter(svc)

	w := do(router, http.MethodGet, "/api/v1/dashboard/customers?min_age=20&max_age=40&columns=name,%20age")
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, svc.params, 1)
	p := svc.params[0]
	assert.Equal(t, dashboard.ViewCustomers, p.View)
	assert.Equal(t, &table.AgeRange{Min: 20, Max: 40}, p.Age)
	assert.Equal(t, []string{"name", "age"}, p.Columns)

	var page dashboard.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, dashboard.ViewCustomers, page.View)
}

func TestGetDashboardRejectsBadInput(t *testing.T) {
	svc := &fakeService{}
	router := setupRouter(svc)

	for _, target := range []string{
		"/api/v1/dashboard/settings",
		"/api/v1/dashboard/customers?min_age=abc",
		"/api/v1/dashboard/customers?min_age=50&max_age=10",
	} {
		w := do(router, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"])
		assert.NotEmpty(t, body["details"])
	}
	assert.Empty(t, svc.params)
}

func TestGetDashboardMapsServiceErrors(t *testing.T) {
	svc := &fakeService{renderErr: table.ErrUnknownColumn}
	router := setupRouter(svc)
	w := do(router, http.MethodGet, "/api/v1/dashboard/customers?columns=salary")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.renderErr = errors.New("boom")
	w = do(router, http.MethodGet, "/api/v1/dashboard/overview")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestOpenAgeBound(t *testing.T) {
	svc := &fakeService{}
	router := setupRouter(svc)

	w := do(router, http.MethodGet, "/api/v1/dashboard/customers?min_age=30")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30, svc.params[0].Age.Min)
	assert.Greater(t, svc.params[0].Age.Max, 150)
}

func TestExportCustomersCSV(t *testing.T) {
	svc := &fakeService{projection: &table.Projection{
		Columns: []string{"name", "age"},
		Rows:    [][]string{{"Budi", "33"}, {"Sari, S.E.", "41"}},
	}}
	router := setupRouter(svc)

	w := do(router, http.MethodGet, "/api/v1/customers/export.csv?columns=name,age")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="customers.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "name,age\nBudi,33\n\"Sari, S.E.\",41\n", w.Body.String())

	p, err := table.ReadCSV(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	assert.Equal(t, svc.projection.Rows, p.Rows)
}

func TestInvalidateCache(t *testing.T) {
	svc := &fakeService{}
	router := setupRouter(svc)

	w := do(router, http.MethodDelete, "/api/v1/cache")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"api"}, svc.invalidated)
}

func TestHealthAndReady(t *testing.T) {
	svc := &fakeService{}
	router := setupRouter(svc)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/ready").Code)

	svc.readyErr = errors.New("db down")
	assert.Equal(t, http.StatusServiceUnavailable, do(router, http.MethodGet, "/ready").Code)
}

func TestListViews(t *testing.T) {
	router := setupRouter(&fakeService{})
	w := do(router, http.MethodGet, "/api/v1/views")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Views []dashboard.ViewInfo `json:"views"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Views, 5)
	assert.Equal(t, dashboard.ViewOverview, body.Views[0].ID)
}
