package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-plan/atlas-plan/internal/matrix"
	"github.com/atlas-plan/atlas-plan/internal/org"
	"github.com/atlas-plan/atlas-plan/internal/plan"
)

type fakeRepo struct {
	records []org.FlatRecord
	planned []plan.MetricPoint
	actual  []plan.MetricPoint
}

func (f *fakeRepo) Records(ctx context.Context, dim matrix.Dimension) ([]org.FlatRecord, error) {
	return f.records, nil
}

func (f *fakeRepo) PlannedHours(ctx context.Context, dim matrix.Dimension, year int) ([]plan.MetricPoint, error) {
	return f.planned, nil
}

func (f *fakeRepo) ActualHours(ctx context.Context, dim matrix.Dimension, year int) ([]plan.MetricPoint, error) {
	return f.actual, nil
}

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	repo := &fakeRepo{
		records: []org.FlatRecord{
			{ID: "bu1", Code: "BU1", Name: "Platform", Type: org.TypeBusinessUnit},
			{ID: "pl1", Code: "PL1", Name: "Payments", Type: org.TypeProductLine, ParentID: "bu1"},
			{ID: "p1", Code: "PAY-1", Name: "Gateway", Type: org.TypeProject, ParentID: "pl1"},
		},
		planned: []plan.MetricPoint{{EntityID: "p1", Year: 2026, Month: 1, Value: 10}},
		actual:  []plan.MetricPoint{{EntityID: "p1", Year: 2026, Month: 1, Value: 8}},
	}
	svc := matrix.NewService(repo, nil, nil, nil)
	handler := NewHandler(nil, svc)

	r := chi.NewRouter()
	r.Route("/planning", handler.MountRoutes)
	return r
}

func TestHandleMatrixReturnsView(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/planning/matrix?dimension=org&year=2026", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var vm matrix.MatrixVM
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vm))
	assert.Equal(t, 2026, vm.Year)
	assert.Equal(t, matrix.DimensionOrg, vm.Dimension)
	require.Len(t, vm.Rows, 3)
	assert.Equal(t, "bu1", vm.Rows[0].ID)
	assert.Equal(t, 10.0, vm.GrandTotal.TotalPlanned)
	assert.Equal(t, 8.0, vm.GrandTotal.TotalActual)
}

func TestHandleMatrixRejectsBadInput(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{
		"/planning/matrix?dimension=bogus",
		"/planning/matrix?year=abc",
		"/planning/matrix?year=1850",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestHandleMatrixCSVContract(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/planning/matrix/export.csv?dimension=org&year=2026", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "allocation_org_2026.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\r\n")
	// Three tree rows plus header and grand total.
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "Code,Name,Type,2026-1,"))
	// January is past relative to the server clock, so plan/actual renders.
	assert.Contains(t, lines[1], "10/8")
}

func TestHandleTreeReturnsNestedNodes(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/planning/tree?dimension=org", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Tree []matrix.TreeNodeVM `json:"tree"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Tree, 1)
	require.Len(t, payload.Tree[0].Children, 1)
	assert.Equal(t, "Gateway", payload.Tree[0].Children[0].Children[0].Name)
}

func TestHandleSummaryOrdersRows(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/planning/summary?year=2026", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Rows []matrix.SummaryRow `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Rows, 1)
	assert.Equal(t, "PAY-1", payload.Rows[0].Code)
	assert.Equal(t, plan.VarianceSlack, payload.Rows[0].Variance)
}
