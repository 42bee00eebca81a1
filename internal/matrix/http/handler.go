// Package http exposes the planning matrix over chi routes.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-plan/atlas-plan/internal/matrix"
	"github.com/atlas-plan/atlas-plan/internal/platform/httpx"
)

// Handler serves the matrix, summary and selector-tree views.
type Handler struct {
	logger   *slog.Logger
	service  *matrix.Service
	validate *validator.Validate
}

// NewHandler constructs the planning HTTP handler.
func NewHandler(logger *slog.Logger, service *matrix.Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers the planning routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/matrix", h.handleMatrix)
	r.Get("/matrix/export.csv", h.handleMatrixCSV)
	r.Get("/summary", h.handleSummary)
	r.Get("/tree", h.handleTree)
}

func (h *Handler) parseMatrixRequest(r *http.Request) (matrix.MatrixRequest, error) {
	q := r.URL.Query()
	req := matrix.MatrixRequest{
		Dimension: matrix.Dimension(q.Get("dimension")),
		Search:    strings.TrimSpace(q.Get("q")),
	}
	if req.Dimension == "" {
		req.Dimension = matrix.DimensionOrg
	}
	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("year must be numeric")
		}
		req.Year = year
	}
	if err := h.validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

func (h *Handler) handleMatrix(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseMatrixRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	vm, err := h.loadMatrix(r, req)
	if err != nil {
		h.logError("load matrix", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

// loadMatrix collapses concurrent identical unfiltered requests; filtered
// requests are cheap enough to compute per caller.
func (h *Handler) loadMatrix(r *http.Request, req matrix.MatrixRequest) (*matrix.MatrixVM, error) {
	if req.Search != "" {
		return h.service.Matrix(r.Context(), req)
	}
	key := fmt.Sprintf("matrix:%s:%d", req.Dimension, req.Year)
	value, err, _ := singleflightBuild(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.Matrix(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	vm, ok := value.(*matrix.MatrixVM)
	if !ok {
		return nil, fmt.Errorf("matrix: unexpected build result %T", value)
	}
	return vm, nil
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := matrix.SummaryRequest{Search: strings.TrimSpace(q.Get("q"))}
	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid request", "year must be numeric")
			return
		}
		req.Year = year
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	rows, err := h.service.Summary(r.Context(), req)
	if err != nil {
		h.logError("load summary", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"rows": rows})
}

func (h *Handler) handleTree(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := matrix.TreeRequest{
		Dimension: matrix.Dimension(q.Get("dimension")),
		Search:    strings.TrimSpace(q.Get("q")),
	}
	if req.Dimension == "" {
		req.Dimension = matrix.DimensionOrg
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	nodes, err := h.service.SelectorTree(r.Context(), req)
	if err != nil {
		h.logError("load tree", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"tree": nodes})
}

func (h *Handler) logError(op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
}
