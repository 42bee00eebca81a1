// Package http exposes worklog entry routes.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-plan/atlas-plan/internal/platform/httpx"
	"github.com/atlas-plan/atlas-plan/internal/worklog"
)

// Handler serves worklog entry creation, listing and draft parsing.
type Handler struct {
	logger   *slog.Logger
	service  *worklog.Service
	validate *validator.Validate
}

// NewHandler constructs the worklog HTTP handler.
func NewHandler(logger *slog.Logger, service *worklog.Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers the worklog routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Post("/parse", h.handleParse)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input worklog.CreateEntryInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	entry, err := h.service.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, worklog.ErrDuplicateEntry) {
			httpx.Problem(w, http.StatusConflict, "Conflict", "an entry already exists for this user, project and day")
			return
		}
		h.logError("create entry", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := worklog.ListFilter{UserID: q.Get("user_id")}
	filter.Year, _ = strconv.Atoi(q.Get("year"))
	filter.Month, _ = strconv.Atoi(q.Get("month"))
	if err := h.validate.Struct(filter); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	entries, pagination, err := h.service.List(r.Context(), filter, page, perPage)
	if err != nil {
		h.logError("list entries", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"entries":    entries,
		"pagination": pagination,
	})
}

func (h *Handler) handleParse(w http.ResponseWriter, r *http.Request) {
	var input worklog.ParseInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	resp, err := h.service.Parse(r.Context(), input)
	if err != nil {
		var parserErr *worklog.ParserError
		if errors.As(err, &parserErr) {
			// Surface what the parser actually said.
			httpx.Problem(w, http.StatusBadGateway, "Parser error", parserErr.Body)
			return
		}
		h.logError("parse draft", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) logError(op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
}
