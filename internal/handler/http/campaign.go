package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/repository"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/service"
	"github.com/webstepper/smart-cycle-discounts-sub018/pkg/httputil"
	"github.com/webstepper/smart-cycle-discounts-sub018/pkg/validator"
)

// CampaignHandler handles HTTP requests for campaign lifecycle endpoints.
type CampaignHandler struct {
	service *service.CampaignService
	logger  *slog.Logger
}

// NewCampaignHandler creates a new campaign HTTP handler.
func NewCampaignHandler(svc *service.CampaignService, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateCampaignRequest is the JSON request body for creating a campaign.
type CreateCampaignRequest struct {
	Name        string                  `json:"name" validate:"required,min=1,max=255"`
	Description string                  `json:"description"`
	Priority    int                     `json:"priority" validate:"required,gte=1,lte=5"`
	Discount    domain.DiscountConfig   `json:"discount" validate:"required"`
	Selection   domain.ProductSelection `json:"selection" validate:"required"`
	StartsAt    string                  `json:"starts_at" validate:"required"`
	EndsAt      string                  `json:"ends_at"`
	Timezone    string                  `json:"timezone"`
}

// UpdateCampaignRequest is the JSON request body for updating a campaign.
type UpdateCampaignRequest struct {
	Name        *string                  `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string                  `json:"description"`
	Priority    *int                     `json:"priority" validate:"omitempty,gte=1,lte=5"`
	Discount    *domain.DiscountConfig   `json:"discount"`
	Selection   *domain.ProductSelection `json:"selection"`
	StartsAt    *string                  `json:"starts_at"`
	EndsAt      *string                  `json:"ends_at"`
	Timezone    *string                  `json:"timezone"`
}

// ChangeStatusRequest is the JSON request body for a status transition.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft scheduled active paused expired"`
}

// --- Handlers ---

// CreateCampaign handles POST /api/v1/campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	startsAt, ok := h.parseTime(w, req.StartsAt, "starts_at")
	if !ok {
		return
	}

	var endsAt time.Time
	if req.EndsAt != "" {
		if endsAt, ok = h.parseTime(w, req.EndsAt, "ends_at"); !ok {
			return
		}
	}

	input := &service.CreateCampaignInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		Discount:    req.Discount,
		Selection:   req.Selection,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Timezone:    req.Timezone,
	}

	campaign, err := h.service.CreateCampaign(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: campaign})
}

// ListCampaigns handles GET /api/v1/campaigns
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	filter := repository.CampaignFilter{
		Page:    1,
		PerPage: 20,
	}

	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if perPage, err := strconv.Atoi(v); err == nil && perPage > 0 && perPage <= 100 {
			filter.PerPage = perPage
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		if !domain.IsValidStatus(v) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid status filter: " + v},
			})
			return
		}
		filter.Status = &v
	}
	if v := r.URL.Query().Get("type"); v != "" {
		if !domain.IsValidDiscountType(v) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid discount type filter: " + v},
			})
			return
		}
		filter.DiscountType = &v
	}

	campaigns, total, err := h.service.ListCampaigns(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(campaigns, total, filter.Page, filter.PerPage))
}

// GetCampaign handles GET /api/v1/campaigns/{id}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	campaign, err := h.service.GetCampaign(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: campaign})
}

// UpdateCampaign handles PUT /api/v1/campaigns/{id}
func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateCampaignInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		Discount:    req.Discount,
		Selection:   req.Selection,
		Timezone:    req.Timezone,
	}

	if req.StartsAt != nil {
		startsAt, ok := h.parseTime(w, *req.StartsAt, "starts_at")
		if !ok {
			return
		}
		input.StartsAt = &startsAt
	}

	if req.EndsAt != nil {
		endsAt, ok := h.parseTime(w, *req.EndsAt, "ends_at")
		if !ok {
			return
		}
		input.EndsAt = &endsAt
	}

	campaign, err := h.service.UpdateCampaign(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: campaign})
}

// ChangeStatus handles POST /api/v1/campaigns/{id}/status
func (h *CampaignHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	campaign, err := h.service.ChangeStatus(r.Context(), id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: campaign})
}

// DeleteCampaign handles DELETE /api/v1/campaigns/{id}
func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteCampaign(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func (h *CampaignHandler) parseTime(w http.ResponseWriter, value, field string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: field + " must be in RFC3339 format"},
		})
		return time.Time{}, false
	}
	return t, true
}
