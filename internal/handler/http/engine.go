package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/discount"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/service"
	"github.com/webstepper/smart-cycle-discounts-sub018/pkg/httputil"
	"github.com/webstepper/smart-cycle-discounts-sub018/pkg/validator"
)

// EngineHandler handles HTTP requests for the evaluation endpoints: discount
// calculation, condition filtering, selection resolution, conflict detection,
// and analytics.
type EngineHandler struct {
	service *service.EngineService
	logger  *slog.Logger
}

// NewEngineHandler creates a new engine HTTP handler.
func NewEngineHandler(svc *service.EngineService, logger *slog.Logger) *EngineHandler {
	return &EngineHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CalculateDiscountRequest is the JSON request body for a discount calculation.
type CalculateDiscountRequest struct {
	Price     decimal.Decimal       `json:"price"`
	Quantity  int                   `json:"quantity" validate:"omitempty,gte=1"`
	CartTotal decimal.Decimal       `json:"cart_total"`
	Discount  domain.DiscountConfig `json:"discount" validate:"required"`
}

// ValidateConditionRequest is the JSON request body for condition validation.
type ValidateConditionRequest struct {
	Condition map[string]any `json:"condition" validate:"required"`
}

// ApplyConditionsRequest is the JSON request body for condition filtering.
type ApplyConditionsRequest struct {
	ProductIDs []string         `json:"product_ids"`
	Conditions []map[string]any `json:"conditions" validate:"required,min=1"`
	Logic      string           `json:"logic" validate:"omitempty,oneof=all any"`
}

// ResolveSelectionRequest is the JSON request body for selection resolution.
type ResolveSelectionRequest struct {
	Selection domain.ProductSelection `json:"selection" validate:"required"`
}

// PreviewCoverageRequest is the JSON request body for a draft coverage preview.
// The draft does not need to be persisted.
type PreviewCoverageRequest struct {
	ID        string                  `json:"id" validate:"omitempty,uuid"`
	Name      string                  `json:"name"`
	Priority  int                     `json:"priority" validate:"required,gte=1,lte=5"`
	Selection domain.ProductSelection `json:"selection" validate:"required"`
}

// --- Handlers ---

// CalculateDiscount handles POST /api/v1/discounts/calculate
func (h *EngineHandler) CalculateDiscount(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req CalculateDiscountRequest
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

	dctx := discount.Context{
		Quantity:  req.Quantity,
		CartTotal: req.CartTotal,
	}
	if dctx.Quantity == 0 {
		dctx.Quantity = 1
	}

	result, err := h.service.CalculateDiscount(req.Price, req.Discount, dctx)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// ValidateCondition handles POST /api/v1/conditions/validate
func (h *EngineHandler) ValidateCondition(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req ValidateConditionRequest
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

	if err := h.service.ValidateCondition(req.Condition); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]bool{"valid": true}})
}

// ApplyConditions handles POST /api/v1/conditions/apply
func (h *EngineHandler) ApplyConditions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req ApplyConditionsRequest
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

	ids, err := h.service.ApplyConditions(r.Context(), req.ProductIDs, req.Conditions, req.Logic)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"product_ids": ids}})
}

// ResolveSelection handles POST /api/v1/selections/resolve
func (h *EngineHandler) ResolveSelection(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req ResolveSelectionRequest
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

	ids, err := h.service.ResolveProducts(r.Context(), req.Selection)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"product_ids": ids}})
}

// FindConflicts handles GET /api/v1/campaigns/{id}/conflicts
func (h *EngineHandler) FindConflicts(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	conflicts, err := h.service.FindConflicts(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: conflicts})
}

// PreviewCoverage handles POST /api/v1/campaigns/preview
func (h *EngineHandler) PreviewCoverage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req PreviewCoverageRequest
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

	draft := domain.Campaign{
		ID:        req.ID,
		Name:      req.Name,
		Priority:  req.Priority,
		Selection: req.Selection,
	}

	report, err := h.service.PreviewCoverage(r.Context(), draft)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}

// BestDiscount handles GET /api/v1/products/{id}/discount
func (h *EngineHandler) BestDiscount(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "product id is required"},
		})
		return
	}

	dctx := discount.Context{Quantity: 1}
	if v := r.URL.Query().Get("quantity"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil || q < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "quantity must be a positive integer"},
			})
			return
		}
		dctx.Quantity = q
	}
	if v := r.URL.Query().Get("cart_total"); v != "" {
		total, err := decimal.NewFromString(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "cart_total must be a decimal number"},
			})
			return
		}
		dctx.CartTotal = total
	}

	best, err := h.service.BestDiscountForProduct(r.Context(), productID, dctx)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// No campaign targets the product; an empty result is not an error.
	if best == nil {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
			"product_id": productID,
			"discounted": false,
		}})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: best})
}

// CampaignPerformance handles GET /api/v1/campaigns/{id}/performance
func (h *EngineHandler) CampaignPerformance(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "from must be in RFC3339 format"},
			})
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "to must be in RFC3339 format"},
			})
			return
		}
		to = t
	}

	perf, err := h.service.CampaignPerformance(r.Context(), id.String(), from, to)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: perf})
}
