package pricing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/pawshaus/pawshaus/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Handler manages the public quote endpoint and the reference-data admin
// endpoints.
type Handler struct {
	logger   *slog.Logger
	engine   *Engine
	repo     *Repository
	cache    *SnapshotCache
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, engine *Engine, repo *Repository, cache *SnapshotCache) *Handler {
	return &Handler{
		logger:   logger,
		engine:   engine,
		repo:     repo,
		cache:    cache,
		validate: validator.New(),
	}
}

// MountPublicRoutes registers the quote endpoint.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/quotes", h.computeQuote)
}

// MountAdminRoutes registers reference-data administration endpoints.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/tiers", h.listTiers)
	r.Post("/tiers", h.createTier)
	r.Delete("/tiers/{id}", h.deleteTier)

	r.Get("/peak-periods", h.listPeakPeriods)
	r.Post("/peak-periods", h.createPeakPeriod)
	r.Delete("/peak-periods/{id}", h.deletePeakPeriod)

	r.Get("/services", h.listServices)
	r.Post("/services", h.createService)
	r.Put("/services/{id}", h.updateService)
}

// ============================================================================
// QUOTES
// ============================================================================

type serviceSelectionDTO struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

type quoteRequest struct {
	CheckInDate      string                `json:"checkInDate" validate:"required"`
	CheckOutDate     string                `json:"checkOutDate" validate:"required"`
	IsEntireDog      bool                  `json:"isEntireDog"`
	SelectedServices []serviceSelectionDTO `json:"selectedServices" validate:"dive"`
	NumberOfMeals    int                   `json:"numberOfMeals" validate:"gte=0"`
	NumberOfWalks    int                   `json:"numberOfWalks" validate:"gte=0"`
}

type quoteResponse struct {
	Success    bool            `json:"success"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Breakdown  *PriceBreakdown `json:"breakdown"`
	Warnings   []string        `json:"warnings"`
}

// StayRequestFromQuote converts the wire-level quote payload into an engine
// input; the meal/walk counters become selections of the reserved codes.
func StayRequestFromQuote(checkIn, checkOut time.Time, entireDog bool, services []ServiceSelection, meals, walks int) StayRequest {
	if meals > 0 {
		services = append(services, ServiceSelection{Code: ServiceCodeMeal, Quantity: meals})
	}
	if walks > 0 {
		services = append(services, ServiceSelection{Code: ServiceCodeWalk, Quantity: walks})
	}
	return StayRequest{CheckIn: checkIn, CheckOut: checkOut, EntireDog: entireDog, Services: services}
}

func (h *Handler) computeQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	checkIn, err := time.Parse(dateLayout, req.CheckInDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "checkInDate must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOutDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "checkOutDate must be YYYY-MM-DD")
		return
	}

	selections := make([]ServiceSelection, 0, len(req.SelectedServices))
	for _, s := range req.SelectedServices {
		selections = append(selections, ServiceSelection{Code: s.ID, Quantity: s.Quantity})
	}
	stay := StayRequestFromQuote(checkIn, checkOut, req.IsEntireDog, selections, req.NumberOfMeals, req.NumberOfWalks)

	breakdown, err := h.engine.ComputeQuote(r.Context(), stay)
	if err != nil {
		h.respondQuoteError(w, err)
		return
	}

	warnings := breakdown.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	httpx.JSON(w, http.StatusOK, quoteResponse{
		Success:    true,
		TotalPrice: breakdown.TotalPrice,
		Breakdown:  breakdown,
		Warnings:   warnings,
	})
}

func (h *Handler) respondQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidDateRange), errors.Is(err, ErrInvalidStayLength):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Stay", err.Error())
	case errors.Is(err, ErrTierConflict):
		h.logger.Error("pricing reference data is contradictory", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Configuration Error", "pricing configuration is inconsistent")
	default:
		h.logger.Error("compute quote failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// ============================================================================
// REFERENCE DATA ADMIN
// ============================================================================

type createTierRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	MinDays     int     `json:"min_days" validate:"required,gt=0"`
	MaxDays     *int    `json:"max_days,omitempty" validate:"omitempty,gt=0"`
	DailyRate   string  `json:"daily_rate" validate:"required"`
	Description *string `json:"description,omitempty"`
}

func (h *Handler) listTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.repo.ListTiers(r.Context())
	if err != nil {
		h.logger.Error("list tiers failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tiers": tiers})
}

func (h *Handler) createTier(w http.ResponseWriter, r *http.Request) {
	var req createTierRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rate, err := decimal.NewFromString(req.DailyRate)
	if err != nil || rate.IsNegative() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "daily_rate must be a non-negative decimal")
		return
	}
	if req.MaxDays != nil && *req.MaxDays < req.MinDays {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "max_days must be >= min_days")
		return
	}

	tier := PricingTier{
		Name:        req.Name,
		MinDays:     req.MinDays,
		MaxDays:     req.MaxDays,
		DailyRate:   rate,
		Description: req.Description,
	}
	id, err := h.repo.CreateTier(r.Context(), tier)
	if err != nil {
		h.logger.Error("create tier failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	tier.ID = id
	h.invalidateSnapshot(r)
	httpx.JSON(w, http.StatusCreated, tier)
}

func (h *Handler) deleteTier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "tier id must be an integer")
		return
	}
	if err := h.repo.DeleteTier(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "tier not found")
			return
		}
		h.logger.Error("delete tier failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	h.invalidateSnapshot(r)
	w.WriteHeader(http.StatusNoContent)
}

type createPeakPeriodRequest struct {
	Name             string `json:"name" validate:"required,max=100"`
	StartDate        string `json:"startDate" validate:"required"`
	EndDate          string `json:"endDate" validate:"required"`
	SurchargePercent string `json:"surchargePercent" validate:"required"`
	MinDays          *int   `json:"minDays,omitempty" validate:"omitempty,gt=0"`
}

func (h *Handler) listPeakPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.repo.ListPeakPeriods(r.Context())
	if err != nil {
		h.logger.Error("list peak periods failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"peak_periods": periods})
}

func (h *Handler) createPeakPeriod(w http.ResponseWriter, r *http.Request) {
	var req createPeakPeriodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "startDate must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "endDate must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "endDate must not be before startDate")
		return
	}
	pct, err := decimal.NewFromString(req.SurchargePercent)
	if err != nil || pct.IsNegative() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "surchargePercent must be a non-negative decimal")
		return
	}

	period := PeakPeriod{
		Name:             req.Name,
		StartDate:        start,
		EndDate:          end,
		SurchargePercent: pct,
		MinStayDays:      req.MinDays,
	}
	id, err := h.repo.CreatePeakPeriod(r.Context(), period)
	if err != nil {
		h.logger.Error("create peak period failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	period.ID = id
	h.invalidateSnapshot(r)
	httpx.JSON(w, http.StatusCreated, period)
}

func (h *Handler) deletePeakPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "peak period id must be an integer")
		return
	}
	if err := h.repo.DeletePeakPeriod(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "peak period not found")
			return
		}
		h.logger.Error("delete peak period failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	h.invalidateSnapshot(r)
	w.WriteHeader(http.StatusNoContent)
}

type createServiceRequest struct {
	Code      string `json:"code" validate:"required,max=50"`
	Name      string `json:"name" validate:"required,max=100"`
	UnitPrice string `json:"unit_price" validate:"required"`
	Active    bool   `json:"active"`
}

type updateServiceRequest struct {
	UnitPrice string `json:"unit_price" validate:"required"`
	Active    bool   `json:"active"`
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.repo.ListServices(r.Context())
	if err != nil {
		h.logger.Error("list services failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"services": services})
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || price.IsNegative() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unit_price must be a non-negative decimal")
		return
	}

	svc := BoardingService{Code: req.Code, Name: req.Name, UnitPrice: price, Active: req.Active}
	id, err := h.repo.CreateService(r.Context(), svc)
	if err != nil {
		h.logger.Error("create service failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	svc.ID = id
	h.invalidateSnapshot(r)
	httpx.JSON(w, http.StatusCreated, svc)
}

func (h *Handler) updateService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "service id must be an integer")
		return
	}
	var req updateServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || price.IsNegative() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unit_price must be a non-negative decimal")
		return
	}
	if err := h.repo.UpdateService(r.Context(), id, price, req.Active); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "service not found")
			return
		}
		h.logger.Error("update service failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	h.invalidateSnapshot(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) invalidateSnapshot(r *http.Request) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Warn("snapshot invalidation failed", "error", err)
	}
}
