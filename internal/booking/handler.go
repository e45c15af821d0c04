package booking

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pawshaus/pawshaus/internal/platform/httpx"
	"github.com/pawshaus/pawshaus/internal/pricing"
)

func isPricingInputError(err error) bool {
	return errors.Is(err, pricing.ErrInvalidDateRange) || errors.Is(err, pricing.ErrInvalidStayLength)
}

const dateLayout = "2006-01-02"

const (
	actionPreview = "preview"
	actionConfirm = "confirm"
)

// Handler manages booking modification and cancellation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	now      func() time.Time
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		now:      time.Now,
	}
}

// MountRoutes registers booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/bookings/{id}", h.getBooking)
	r.Get("/bookings/{id}/modifications", h.listModifications)
	r.Post("/bookings/{id}/modification", h.modifyBooking)
	r.Post("/bookings/{id}/cancellation", h.cancelBooking)
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) listModifications(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}
	mods, err := h.service.ListModifications(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if mods == nil {
		mods = []Modification{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"modifications": mods})
}

type modifyRequest struct {
	NewCheckIn  string `json:"newCheckIn" validate:"required"`
	NewCheckOut string `json:"newCheckOut" validate:"required"`
	Action      string `json:"action" validate:"required,oneof=preview confirm"`
}

func (h *Handler) modifyBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}
	var req modifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	newIn, err := time.Parse(dateLayout, req.NewCheckIn)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "newCheckIn must be YYYY-MM-DD")
		return
	}
	newOut, err := time.Parse(dateLayout, req.NewCheckOut)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "newCheckOut must be YYYY-MM-DD")
		return
	}

	var res *ModificationResult
	if req.Action == actionConfirm {
		res, err = h.service.ApplyModification(r.Context(), id, newIn, newOut, h.now())
	} else {
		res, err = h.service.PreviewModification(r.Context(), id, newIn, newOut, h.now())
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

type cancelRequest struct {
	Reason    string `json:"reason" validate:"required,max=500"`
	Confirmed bool   `json:"confirmed"`
}

func (h *Handler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var res *ModificationResult
	var err error
	if req.Confirmed {
		res, err = h.service.ApplyCancellation(r.Context(), id, req.Reason, h.now())
	} else {
		res, err = h.service.PreviewCancellation(r.Context(), id, h.now())
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) bookingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "booking id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "booking not found")
	case errors.Is(err, ErrConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", "booking was changed concurrently, retry")
	case isPricingInputError(err):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Stay", err.Error())
	default:
		h.logger.Error("booking request failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
