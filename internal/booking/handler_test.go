package booking

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(repo *mockRepo) *Handler {
	s := newService(repo, &flatQuoter{rate: decimal.NewFromInt(50)}, nil)
	h := NewHandler(slog.Default(), s)
	h.now = func() time.Time { return date(2026, 9, 1) }
	return h
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetBooking(t *testing.T) {
	b := confirmedBooking()
	router := newTestRouter(newTestHandler(newMockRepo(b)))

	rec := doJSON(t, router, http.MethodGet, "/bookings/42", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "Biscuit", got.DogName)
}

func TestGetBookingNotFound(t *testing.T) {
	router := newTestRouter(newTestHandler(newMockRepo()))

	rec := doJSON(t, router, http.MethodGet, "/bookings/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModifyBookingPreview(t *testing.T) {
	b := confirmedBooking()
	repo := newMockRepo(b)
	router := newTestRouter(newTestHandler(repo))

	rec := doJSON(t, router, http.MethodPost, "/bookings/42/modification",
		`{"newCheckIn":"2026-10-05","newCheckOut":"2026-10-17","action":"preview"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res ModificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Eligibility.Allowed)
	require.NotNil(t, res.Recalculation)
	assert.Equal(t, "600", res.Recalculation.NewPrice.String())
	assert.Empty(t, repo.mods, "preview must not write")
}

func TestModifyBookingConfirm(t *testing.T) {
	b := confirmedBooking()
	repo := newMockRepo(b)
	router := newTestRouter(newTestHandler(repo))

	rec := doJSON(t, router, http.MethodPost, "/bookings/42/modification",
		`{"newCheckIn":"2026-10-05","newCheckOut":"2026-10-17","action":"confirm"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res ModificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Modification)
	assert.Len(t, repo.mods, 1)
	assert.Equal(t, "600", repo.bookings[42].TotalPrice.String())
}

func TestModifyBookingDeniedReturnsStructuredResult(t *testing.T) {
	b := confirmedBooking()
	b.CheckIn = date(2026, 9, 5) // 4 days out from the fixed clock
	b.CheckOut = date(2026, 9, 15)
	router := newTestRouter(newTestHandler(newMockRepo(b)))

	rec := doJSON(t, router, http.MethodPost, "/bookings/42/modification",
		`{"newCheckIn":"2026-10-05","newCheckOut":"2026-10-17","action":"confirm"}`)
	require.Equal(t, http.StatusOK, rec.Code, "policy denial is a result, not an error")

	var res ModificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Eligibility.Allowed)
	assert.Contains(t, res.Eligibility.Reason, "7 days")
}

func TestModifyBookingRejectsBadAction(t *testing.T) {
	router := newTestRouter(newTestHandler(newMockRepo(confirmedBooking())))

	rec := doJSON(t, router, http.MethodPost, "/bookings/42/modification",
		`{"newCheckIn":"2026-10-05","newCheckOut":"2026-10-17","action":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModifyBookingRejectsInvalidRange(t *testing.T) {
	router := newTestRouter(newTestHandler(newMockRepo(confirmedBooking())))

	rec := doJSON(t, router, http.MethodPost, "/bookings/42/modification",
		`{"newCheckIn":"2026-10-17","newCheckOut":"2026-10-05","action":"preview"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBookingPreviewAndConfirm(t *testing.T) {
	b := confirmedBooking() // check-in Oct 1; fixed clock Sep 1 = 30 days out
	repo := newMockRepo(b)
	router := newTestRouter(newTestHandler(repo))

	rec := doJSON(t, router, http.MethodPost, "/bookings/42/cancellation",
		`{"reason":"schedule change","confirmed":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var preview ModificationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	require.NotNil(t, preview.Refund)
	assert.Equal(t, "30+ days", preview.Refund.Bracket)
	assert.Equal(t, "500", preview.Refund.RefundAmount.String())
	assert.Equal(t, StatusConfirmed, repo.bookings[42].Status)

	rec = doJSON(t, router, http.MethodPost, "/bookings/42/cancellation",
		`{"reason":"schedule change","confirmed":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusCancelled, repo.bookings[42].Status)
	assert.Len(t, repo.mods, 1)
}

func TestListModifications(t *testing.T) {
	b := confirmedBooking()
	repo := newMockRepo(b)
	router := newTestRouter(newTestHandler(repo))

	// Empty history renders as an empty array.
	rec := doJSON(t, router, http.MethodGet, "/bookings/42/modifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"modifications":[]}`, rec.Body.String())

	doJSON(t, router, http.MethodPost, "/bookings/42/modification",
		`{"newCheckIn":"2026-10-05","newCheckOut":"2026-10-17","action":"confirm"}`)

	rec = doJSON(t, router, http.MethodGet, "/bookings/42/modifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Modifications []Modification `json:"modifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Modifications, 1)
	assert.Equal(t, ModificationDateChange, out.Modifications[0].Kind)
}
