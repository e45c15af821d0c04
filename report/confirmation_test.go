package report

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawshaus/pawshaus/internal/booking"
)

type stubBookings struct {
	b *booking.Booking
}

func (s *stubBookings) GetBooking(ctx context.Context, id int64) (*booking.Booking, error) {
	if s.b == nil || s.b.ID != id {
		return nil, booking.ErrNotFound
	}
	return s.b, nil
}

func sampleBooking() *booking.Booking {
	return &booking.Booking{
		ID:             42,
		Reference:      uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		OwnerName:      "Jesse Okafor",
		DogName:        "Biscuit",
		CheckIn:        time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:       time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC),
		TotalNights:    10,
		BaseRate:       decimal.NewFromInt(50),
		ServiceCharges: decimal.RequireFromString("45.00"),
		TotalPrice:     decimal.RequireFromString("545.00"),
		DepositAmount:  decimal.NewFromInt(150),
		DepositPaid:    true,
		BalanceAmount:  decimal.RequireFromString("395.00"),
		BalanceDueDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Status:         booking.StatusConfirmed,
	}
}

func TestConfirmationHTML(t *testing.T) {
	html, err := ConfirmationHTML(sampleBooking())
	require.NoError(t, err)

	assert.Contains(t, html, "Biscuit (Jesse Okafor)")
	assert.Contains(t, html, "10 nights")
	assert.Contains(t, html, "$500.00")
	assert.Contains(t, html, "$545.00")
	assert.Contains(t, html, "$45.00")
	// Zero surcharges render no rows.
	assert.NotContains(t, html, "Peak surcharge")
	assert.NotContains(t, html, "Entire dog surcharge")
}

func TestConfirmationEndpoint(t *testing.T) {
	gotenberg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 fake"))
	}))
	defer gotenberg.Close()

	h := NewHandler(NewClient(gotenberg.URL), &stubBookings{b: sampleBooking()}, slog.Default())
	r := chi.NewRouter()
	h.MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/42/confirmation.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/7/confirmation.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
