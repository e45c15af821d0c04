package report

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pawshaus/pawshaus/internal/booking"
	"github.com/pawshaus/pawshaus/internal/money"
)

// BookingGetter loads one booking for rendering.
type BookingGetter interface {
	GetBooking(ctx context.Context, id int64) (*booking.Booking, error)
}

// Handler renders booking confirmation PDFs.
type Handler struct {
	client   *Client
	bookings BookingGetter
	logger   *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, bookings BookingGetter, logger *slog.Logger) *Handler {
	return &Handler{client: client, bookings: bookings, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/bookings/{id}/confirmation.pdf", h.confirmation)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) confirmation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "booking id must be an integer", http.StatusBadRequest)
		return
	}
	b, err := h.bookings.GetBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("load booking for confirmation", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	html, err := ConfirmationHTML(b)
	if err != nil {
		h.logger.Error("build confirmation html", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	pdf, err := h.client.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render confirmation pdf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=booking-%d.pdf", b.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Booking Confirmation</title>
<style>
body { font-family: sans-serif; margin: 40px; color: #222; }
h1 { font-size: 20px; }
table { border-collapse: collapse; width: 100%; margin-top: 16px; }
td { padding: 6px 8px; border-bottom: 1px solid #ddd; }
td.amount { text-align: right; }
tr.total td { font-weight: bold; border-top: 2px solid #222; }
</style></head><body>
<h1>Boarding Confirmation &mdash; {{.Reference}}</h1>
<p>{{.DogName}} ({{.OwnerName}}), {{.Nights}} nights from {{.CheckIn}} to {{.CheckOut}}.</p>
<table>
<tr><td>Base ({{.Nights}} nights at {{.BaseRate}})</td><td class="amount">{{.BaseCost}}</td></tr>
{{if .PeakSurcharge}}<tr><td>Peak surcharge{{with .PeakName}} ({{.}}){{end}}</td><td class="amount">{{.PeakSurcharge}}</td></tr>{{end}}
{{if .DogSurcharge}}<tr><td>Entire dog surcharge</td><td class="amount">{{.DogSurcharge}}</td></tr>{{end}}
{{if .ServiceCharges}}<tr><td>Additional services</td><td class="amount">{{.ServiceCharges}}</td></tr>{{end}}
<tr class="total"><td>Total</td><td class="amount">{{.Total}}</td></tr>
<tr><td>Deposit{{if .DepositPaid}} (paid){{end}}</td><td class="amount">{{.Deposit}}</td></tr>
<tr><td>Balance due {{.BalanceDue}}</td><td class="amount">{{.Balance}}</td></tr>
</table>
</body></html>`))

// ConfirmationHTML builds the printable confirmation for a booking.
func ConfirmationHTML(b *booking.Booking) (string, error) {
	baseCost := b.BaseRate.Mul(decimal.NewFromInt(int64(b.TotalNights)))
	data := map[string]any{
		"Reference":      b.Reference.String(),
		"DogName":        b.DogName,
		"OwnerName":      b.OwnerName,
		"Nights":         b.TotalNights,
		"CheckIn":        b.CheckIn.Format("2 Jan 2006"),
		"CheckOut":       b.CheckOut.Format("2 Jan 2006"),
		"BaseRate":       money.Format(b.BaseRate),
		"BaseCost":       money.Format(baseCost),
		"PeakSurcharge":  formatNonZero(b.PeakSurcharge),
		"PeakName":       b.PeakPeriodName,
		"DogSurcharge":   formatNonZero(b.DogSurcharge),
		"ServiceCharges": formatNonZero(b.ServiceCharges),
		"Total":          money.Format(b.TotalPrice),
		"Deposit":        money.Format(b.DepositAmount),
		"DepositPaid":    b.DepositPaid,
		"Balance":        money.Format(b.BalanceAmount),
		"BalanceDue":     b.BalanceDueDate.Format("2 Jan 2006"),
	}
	var sb strings.Builder
	if err := confirmationTmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// formatNonZero renders zero amounts as "" so the template drops their rows.
func formatNonZero(amount decimal.Decimal) string {
	if amount.IsZero() {
		return ""
	}
	return money.Format(amount)
}
