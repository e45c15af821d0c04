// Package calendar renders confirmed stays as an iCalendar feed so staff can
// subscribe from their own calendar apps.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pawshaus/pawshaus/internal/booking"
	"github.com/pawshaus/pawshaus/internal/platform/httpx"
)

const icalDateLayout = "20060102"

// BookingSource lists the confirmed stays that overlap a window.
type BookingSource interface {
	ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]booking.Booking, error)
}

// Feed serves the boarding calendar.
type Feed struct {
	logger *slog.Logger
	source BookingSource
	now    func() time.Time
}

func NewFeed(logger *slog.Logger, source BookingSource) *Feed {
	return &Feed{logger: logger, source: source, now: time.Now}
}

// MountRoutes registers the feed endpoint.
func (f *Feed) MountRoutes(r chi.Router) {
	r.Get("/calendar.ics", f.serveFeed)
}

// Window covers a month back and a year forward from now.
func (f *Feed) window() (time.Time, time.Time) {
	now := f.now().UTC()
	return now.AddDate(0, -1, 0), now.AddDate(1, 0, 0)
}

func (f *Feed) serveFeed(w http.ResponseWriter, r *http.Request) {
	from, to := f.window()
	stays, err := f.source.ListConfirmedBetween(r.Context(), from, to)
	if err != nil {
		f.logger.Error("calendar feed query failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="boarding.ics"`)
	_, _ = w.Write([]byte(Render(stays, f.now().UTC())))
}

// Render produces the iCalendar document for the given stays. Dates are
// all-day values: DTEND is the check-out day, which iCalendar treats as
// exclusive, matching the night-based stay model.
func Render(stays []booking.Booking, now time.Time) string {
	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:-//Pawshaus//Boarding Calendar//EN")
	writeLine(&b, "CALSCALE:GREGORIAN")

	stamp := now.Format("20060102T150405Z")
	for _, s := range stays {
		writeLine(&b, "BEGIN:VEVENT")
		writeLine(&b, "UID:"+s.Reference.String()+"@pawshaus")
		writeLine(&b, "DTSTAMP:"+stamp)
		writeLine(&b, "DTSTART;VALUE=DATE:"+s.CheckIn.Format(icalDateLayout))
		writeLine(&b, "DTEND;VALUE=DATE:"+s.CheckOut.Format(icalDateLayout))
		writeLine(&b, "SUMMARY:"+escapeText(fmt.Sprintf("Boarding: %s (%s)", s.DogName, s.OwnerName)))
		writeLine(&b, fmt.Sprintf("DESCRIPTION:%d nights\\, booking #%d", s.TotalNights, s.ID))
		writeLine(&b, "END:VEVENT")
	}

	writeLine(&b, "END:VCALENDAR")
	return b.String()
}

// writeLine appends a CRLF-terminated content line, folding at 75 octets per
// RFC 5545 §3.1.
func writeLine(b *strings.Builder, line string) {
	for len(line) > 75 {
		b.WriteString(line[:75])
		b.WriteString("\r\n ")
		line = line[75:]
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func escapeText(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}
