package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pawshaus/pawshaus/internal/platform/db"
)

// PgRepository provides PostgreSQL backed persistence for bookings and
// their modification ledger.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const bookingColumns = `
	id, reference, owner_name, owner_email, dog_name, entire_dog,
	check_in, check_out, total_nights, services,
	base_rate, peak_surcharge, dog_surcharge, service_charges, total_price,
	is_peak_period, peak_period_name,
	deposit_amount, deposit_paid, balance_amount, balance_paid, balance_due_date,
	status, cancellation_reason, cancelled_at, refund_amount,
	created_at, updated_at`

func (r *PgRepository) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (r *PgRepository) ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = $1 AND check_in < $3 AND check_out > $2
		ORDER BY check_in`,
		StatusConfirmed, from, to)
	if err != nil {
		return nil, fmt.Errorf("list confirmed bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PgRepository) ListModifications(ctx context.Context, bookingID int64) ([]Modification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, booking_id, kind,
		       original_check_in, original_check_out, new_check_in, new_check_out,
		       original_price, new_price, price_difference, refund_amount,
		       reason, status, created_at
		FROM booking_modifications
		WHERE booking_id = $1
		ORDER BY created_at`,
		bookingID)
	if err != nil {
		return nil, fmt.Errorf("list modifications: %w", err)
	}
	defer rows.Close()

	var mods []Modification
	for rows.Next() {
		var m Modification
		var newIn, newOut pgtype.Timestamptz
		var newPrice, diff, refund pgtype.Numeric
		var reason pgtype.Text
		err := rows.Scan(&m.ID, &m.BookingID, &m.Kind,
			&m.OriginalCheckIn, &m.OriginalCheckOut, &newIn, &newOut,
			&m.OriginalPrice, &newPrice, &diff, &refund,
			&reason, &m.Status, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan modification: %w", err)
		}
		if newIn.Valid {
			v := newIn.Time
			m.NewCheckIn = &v
		}
		if newOut.Valid {
			v := newOut.Time
			m.NewCheckOut = &v
		}
		if newPrice.Valid {
			v := fromNumeric(newPrice)
			m.NewPrice = &v
		}
		if diff.Valid {
			v := fromNumeric(diff)
			m.PriceDifference = &v
		}
		if refund.Valid {
			v := fromNumeric(refund)
			m.RefundAmount = &v
		}
		if reason.Valid {
			v := reason.String
			m.Reason = &v
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

// WithTx wraps the callback in a repeatable-read transaction; serialization
// failures surface as ErrConflict so callers can retry.
func (r *PgRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepo{tx: tx})
	})
	if db.IsSerializationFailure(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

type pgTxRepo struct {
	tx pgx.Tx
}

// UpdateDatesAndPrices overwrites the booking's dates and every derived
// price field. The updated_at guard turns a lost-update race into an
// explicit ErrConflict instead of silently corrupting price fields.
func (t *pgTxRepo) UpdateDatesAndPrices(ctx context.Context, b *Booking, expectedUpdatedAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE bookings SET
			check_in = $2, check_out = $3, total_nights = $4,
			base_rate = $5, peak_surcharge = $6, dog_surcharge = $7,
			service_charges = $8, total_price = $9,
			is_peak_period = $10, peak_period_name = $11,
			balance_amount = $12,
			updated_at = NOW()
		WHERE id = $1 AND updated_at = $13`,
		b.ID, b.CheckIn, b.CheckOut, b.TotalNights,
		b.BaseRate, b.PeakSurcharge, b.DogSurcharge,
		b.ServiceCharges, b.TotalPrice,
		b.IsPeakPeriod, b.PeakPeriodName,
		b.BalanceAmount,
		expectedUpdatedAt)
	if err != nil {
		return fmt.Errorf("update booking dates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// MarkCancelled moves the booking to its terminal cancelled state and
// records the refund. Same updated_at guard as date changes.
func (t *pgTxRepo) MarkCancelled(ctx context.Context, id int64, reason string, refund decimal.Decimal, at time.Time, expectedUpdatedAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE bookings SET
			status = $2, cancellation_reason = $3, cancelled_at = $4,
			refund_amount = $5, updated_at = NOW()
		WHERE id = $1 AND status <> $2 AND updated_at = $6`,
		id, StatusCancelled, reason, at, refund, expectedUpdatedAt)
	if err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (t *pgTxRepo) InsertModification(ctx context.Context, m *Modification) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO booking_modifications (
			id, booking_id, kind,
			original_check_in, original_check_out, new_check_in, new_check_out,
			original_price, new_price, price_difference, refund_amount,
			reason, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		m.ID, m.BookingID, m.Kind,
		m.OriginalCheckIn, m.OriginalCheckOut, m.NewCheckIn, m.NewCheckOut,
		m.OriginalPrice, m.NewPrice, m.PriceDifference, m.RefundAmount,
		m.Reason, m.Status, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert modification: %w", err)
	}
	return nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var servicesJSON []byte
	var baseRate, peakSur, dogSur, svcCharges, total, deposit, balance pgtype.Numeric
	var peakName, cancelReason pgtype.Text
	var cancelledAt pgtype.Timestamptz
	var refund pgtype.Numeric

	err := row.Scan(
		&b.ID, &b.Reference, &b.OwnerName, &b.OwnerEmail, &b.DogName, &b.EntireDog,
		&b.CheckIn, &b.CheckOut, &b.TotalNights, &servicesJSON,
		&baseRate, &peakSur, &dogSur, &svcCharges, &total,
		&b.IsPeakPeriod, &peakName,
		&deposit, &b.DepositPaid, &balance, &b.BalancePaid, &b.BalanceDueDate,
		&b.Status, &cancelReason, &cancelledAt, &refund,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(servicesJSON) > 0 {
		if err := json.Unmarshal(servicesJSON, &b.Services); err != nil {
			return nil, fmt.Errorf("decode services: %w", err)
		}
	}
	b.BaseRate = fromNumeric(baseRate)
	b.PeakSurcharge = fromNumeric(peakSur)
	b.DogSurcharge = fromNumeric(dogSur)
	b.ServiceCharges = fromNumeric(svcCharges)
	b.TotalPrice = fromNumeric(total)
	b.DepositAmount = fromNumeric(deposit)
	b.BalanceAmount = fromNumeric(balance)
	if peakName.Valid {
		b.PeakPeriodName = peakName.String
	}
	if cancelReason.Valid {
		v := cancelReason.String
		b.CancellationReason = &v
	}
	if cancelledAt.Valid {
		v := cancelledAt.Time
		b.CancelledAt = &v
	}
	if refund.Valid {
		v := fromNumeric(refund)
		b.RefundAmount = &v
	}
	return &b, nil
}

// fromNumeric converts a pgtype.Numeric to an exact decimal.
func fromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

var _ Repository = (*PgRepository)(nil)
