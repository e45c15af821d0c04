package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates reference data not found.
var ErrNotFound = errors.New("pricing: not found")

// Repository provides PostgreSQL backed persistence for pricing reference
// data. It implements ReferenceStore directly; wrap it in a SnapshotCache
// for serving traffic.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Snapshot loads the full reference-data set in one shot.
func (r *Repository) Snapshot(ctx context.Context) (*Snapshot, error) {
	tiers, err := r.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	periods, err := r.ListPeakPeriods(ctx)
	if err != nil {
		return nil, err
	}
	services, err := r.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Tiers: tiers, PeakPeriods: periods, Services: services}, nil
}

// --- Pricing tiers ---

func (r *Repository) ListTiers(ctx context.Context) ([]PricingTier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, min_days, max_days, daily_rate, description
		FROM pricing_tiers
		ORDER BY min_days`)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	var tiers []PricingTier
	for rows.Next() {
		var t PricingTier
		var maxDays pgtype.Int4
		var rate pgtype.Numeric
		var desc pgtype.Text
		if err := rows.Scan(&t.ID, &t.Name, &t.MinDays, &maxDays, &rate, &desc); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		if maxDays.Valid {
			v := int(maxDays.Int32)
			t.MaxDays = &v
		}
		if desc.Valid {
			v := desc.String
			t.Description = &v
		}
		t.DailyRate = fromNumeric(rate)
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *Repository) CreateTier(ctx context.Context, t PricingTier) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pricing_tiers (name, min_days, max_days, daily_rate, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		t.Name, t.MinDays, t.MaxDays, t.DailyRate, t.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create tier: %w", err)
	}
	return id, nil
}

func (r *Repository) DeleteTier(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pricing_tiers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Peak periods ---

func (r *Repository) ListPeakPeriods(ctx context.Context) ([]PeakPeriod, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, start_date, end_date, surcharge_percent, min_stay_days
		FROM peak_periods
		ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("list peak periods: %w", err)
	}
	defer rows.Close()

	var periods []PeakPeriod
	for rows.Next() {
		var p PeakPeriod
		var pct pgtype.Numeric
		var minStay pgtype.Int4
		if err := rows.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &pct, &minStay); err != nil {
			return nil, fmt.Errorf("scan peak period: %w", err)
		}
		if minStay.Valid {
			v := int(minStay.Int32)
			p.MinStayDays = &v
		}
		p.SurchargePercent = fromNumeric(pct)
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *Repository) CreatePeakPeriod(ctx context.Context, p PeakPeriod) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO peak_periods (name, start_date, end_date, surcharge_percent, min_stay_days)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		p.Name, p.StartDate, p.EndDate, p.SurchargePercent, p.MinStayDays,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create peak period: %w", err)
	}
	return id, nil
}

func (r *Repository) DeletePeakPeriod(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM peak_periods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete peak period: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Boarding services ---

func (r *Repository) ListServices(ctx context.Context) ([]BoardingService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, name, unit_price, active
		FROM boarding_services
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []BoardingService
	for rows.Next() {
		var s BoardingService
		var price pgtype.Numeric
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &price, &s.Active); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		s.UnitPrice = fromNumeric(price)
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *Repository) CreateService(ctx context.Context, s BoardingService) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO boarding_services (code, name, unit_price, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		s.Code, s.Name, s.UnitPrice, s.Active,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create service: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateService(ctx context.Context, id int64, unitPrice decimal.Decimal, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE boarding_services SET unit_price = $2, active = $3 WHERE id = $1`,
		id, unitPrice, active)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// fromNumeric converts a pgtype.Numeric to an exact decimal. NaN and null
// collapse to zero; monetary columns are NOT NULL in the schema.
func fromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
