package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nocdesk/nocdesk/internal/platform/db"
	"github.com/nocdesk/nocdesk/internal/platform/httpx"
)

// ErrNotFound is returned when an alert does not exist.
var ErrNotFound = fmt.Errorf("alert not found: %w", httpx.ErrNotFound)

// Repository persists alerts.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]Alert, error)
	Get(ctx context.Context, id string, forUpdate bool) (*Alert, error)
	Insert(ctx context.Context, alert Alert) error
	SetStatus(ctx context.Context, id, status string, at time.Time) error
	PurgeResolved(ctx context.Context, before time.Time) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const alertColumns = `id::text, device_id, device_name, severity, category, message, status, raised_at, updated_at`

func scanAlert(row pgx.Row) (Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.DeviceID, &a.DeviceName, &a.Severity, &a.Category, &a.Message, &a.Status, &a.RaisedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) List(ctx context.Context) ([]Alert, error) {
	rows, err := r.db.Query(ctx, `SELECT `+alertColumns+` FROM alerts ORDER BY raised_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("alerts: list: %w", err)
	}
	defer rows.Close()

	items := []Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("alerts: scan: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string, forUpdate bool) (*Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id::text = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	a, err := scanAlert(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("alerts: get: %w", err)
	}
	return &a, nil
}

func (r *repository) Insert(ctx context.Context, a Alert) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO alerts (id, device_id, device_name, severity, category, message, status, raised_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.DeviceID, a.DeviceName, a.Severity, a.Category, a.Message, a.Status, a.RaisedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("alerts: insert: %w", err)
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id, status string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE alerts SET status = $2, updated_at = $3 WHERE id::text = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("alerts: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) PurgeResolved(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM alerts WHERE status = 'resolved' AND updated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("alerts: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
