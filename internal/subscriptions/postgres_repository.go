package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/KestrelPay/router/internal/timeutil"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db     *sql.DB
	ownsDB bool
}

// NewPostgresRepository opens a connection and ensures the table exists.
func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	repo := &PostgresRepository{db: db, ownsDB: true}
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return repo, nil
}

// NewPostgresRepositoryWithDB creates a repository on a shared connection.
func NewPostgresRepositoryWithDB(db *sql.DB) *PostgresRepository {
	repo := &PostgresRepository{db: db}
	_ = repo.createTable()
	return repo
}

func (r *PostgresRepository) createTable() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS subscriptions (
			id              TEXT PRIMARY KEY,
			customer_id     TEXT NOT NULL,
			merchant_id     TEXT NOT NULL,
			amount          DOUBLE PRECISION NOT NULL,
			currency        TEXT NOT NULL,
			next_renewal_at TIMESTAMPTZ NOT NULL,
			status          TEXT NOT NULL DEFAULT 'active',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_renewal
			ON subscriptions(next_renewal_at) WHERE status = 'active'`)
	return err
}

func (r *PostgresRepository) Save(ctx context.Context, sub Subscription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, customer_id, merchant_id, amount, currency, next_renewal_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			next_renewal_at = EXCLUDED.next_renewal_at,
			status = EXCLUDED.status,
			updated_at = NOW()`,
		sub.ID, sub.CustomerID, sub.MerchantID, sub.Amount, sub.Currency,
		timeutil.NormalizeUTC(sub.NextRenewalAt), sub.Status, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Subscription, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, merchant_id, amount, currency, next_renewal_at, status, created_at, updated_at
		FROM subscriptions WHERE id = $1`, id)

	var s Subscription
	err := row.Scan(&s.ID, &s.CustomerID, &s.MerchantID, &s.Amount, &s.Currency,
		&s.NextRenewalAt, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	if err != nil {
		return Subscription{}, fmt.Errorf("select subscription: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) UpcomingRenewals(ctx context.Context, from, to time.Time) ([]Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, merchant_id, amount, currency, next_renewal_at, status, created_at, updated_at
		FROM subscriptions
		WHERE status = 'active' AND next_renewal_at >= $1 AND next_renewal_at <= $2
		ORDER BY next_renewal_at`,
		timeutil.NormalizeUTC(from), timeutil.NormalizeUTC(to))
	if err != nil {
		return nil, fmt.Errorf("list upcoming renewals: %w", err)
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.MerchantID, &s.Amount, &s.Currency,
			&s.NextRenewalAt, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Close() error {
	if r.ownsDB {
		return r.db.Close()
	}
	return nil
}
