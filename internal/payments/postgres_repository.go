package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/timeutil"
)

const uniqueViolation = "23505"

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
		CREATE TABLE IF NOT EXISTS payments (
			id                  TEXT PRIMARY KEY,
			merchant_id         TEXT NOT NULL,
			customer_id         TEXT NOT NULL,
			amount              DOUBLE PRECISION NOT NULL,
			currency            TEXT NOT NULL,
			description         TEXT,
			provider            TEXT,
			provider_payment_id TEXT,
			status              TEXT NOT NULL,
			routing_decision    TEXT,
			subscription_id     TEXT,
			created_at          TIMESTAMPTZ NOT NULL,
			updated_at          TIMESTAMPTZ NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_provider_txn
			ON payments(provider, provider_payment_id)
			WHERE provider_payment_id IS NOT NULL AND provider_payment_id <> '';
		CREATE INDEX IF NOT EXISTS idx_payments_merchant ON payments(merchant_id)`)
	return err
}

func (r *PostgresRepository) Save(ctx context.Context, payment Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, merchant_id, customer_id, amount, currency, description,
			provider, provider_payment_id, status, routing_decision, subscription_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			provider = EXCLUDED.provider,
			provider_payment_id = EXCLUDED.provider_payment_id,
			routing_decision = EXCLUDED.routing_decision,
			updated_at = EXCLUDED.updated_at`,
		payment.ID, payment.MerchantID, payment.CustomerID, payment.Amount, payment.Currency,
		payment.Description, payment.Provider, payment.ProviderPaymentID, payment.Status,
		payment.RoutingDecision, payment.SubscriptionID,
		timeutil.NormalizeUTC(payment.CreatedAt), timeutil.NormalizeUTC(payment.UpdatedAt))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("upsert payment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Payment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, merchant_id, customer_id, amount, currency, COALESCE(description, ''),
			COALESCE(provider, ''), COALESCE(provider_payment_id, ''), status,
			COALESCE(routing_decision, ''), COALESCE(subscription_id, ''), created_at, updated_at
		FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (r *PostgresRepository) ListByMerchant(ctx context.Context, merchantID string) ([]Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, merchant_id, customer_id, amount, currency, COALESCE(description, ''),
			COALESCE(provider, ''), COALESCE(provider_payment_id, ''), status,
			COALESCE(routing_decision, ''), COALESCE(subscription_id, ''), created_at, updated_at
		FROM payments WHERE merchant_id = $1 ORDER BY created_at`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (Payment, error) {
	var p Payment
	var provider string
	err := row.Scan(&p.ID, &p.MerchantID, &p.CustomerID, &p.Amount, &p.Currency, &p.Description,
		&provider, &p.ProviderPaymentID, &p.Status, &p.RoutingDecision, &p.SubscriptionID,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, fmt.Errorf("scan payment: %w", err)
	}
	p.Provider = routing.Provider(provider)
	return p, nil
}

func (r *PostgresRepository) Close() error {
	if r.ownsDB {
		return r.db.Close()
	}
	return nil
}
