package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
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
		CREATE TABLE IF NOT EXISTS customers (
			id                   TEXT PRIMARY KEY,
			merchant_id          TEXT NOT NULL,
			name                 TEXT NOT NULL,
			email                TEXT NOT NULL,
			payment_method_token TEXT NOT NULL,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_customers_merchant ON customers(merchant_id)`)
	return err
}

func (r *PostgresRepository) Create(ctx context.Context, customer Customer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, merchant_id, name, email, payment_method_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		customer.ID, customer.MerchantID, customer.Name, customer.Email,
		customer.PaymentMethodToken, customer.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Customer, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, merchant_id, name, email, payment_method_token, created_at
		FROM customers WHERE id = $1`, id)

	var c Customer
	err := row.Scan(&c.ID, &c.MerchantID, &c.Name, &c.Email, &c.PaymentMethodToken, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("select customer: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByMerchant(ctx context.Context, merchantID string) ([]Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, merchant_id, name, email, payment_method_token, created_at
		FROM customers WHERE merchant_id = $1 ORDER BY created_at`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.MerchantID, &c.Name, &c.Email,
			&c.PaymentMethodToken, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Close() error {
	if r.ownsDB {
		return r.db.Close()
	}
	return nil
}
