package merchants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for unique constraints.
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
		CREATE TABLE IF NOT EXISTS merchants (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL,
			mcc        TEXT NOT NULL,
			country    TEXT NOT NULL,
			currency   TEXT NOT NULL,
			tax_id     TEXT UNIQUE,
			status     TEXT NOT NULL DEFAULT 'active',
			api_key    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

func (r *PostgresRepository) Create(ctx context.Context, merchant Merchant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO merchants (id, name, email, mcc, country, currency, tax_id, status, api_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)`,
		merchant.ID, merchant.Name, merchant.Email, merchant.MCC, merchant.Country,
		merchant.Currency, merchant.TaxID, merchant.Status, merchant.APIKey, merchant.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateTaxID
		}
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Merchant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, mcc, country, currency, COALESCE(tax_id, ''), status, api_key, created_at
		FROM merchants WHERE id = $1`, id)

	var m Merchant
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.MCC, &m.Country,
		&m.Currency, &m.TaxID, &m.Status, &m.APIKey, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Merchant{}, ErrNotFound
	}
	if err != nil {
		return Merchant{}, fmt.Errorf("select merchant: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Merchant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, mcc, country, currency, COALESCE(tax_id, ''), status, api_key, created_at
		FROM merchants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}
	defer rows.Close()

	var out []Merchant
	for rows.Next() {
		var m Merchant
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.MCC, &m.Country,
			&m.Currency, &m.TaxID, &m.Status, &m.APIKey, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan merchant: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Close() error {
	if r.ownsDB {
		return r.db.Close()
	}
	return nil
}
