package precalc

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
		CREATE TABLE IF NOT EXISTS precalculated_routes (
			subscription_id  TEXT PRIMARY KEY,
			provider         TEXT NOT NULL,
			routing_decision TEXT NOT NULL,
			expires_at       TIMESTAMPTZ NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

func (r *PostgresRepository) Save(ctx context.Context, route Route) error {
	if route.CreatedAt.IsZero() {
		route.CreatedAt = timeutil.NowUTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO precalculated_routes (subscription_id, provider, routing_decision, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subscription_id) DO UPDATE SET
			provider = EXCLUDED.provider,
			routing_decision = EXCLUDED.routing_decision,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at`,
		route.SubscriptionID, route.Provider, route.RoutingDecision,
		timeutil.NormalizeUTC(route.ExpiresAt), route.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert precalculated route: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindValid(ctx context.Context, subscriptionID string, now time.Time) (Route, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT subscription_id, provider, routing_decision, expires_at, created_at
		FROM precalculated_routes
		WHERE subscription_id = $1 AND expires_at > $2`,
		subscriptionID, timeutil.NormalizeUTC(now))

	var route Route
	err := row.Scan(&route.SubscriptionID, &route.Provider, &route.RoutingDecision,
		&route.ExpiresAt, &route.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Route{}, false, nil
	}
	if err != nil {
		return Route{}, false, fmt.Errorf("select precalculated route: %w", err)
	}
	return route, true, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM precalculated_routes WHERE expires_at <= $1`,
		timeutil.NormalizeUTC(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired routes: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

func (r *PostgresRepository) Close() error {
	if r.ownsDB {
		return r.db.Close()
	}
	return nil
}
