package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitepulse-io/sitepulse/internal/models"
)

const queryTimeout = 5 * time.Second

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PostgresRepository) CreateApp(ctx context.Context, app *models.App) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO apps (id, name, owner_email, api_key, revoked, expires_at, created_at, federated_subject)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		app.ID, app.Name, app.OwnerEmail, app.APIKey,
		app.Revoked, app.ExpiresAt, app.CreatedAt, app.FederatedSubject,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrKeyConflict
		}
		return fmt.Errorf("failed to create app: %w", err)
	}

	return nil
}

const appColumns = `id, name, owner_email, api_key, revoked, expires_at, created_at, federated_subject`

func scanApp(row pgx.Row) (*models.App, error) {
	var app models.App
	err := row.Scan(
		&app.ID, &app.Name, &app.OwnerEmail, &app.APIKey,
		&app.Revoked, &app.ExpiresAt, &app.CreatedAt, &app.FederatedSubject,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *PostgresRepository) GetAppByID(ctx context.Context, id string) (*models.App, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	app, err := scanApp(r.pool.QueryRow(ctx,
		`SELECT `+appColumns+` FROM apps WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppNotFound
		}
		return nil, fmt.Errorf("failed to get app: %w", err)
	}
	return app, nil
}

func (r *PostgresRepository) GetAppByOwnerEmail(ctx context.Context, email string) (*models.App, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	app, err := scanApp(r.pool.QueryRow(ctx,
		`SELECT `+appColumns+` FROM apps WHERE owner_email = $1 ORDER BY created_at DESC LIMIT 1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppNotFound
		}
		return nil, fmt.Errorf("failed to get app: %w", err)
	}
	return app, nil
}

func (r *PostgresRepository) GetAppByKey(ctx context.Context, apiKey string) (*models.App, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	app, err := scanApp(r.pool.QueryRow(ctx,
		`SELECT `+appColumns+` FROM apps WHERE api_key = $1`, apiKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get app: %w", err)
	}
	return app, nil
}

func (r *PostgresRepository) RevokeKey(ctx context.Context, apiKey string) (*models.App, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	app, err := scanApp(r.pool.QueryRow(ctx,
		`UPDATE apps SET revoked = true WHERE api_key = $1 RETURNING `+appColumns, apiKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to revoke key: %w", err)
	}
	return app, nil
}

func (r *PostgresRepository) ReplaceKey(ctx context.Context, oldKey, newKey string) (*models.App, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	app, err := scanApp(r.pool.QueryRow(ctx,
		`UPDATE apps SET api_key = $2, revoked = false WHERE api_key = $1 RETURNING `+appColumns,
		oldKey, newKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrKeyConflict
		}
		return nil, fmt.Errorf("failed to replace key: %w", err)
	}
	return app, nil
}

func (r *PostgresRepository) InsertEvent(ctx context.Context, event *models.Event) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO events (id, app_id, api_key, name, url, referrer, device, ip_address, user_id, ts, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID, event.AppID, event.APIKey, event.Name,
		event.URL, event.Referrer, event.Device, event.IPAddress,
		event.UserID, event.Timestamp, event.Metadata, event.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

const eventColumns = `id, app_id, api_key, name, url, referrer, device, ip_address, user_id, ts, metadata, created_at`

func scanEvents(rows pgx.Rows) ([]*models.Event, error) {
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var e models.Event
		err := rows.Scan(
			&e.ID, &e.AppID, &e.APIKey, &e.Name,
			&e.URL, &e.Referrer, &e.Device, &e.IPAddress,
			&e.UserID, &e.Timestamp, &e.Metadata, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

func (r *PostgresRepository) QueryEvents(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	var args []any

	if filter.Name != "" {
		args = append(args, filter.Name)
		query += fmt.Sprintf(" AND name = $%d", len(args))
	}
	if filter.AppID != "" {
		args = append(args, filter.AppID)
		query += fmt.Sprintf(" AND app_id = $%d", len(args))
	}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		query += fmt.Sprintf(" AND ts >= $%d", len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		query += fmt.Sprintf(" AND ts <= $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	return scanEvents(rows)
}

func (r *PostgresRepository) RecentEventsByUser(ctx context.Context, userID string, limit int) ([]*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE user_id = $1 ORDER BY ts DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}

	return scanEvents(rows)
}

func (r *PostgresRepository) CountEventsByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
