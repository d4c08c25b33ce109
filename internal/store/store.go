package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ki2helper/panel-api/internal/config"
	"github.com/ki2helper/panel-api/internal/models"
)

// Collection names used across the panel
const (
	CollectionAdmins        = "admins"
	CollectionLoginAttempts = "login_attempts"
	CollectionBirthdays     = "birthdays"
	CollectionCron          = "cron"
	CollectionLessons       = "lessons"
	CollectionPlaylists     = "playlists"
	CollectionSchedules     = "schedules"
	CollectionTeachers      = "teachers"
	CollectionTimetable     = "timetable"
	CollectionWeeks         = "weeks"
)

// Store is a document store over PostgreSQL. Documents are kept as JSONB
// rows keyed by (collection, id), exposing the single-document operations
// the rest of the application relies on. The handle is constructed once at
// startup and injected into every component.
type Store struct {
	Pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open creates the connection pool, verifies connectivity and runs pending
// migrations.
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if err := Migrate(connectCtx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to run migrations: %w", err)
	}

	logger.Info("document store ready",
		slog.Int("max_conns", int(cfg.MaxConns)),
		slog.Int("min_conns", int(cfg.MinConns)),
	)

	return &Store{Pool: pool, logger: logger}, nil
}

// NewWithPool wraps an existing pool; migrations are the caller's concern.
func NewWithPool(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{Pool: pool, logger: logger}
}

func (s *Store) Close() {
	if s.logger != nil {
		s.logger.Info("closing document store")
	}
	s.Pool.Close()
}

func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}
	return nil
}

// InsertOne stores doc under the given id. The document is marshaled as-is,
// so its JSON form should carry its own "_id" field.
func (s *Store) InsertOne(ctx context.Context, collection, id string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := `INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3)`
	if _, err := s.Pool.Exec(ctx, query, collection, id, raw); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// FindOne returns the raw document with the given id, or models.ErrNotFound.
func (s *Store) FindOne(ctx context.Context, collection, id string) (json.RawMessage, error) {
	query := `SELECT doc FROM documents WHERE collection = $1 AND id = $2`

	var raw json.RawMessage
	if err := s.Pool.QueryRow(ctx, query, collection, id).Scan(&raw); err != nil {
		return nil, mapStoreError(err)
	}
	return raw, nil
}

// FindOneBy returns the first document whose fields contain the filter.
func (s *Store) FindOneBy(ctx context.Context, collection string, filter map[string]interface{}) (json.RawMessage, error) {
	rawFilter, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filter: %w", err)
	}

	query := `SELECT doc FROM documents WHERE collection = $1 AND doc @> $2 LIMIT 1`

	var raw json.RawMessage
	if err := s.Pool.QueryRow(ctx, query, collection, rawFilter).Scan(&raw); err != nil {
		return nil, mapStoreError(err)
	}
	return raw, nil
}

// FindAll lists documents in insertion order; limit <= 0 means no limit.
func (s *Store) FindAll(ctx context.Context, collection string, limit int) ([]json.RawMessage, error) {
	query := `SELECT doc FROM documents WHERE collection = $1 ORDER BY created_at`
	args := []interface{}{collection}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer rows.Close()

	docs := make([]json.RawMessage, 0)
	for rows.Next() {
		var raw json.RawMessage
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, raw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// UpdateOne merges fields into the document with the given id and reports
// whether a document matched.
func (s *Store) UpdateOne(ctx context.Context, collection, id string, fields map[string]interface{}) (bool, error) {
	rawFields, err := json.Marshal(fields)
	if err != nil {
		return false, fmt.Errorf("failed to marshal update: %w", err)
	}

	query := `UPDATE documents SET doc = doc || $3 WHERE collection = $1 AND id = $2`
	tag, err := s.Pool.Exec(ctx, query, collection, id, rawFields)
	if err != nil {
		return false, mapStoreError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteOne removes the document with the given id, returning the count.
func (s *Store) DeleteOne(ctx context.Context, collection, id string) (int64, error) {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	tag, err := s.Pool.Exec(ctx, query, collection, id)
	if err != nil {
		return 0, mapStoreError(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteOneBy removes the document with the given id only if its fields
// contain the filter.
func (s *Store) DeleteOneBy(ctx context.Context, collection, id string, filter map[string]interface{}) (int64, error) {
	rawFilter, err := json.Marshal(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal filter: %w", err)
	}

	query := `DELETE FROM documents WHERE collection = $1 AND id = $2 AND doc @> $3`
	tag, err := s.Pool.Exec(ctx, query, collection, id, rawFilter)
	if err != nil {
		return 0, mapStoreError(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteMany removes documents by id, optionally restricted by a containment
// filter, returning the count.
func (s *Store) DeleteMany(ctx context.Context, collection string, ids []string, filter map[string]interface{}) (int64, error) {
	query := `DELETE FROM documents WHERE collection = $1 AND id = ANY($2)`
	args := []interface{}{collection, ids}

	if len(filter) > 0 {
		rawFilter, err := json.Marshal(filter)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal filter: %w", err)
		}
		query += ` AND doc @> $3`
		args = append(args, rawFilter)
	}

	tag, err := s.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapStoreError(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteManyBy removes all documents whose fields contain the filter.
func (s *Store) DeleteManyBy(ctx context.Context, collection string, filter map[string]interface{}) (int64, error) {
	rawFilter, err := json.Marshal(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal filter: %w", err)
	}

	query := `DELETE FROM documents WHERE collection = $1 AND doc @> $2`
	tag, err := s.Pool.Exec(ctx, query, collection, rawFilter)
	if err != nil {
		return 0, mapStoreError(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteOlderThan removes documents inserted before the cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time) (int64, error) {
	query := `DELETE FROM documents WHERE collection = $1 AND created_at < $2`
	tag, err := s.Pool.Exec(ctx, query, collection, cutoff)
	if err != nil {
		return 0, mapStoreError(err)
	}
	return tag.RowsAffected(), nil
}

// mapStoreError converts driver errors into the application's sentinels
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	if pgErr, ok := err.(*pgconn.PgError); ok {
		switch pgErr.Code {
		case "23505": // unique_violation
			return models.ErrConflict
		case "23502": // not_null_violation
			return models.ErrBadRequest
		}
	}

	return err
}
