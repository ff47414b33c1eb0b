package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/storeplane/internal/domain"
)

// PostgresStoreRepository implements domain.StoreRepository using PostgreSQL.
// It owns both the store records and their append-only audit trail.
type PostgresStoreRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStoreRepository creates a new store repository
func NewPostgresStoreRepository(db *sql.DB, logger *slog.Logger) *PostgresStoreRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStoreRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts a store or updates its mutable fields (status, url).
func (r *PostgresStoreRepository) Save(ctx context.Context, store *domain.Store) error {
	query := `
		INSERT INTO stores (id, name, type, status, created_at, url, namespace)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, url = EXCLUDED.url
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		store.ID,
		store.Name,
		string(store.Type),
		string(store.Status),
		store.CreatedAt,
		nullString(store.URL),
		store.Namespace,
	)
	if err != nil {
		r.logger.Error("failed to save store",
			slog.String("store_id", store.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to save store: %w", err)
	}

	return nil
}

// GetByID retrieves a store by ID. Returns domain.ErrStoreNotFound when absent.
func (r *PostgresStoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	query := `
		SELECT id, name, type, status, created_at, url, namespace
		FROM stores
		WHERE id = $1
	`
	return r.scanStore(r.db.QueryRowContext(ctx, query, id))
}

// GetByName retrieves a store by its normalized name.
func (r *PostgresStoreRepository) GetByName(ctx context.Context, name string) (*domain.Store, error) {
	query := `
		SELECT id, name, type, status, created_at, url, namespace
		FROM stores
		WHERE name = $1
	`
	return r.scanStore(r.db.QueryRowContext(ctx, query, name))
}

// List returns all stores, oldest first.
func (r *PostgresStoreRepository) List(ctx context.Context) ([]*domain.Store, error) {
	query := `
		SELECT id, name, type, status, created_at, url, namespace
		FROM stores
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	var stores []*domain.Store
	for rows.Next() {
		store, err := r.scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}

	return stores, rows.Err()
}

// Delete removes a store record. Deleting an absent store is not an error.
func (r *PostgresStoreRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}

	r.logger.Debug("store deleted", slog.String("store_id", id))
	return nil
}

// AddAuditEvent appends an event to the immutable audit log.
func (r *PostgresStoreRepository) AddAuditEvent(ctx context.Context, event *domain.AuditEvent) error {
	query := `
		INSERT INTO audit_events (id, store_id, store_name, action, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		event.ID,
		nullString(event.StoreID),
		nullString(event.StoreName),
		string(event.Action),
		nullString(event.Message),
		event.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to add audit event",
			slog.String("action", string(event.Action)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to add audit event: %w", err)
	}

	return nil
}

// ListAuditEvents returns up to limit events, most recent first.
func (r *PostgresStoreRepository) ListAuditEvents(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, store_id, store_name, action, message, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		event := &domain.AuditEvent{}
		var storeID, storeName, message sql.NullString
		err := rows.Scan(
			&event.ID,
			&storeID,
			&storeName,
			&event.Action,
			&message,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.StoreID = storeID.String
		event.StoreName = storeName.String
		event.Message = message.String
		events = append(events, event)
	}

	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresStoreRepository) scanStore(row rowScanner) (*domain.Store, error) {
	store := &domain.Store{}
	var url sql.NullString
	err := row.Scan(
		&store.ID,
		&store.Name,
		&store.Type,
		&store.Status,
		&store.CreatedAt,
		&url,
		&store.Namespace,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	store.URL = url.String
	return store, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
