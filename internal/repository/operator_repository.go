package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/storeplane/internal/domain"
)

// PostgresOperatorRepository implements domain.OperatorRepository using PostgreSQL
type PostgresOperatorRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresOperatorRepository creates a new operator repository
func NewPostgresOperatorRepository(db *sql.DB, logger *slog.Logger) *PostgresOperatorRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresOperatorRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new operator
func (r *PostgresOperatorRepository) Create(operator *domain.Operator) error {
	query := `
		INSERT INTO operators (id, email, username, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		operator.ID,
		operator.Email,
		operator.Username,
		operator.PasswordHash,
		operator.IsActive,
	).Scan(&operator.CreatedAt, &operator.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create operator",
			slog.String("email", operator.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create operator: %w", err)
	}

	return nil
}

// GetByID retrieves an operator by ID
func (r *PostgresOperatorRepository) GetByID(id string) (*domain.Operator, error) {
	return r.getOne(`
		SELECT id, email, username, password_hash, created_at, updated_at, is_active
		FROM operators
		WHERE id = $1
	`, id)
}

// GetByEmail retrieves an active operator by email
func (r *PostgresOperatorRepository) GetByEmail(email string) (*domain.Operator, error) {
	return r.getOne(`
		SELECT id, email, username, password_hash, created_at, updated_at, is_active
		FROM operators
		WHERE email = $1 AND is_active = true
	`, email)
}

// GetByUsername retrieves an active operator by username
func (r *PostgresOperatorRepository) GetByUsername(username string) (*domain.Operator, error) {
	return r.getOne(`
		SELECT id, email, username, password_hash, created_at, updated_at, is_active
		FROM operators
		WHERE username = $1 AND is_active = true
	`, username)
}

// Update updates an existing operator
func (r *PostgresOperatorRepository) Update(operator *domain.Operator) error {
	query := `
		UPDATE operators
		SET email = $1, username = $2, password_hash = $3, is_active = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		operator.Email,
		operator.Username,
		operator.PasswordHash,
		operator.IsActive,
		operator.ID,
	).Scan(&operator.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("operator not found")
		}
		return fmt.Errorf("failed to update operator: %w", err)
	}

	return nil
}

func (r *PostgresOperatorRepository) getOne(query string, arg any) (*domain.Operator, error) {
	operator := &domain.Operator{}

	err := r.db.QueryRow(query, arg).Scan(
		&operator.ID,
		&operator.Email,
		&operator.Username,
		&operator.PasswordHash,
		&operator.CreatedAt,
		&operator.UpdatedAt,
		&operator.IsActive,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("operator not found")
		}
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}

	return operator, nil
}
