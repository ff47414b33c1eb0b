package domain

import "time"

// Operator represents someone allowed to drive the control plane.
type Operator struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string // bcrypt, never serialized
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsActive     bool
}

// OperatorRepository defines data access for operators.
type OperatorRepository interface {
	Create(operator *Operator) error
	GetByID(id string) (*Operator, error)
	GetByEmail(email string) (*Operator, error)
	GetByUsername(username string) (*Operator, error)
	Update(operator *Operator) error
}
