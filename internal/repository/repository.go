package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Repository defines the interface for a generic repository that can manage resources.
type Repository interface {
	Create(ctx context.Context, resource Resource) (result Resource, err error)
	List(ctx context.Context, query Query) (result []Resource, err error)
	FindByID(ctx context.Context, id uuid.UUID) (result Resource, err error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// EventStatusUpdater updates the delivery status of an outbox event.
type EventStatusUpdater interface {
	UpdateStatus(ctx context.Context, eventID uuid.UUID, status string) error
}

// Resource represents a generic resource that can be managed by the repository.
type Resource interface {
	InitMeta()
}

var (
	// ErrNotFound is returned when a resource does not exist for the given key.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidType is returned when a repository receives a resource of the wrong concrete type.
	ErrInvalidType = errors.New("invalid resource type")
)

// UniqueConstraintError represents a database unique constraint violation error.
type UniqueConstraintError struct {
	Constraint string
	Detail     string
}

func (u *UniqueConstraintError) Error() string {
	return "resource must be unique: " + u.Detail
}
