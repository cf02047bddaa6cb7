package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vkozak/product-catalog/internal/model"
	"github.com/vkozak/product-catalog/internal/repository"
)

const userColumns = "id, username, password, created_at, updated_at"

// UserRepository implements the Repository interface for User entities.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database. The password field is expected
// to already contain the bcrypt hash.
func (r *UserRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	user, ok := resource.(*model.User)
	if !ok {
		return nil, fmt.Errorf("resource must be a *model.User: %w", repository.ErrInvalidType)
	}

	user.InitMeta()

	query := `INSERT INTO users (id, username, password, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, user.ID, user.Username, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if uniqueErr, ok := uniqueViolation(err); ok {
			return nil, uniqueErr
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// List retrieves users from the database based on the provided query.
func (r *UserRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + userColumns + " FROM users WHERE 1=1")

	var args []interface{}
	argIndex := 1

	for field, value := range query.Values {
		switch field {
		case repository.IDField:
			id, err := uuid.Parse(value)
			if err != nil {
				return nil, fmt.Errorf("invalid ID format: %w", err)
			}
			queryBuilder.WriteString(fmt.Sprintf(" AND id = $%d", argIndex))
			args = append(args, id)
			argIndex++
		case repository.UsernameField:
			queryBuilder.WriteString(fmt.Sprintf(" AND username = $%d", argIndex))
			args = append(args, value)
			argIndex++
		}
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultPerPage
	}
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1))
	args = append(args, limit, query.Offset)

	stmt, err := r.db.PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []repository.Resource
	for rows.Next() {
		var user model.User
		err := rows.Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// FindByID retrieves a single user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	var result model.User
	err = stmt.QueryRowContext(ctx, id).Scan(
		&result.ID, &result.Username, &result.Password, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &result, nil
}

// FindByUsername retrieves a single user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	var result model.User
	err = stmt.QueryRowContext(ctx, username).Scan(
		&result.ID, &result.Username, &result.Password, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &result, nil
}

// DeleteByID deletes a user by ID. Their rating rows keep a NULL user
// reference via the ON DELETE SET NULL constraint.
func (r *UserRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}

	return nil
}
