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

const ratingColumns = "id, user_id, product_id, value, created_at"

// RatingRepository implements the Repository interface for ProductRating entities.
type RatingRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewRatingRepository creates a new RatingRepository instance.
func NewRatingRepository(db *sql.DB) repository.Repository {
	return &RatingRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *RatingRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// Create inserts a new rating into the database. A second rating by the same
// user for the same product violates the (user_id, product_id) unique
// constraint and surfaces as a UniqueConstraintError.
func (r *RatingRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	rating, ok := resource.(*model.ProductRating)
	if !ok {
		return nil, fmt.Errorf("resource must be a *model.ProductRating: %w", repository.ErrInvalidType)
	}

	if rating.ID == uuid.Nil {
		rating.InitMeta()
	}

	query := `INSERT INTO product_ratings (id, user_id, product_id, value, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, rating.ID, rating.UserID, rating.ProductID, rating.Value, rating.CreatedAt)
	if err != nil {
		if uniqueErr, ok := uniqueViolation(err); ok {
			return nil, uniqueErr
		}
		return nil, fmt.Errorf("failed to insert rating: %w", err)
	}

	return rating, nil
}

// List retrieves ratings from the database based on the provided query.
func (r *RatingRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + ratingColumns + " FROM product_ratings WHERE 1=1")

	var args []interface{}
	argIndex := 1

	for field, value := range query.Values {
		switch field {
		case repository.ProductIDField, repository.UserIDField:
			id, err := uuid.Parse(value)
			if err != nil {
				return nil, fmt.Errorf("invalid ID format: %w", err)
			}
			queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", field, argIndex))
			args = append(args, id)
			argIndex++
		}
	}

	queryBuilder.WriteString(" ORDER BY created_at ASC, id ASC")

	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultPerPage
	}
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1))
	args = append(args, limit, query.Offset)

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []repository.Resource
	for rows.Next() {
		var rating model.ProductRating
		err := rows.Scan(&rating.ID, &rating.UserID, &rating.ProductID, &rating.Value, &rating.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, &rating)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ratings, nil
}

// FindByID retrieves a single rating by ID.
func (r *RatingRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	query := `SELECT ` + ratingColumns + ` FROM product_ratings WHERE id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	var result model.ProductRating
	err = stmt.QueryRowContext(ctx, id).Scan(
		&result.ID, &result.UserID, &result.ProductID, &result.Value, &result.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("rating not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query rating: %w", err)
	}

	return &result, nil
}

// DeleteByID deletes a rating by ID.
func (r *RatingRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM product_ratings WHERE id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("rating not found: %w", repository.ErrNotFound)
	}

	return nil
}

// listValues retrieves all rating values for a product. Called inside the
// rating transaction to recompute the product's average.
func (r *RatingRepository) listValues(ctx context.Context, productID uuid.UUID) ([]int, error) {
	query := `SELECT value FROM product_ratings WHERE product_id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating values: %w", err)
	}
	defer rows.Close()

	var values []int
	for rows.Next() {
		var value int
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan rating value: %w", err)
		}
		values = append(values, value)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return values, nil
}
