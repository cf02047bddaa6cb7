package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vkozak/product-catalog/internal/model"
	"github.com/vkozak/product-catalog/internal/repository"
)

const productColumns = "id, name, price, rating, created_at, updated_at"

// ProductRepository implements the Repository interface for Product entities.
type ProductRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(db *sql.DB) repository.Repository {
	return &ProductRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *ProductRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	product, ok := resource.(*model.Product)
	if !ok {
		return nil, fmt.Errorf("resource must be a *model.Product: %w", repository.ErrInvalidType)
	}

	// Only initialize metadata if not already set
	if product.ID == uuid.Nil {
		product.InitMeta()
	}

	query := `INSERT INTO products (id, name, price, rating, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, product.ID, product.Name, product.Price, product.Rating, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if uniqueErr, ok := uniqueViolation(err); ok {
			return nil, uniqueErr
		}
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	return product, nil
}

// List retrieves products from the database based on the provided query.
// Search and ordering are pushed into the SQL statement; the search term is a
// case-insensitive substring match over the name, the price text and the
// rating rounded to 3 decimal places. The order-by field has already passed
// the allow-list in the query builder, so substituting it directly is safe.
func (r *ProductRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + productColumns + " FROM products WHERE 1=1")

	var args []interface{}
	argIndex := 1

	if query.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND (name ILIKE $%d OR price::text ILIKE $%d OR round(rating::numeric, 3)::text ILIKE $%d)",
			argIndex, argIndex, argIndex))
		args = append(args, "%"+query.Search+"%")
		argIndex++
	}

	orderBy := query.OrderBy
	if orderBy == "" {
		orderBy = repository.NameField
	}
	direction := "ASC"
	if query.Descending {
		direction = "DESC"
	}
	// Secondary id ordering keeps pages stable when the sort field has ties.
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s %s, id ASC", orderBy, direction))

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
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []repository.Resource
	for rows.Next() {
		var product model.Product
		err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.Rating, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// FindByID retrieves a single product by ID.
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	var result model.Product
	err = stmt.QueryRowContext(ctx, id).Scan(
		&result.ID, &result.Name, &result.Price, &result.Rating, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &result, nil
}

// Update replaces the product's name and price by primary key. The stored
// rating is left untouched and updated_at is always refreshed server-side.
func (r *ProductRepository) Update(ctx context.Context, product *model.Product) (*model.Product, error) {
	product.UpdatedAt = time.Now()

	query := `UPDATE products SET name = $1, price = $2, updated_at = $3 WHERE id = $4`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, product.Name, product.Price, product.UpdatedAt, product.ID)
	if err != nil {
		if uniqueErr, ok := uniqueViolation(err); ok {
			return nil, uniqueErr
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("product not found: %w", repository.ErrNotFound)
	}

	return product, nil
}

// DeleteByID deletes a product by ID. Associated rating rows go with it via
// the ON DELETE CASCADE constraint.
func (r *ProductRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("product not found: %w", repository.ErrNotFound)
	}

	return nil
}

// lockByID loads the product row with a row-level lock so concurrent rating
// submissions for the same product are serialized within their transactions.
func (r *ProductRepository) lockByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	var result model.Product
	err = stmt.QueryRowContext(ctx, id).Scan(
		&result.ID, &result.Name, &result.Price, &result.Rating, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	return &result, nil
}

// updateRating persists a recomputed average rating for the product.
func (r *ProductRepository) updateRating(ctx context.Context, id uuid.UUID, rating float64) error {
	query := `UPDATE products SET rating = $1 WHERE id = $2`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, rating, id); err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}

	return nil
}
