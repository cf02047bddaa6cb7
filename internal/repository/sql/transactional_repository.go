package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vkozak/product-catalog/internal/model"
	"github.com/vkozak/product-catalog/internal/repository"
)

// TransactionalRepository provides methods to work with multiple repositories in a single transaction
type TransactionalRepository struct {
	db *sql.DB
}

// NewTransactionalRepository creates a new TransactionalRepository
func NewTransactionalRepository(db *sql.DB) *TransactionalRepository {
	return &TransactionalRepository{db: db}
}

// CreateProductWithEvent creates a product and an outbox event in a single transaction.
func (tr *TransactionalRepository) CreateProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) (*model.Product, error) {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	productRepo := &ProductRepository{db: tr.db, txn: tx}
	eventRepo := &EventRepository{db: tr.db, txn: tx}

	createdRes, err := productRepo.Create(ctx, product)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	created, ok := createdRes.(*model.Product)
	if !ok {
		tx.Rollback()
		return nil, repository.ErrInvalidType
	}

	if _, err = eventRepo.Create(ctx, event); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, nil
}

// UpdateProductWithEvent replaces a product's name and price and records an
// outbox event in a single transaction.
func (tr *TransactionalRepository) UpdateProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) (*model.Product, error) {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	productRepo := &ProductRepository{db: tr.db, txn: tx}
	eventRepo := &EventRepository{db: tr.db, txn: tx}

	updated, err := productRepo.Update(ctx, product)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if _, err = eventRepo.Create(ctx, event); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return updated, nil
}

// DeleteProductWithEvent deletes a product and records a deletion event in a single transaction.
func (tr *TransactionalRepository) DeleteProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) error {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	productRepo := &ProductRepository{db: tr.db, txn: tx}
	eventRepo := &EventRepository{db: tr.db, txn: tx}

	if err := productRepo.DeleteByID(ctx, product.ID); err != nil {
		tx.Rollback()
		return err
	}

	if _, err = eventRepo.Create(ctx, event); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RateProductWithEvent inserts a rating, recomputes the product's average
// rating from the full rating set and records an outbox event, all in one
// transaction. The product row is locked first so concurrent submissions for
// the same product cannot both read a stale rating set and lose an update.
// Returns the product carrying the new average.
func (tr *TransactionalRepository) RateProductWithEvent(ctx context.Context, rating *model.ProductRating, event *model.Event) (*model.Product, error) {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	productRepo := &ProductRepository{db: tr.db, txn: tx}
	ratingRepo := &RatingRepository{db: tr.db, txn: tx}
	eventRepo := &EventRepository{db: tr.db, txn: tx}

	product, err := productRepo.lockByID(ctx, rating.ProductID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if _, err := ratingRepo.Create(ctx, rating); err != nil {
		tx.Rollback()
		return nil, err
	}

	values, err := ratingRepo.listValues(ctx, rating.ProductID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	sum := 0
	for _, value := range values {
		sum += value
	}
	product.Rating = float64(sum) / float64(len(values))

	if err := productRepo.updateRating(ctx, product.ID, product.Rating); err != nil {
		tx.Rollback()
		return nil, err
	}

	if _, err := eventRepo.Create(ctx, event); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return product, nil
}
