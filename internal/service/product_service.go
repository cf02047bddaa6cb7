package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/vkozak/product-catalog/internal/metrics"
	"github.com/vkozak/product-catalog/internal/model"
	"github.com/vkozak/product-catalog/internal/repository"
	"github.com/vkozak/product-catalog/internal/sqs"
)

// CatalogTxStore executes catalog mutations together with their outbox events
// in a single transaction.
type CatalogTxStore interface {
	CreateProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) (*model.Product, error)
	UpdateProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) (*model.Product, error)
	DeleteProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) error
	RateProductWithEvent(ctx context.Context, rating *model.ProductRating, event *model.Event) (*model.Product, error)
}

type ProductService struct {
	repo    repository.Repository
	txStore CatalogTxStore
}

func NewProductService(repo repository.Repository, txStore CatalogTxStore) *ProductService {
	return &ProductService{
		repo:    repo,
		txStore: txStore,
	}
}

// newCatalogEvent builds an outbox event whose payload is the queue message
// announcing the given catalog change.
func newCatalogEvent(action string, product *model.Product, ratingValue float64) (*model.Event, error) {
	msg := sqs.CatalogMessage{
		Action:    action,
		ProductID: product.ID.String(),
		Name:      product.Name,
		Price:     product.Price,
		Rating:    ratingValue,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return &model.Event{
		EventType: action,
		EventData: data,
	}, nil
}

// CreateProduct stores a new product with rating 0 and records a creation
// event in the same transaction.
func (ps *ProductService) CreateProduct(ctx context.Context, name string, price float64) (*model.Product, error) {
	product := &model.Product{
		Name:  name,
		Price: price,
	}
	product.InitMeta()

	event, err := newCatalogEvent(sqs.ActionProductCreated, product, 0)
	if err != nil {
		return nil, err
	}

	created, err := ps.txStore.CreateProductWithEvent(ctx, product, event)
	if err != nil {
		return nil, err
	}

	metrics.ProductsCreated.Inc()

	return created, nil
}

// GetProduct retrieves a single product by ID.
func (ps *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	resource, err := ps.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product, ok := resource.(*model.Product)
	if !ok {
		return nil, repository.ErrInvalidType
	}

	return product, nil
}

// UpdateProduct replaces the product's name and price, preserving the stored
// rating and refreshing updated_at server-side.
func (ps *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, name string, price float64) (*model.Product, error) {
	product, err := ps.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = name
	product.Price = price

	event, err := newCatalogEvent(sqs.ActionProductUpdated, product, product.Rating)
	if err != nil {
		return nil, err
	}

	updated, err := ps.txStore.UpdateProductWithEvent(ctx, product, event)
	if err != nil {
		return nil, err
	}

	metrics.ProductsUpdated.Inc()

	return updated, nil
}

// DeleteProduct removes the product by ID and records a deletion event in the
// same transaction.
func (ps *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	// Find the product first to get its details for the event
	product, err := ps.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	event, err := newCatalogEvent(sqs.ActionProductDeleted, product, product.Rating)
	if err != nil {
		return err
	}

	if err := ps.txStore.DeleteProductWithEvent(ctx, product, event); err != nil {
		return err
	}

	metrics.ProductsDeleted.Inc()

	return nil
}

// ListProducts retrieves a page of products matching the query.
func (ps *ProductService) ListProducts(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	resources, err := ps.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	products := make([]*model.Product, 0, len(resources))
	for _, resource := range resources {
		product, ok := resource.(*model.Product)
		if !ok {
			return nil, repository.ErrInvalidType
		}
		products = append(products, product)
	}

	return products, nil
}
