package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vkozak/product-catalog/internal/metrics"
	"github.com/vkozak/product-catalog/internal/model"
	"github.com/vkozak/product-catalog/internal/repository"
	"github.com/vkozak/product-catalog/internal/sqs"
)

var (
	// ErrRatingOutOfRange is returned when a submitted rating value is outside [0,5].
	ErrRatingOutOfRange = errors.New("must be between 0 and 5")

	// ErrAlreadyRated is returned when the user has already rated the product.
	ErrAlreadyRated = errors.New("user already rated this product")
)

// RatingService handles rating submissions and the derived average rating.
type RatingService struct {
	productRepo repository.Repository
	txStore     CatalogTxStore
}

func NewRatingService(productRepo repository.Repository, txStore CatalogTxStore) *RatingService {
	return &RatingService{
		productRepo: productRepo,
		txStore:     txStore,
	}
}

// RateProduct records the authenticated user's rating of a product and
// recomputes the product's average rating, both inside one transaction.
// Returns the product carrying the new average.
func (rs *RatingService) RateProduct(ctx context.Context, userID, productID uuid.UUID, value int) (*model.Product, error) {
	if value < 0 || value > 5 {
		return nil, ErrRatingOutOfRange
	}

	resource, err := rs.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	product, ok := resource.(*model.Product)
	if !ok {
		return nil, repository.ErrInvalidType
	}

	rating := &model.ProductRating{
		UserID:    uuid.NullUUID{UUID: userID, Valid: true},
		ProductID: productID,
		Value:     value,
	}
	rating.InitMeta()

	// The event carries the submitted value; the stored average is only known
	// once the transaction recomputes it.
	event, err := newCatalogEvent(sqs.ActionProductRated, product, float64(value))
	if err != nil {
		return nil, err
	}

	updated, err := rs.txStore.RateProductWithEvent(ctx, rating, event)
	if err != nil {
		var uniqueErr *repository.UniqueConstraintError
		if errors.As(err, &uniqueErr) {
			return nil, ErrAlreadyRated
		}
		return nil, err
	}

	metrics.RatingsSubmitted.Inc()

	return updated, nil
}
