package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductRating is a single user's 0-5 rating of one product.
// UserID is nullable so rating rows survive user deletion and keep
// counting towards the product average.
type ProductRating struct {
	ID        uuid.UUID
	UserID    uuid.NullUUID
	ProductID uuid.UUID
	Value     int
	CreatedAt time.Time
}

// InitMeta initializes the rating metadata including ID and creation timestamp.
func (r *ProductRating) InitMeta() {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
}
