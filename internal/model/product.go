package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog entry with its price and derived average rating.
type Product struct {
	ID        uuid.UUID
	Name      string
	Price     float64
	Rating    float64
	UpdatedAt time.Time
	CreatedAt time.Time
}

// InitMeta initializes the product metadata including ID and timestamps.
// The rating always starts at zero; it is only ever derived from submitted ratings.
func (p *Product) InitMeta() {
	p.ID = uuid.New()
	p.Rating = 0
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
}
