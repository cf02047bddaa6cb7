package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Password always holds a bcrypt hash,
// never the plain-text credential.
type User struct {
	ID        uuid.UUID
	Username  string
	Password  string
	UpdatedAt time.Time
	CreatedAt time.Time
}

func (u *User) InitMeta() {
	u.ID = uuid.New()
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
}
