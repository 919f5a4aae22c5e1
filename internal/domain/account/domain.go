package account

import (
	"time"

	"github.com/google/uuid"
)

// ID is the opaque account identifier used as the join key across
// tokens, message streams and notification settings.
type ID string

func NewID() ID { return ID(uuid.NewString()) }

func (id ID) String() string { return string(id) }

type Account struct {
	ID        ID        `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
