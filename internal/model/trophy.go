package model

import (
	"time"

	"github.com/google/uuid"
)

type Trophy struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	RaceName  *string   `json:"race_name,omitempty" db:"race_name"`
	ResultID  *string   `json:"result_id,omitempty" db:"result_id"` // non-null once a race result is linked
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validated reports whether the trophy has a linked race result.
func (t *Trophy) Validated() bool {
	return t.ResultID != nil && *t.ResultID != ""
}
