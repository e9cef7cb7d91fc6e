package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey caches the outcome of a money-moving POST so a retried
// request replays the original response instead of posting twice. Keys are
// scoped per user and expire after a day.
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Key          string    `gorm:"uniqueIndex;size:255;not null"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Endpoint     string    `gorm:"size:255;not null"`
	RequestHash  string    `gorm:"size:64"` // SHA-256 of the request body
	ResponseCode int       `gorm:"not null"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// IsExpired reports whether the cached response is past its TTL
func (i *IdempotencyKey) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// MatchesRequest reports whether a retry carries the same body as the
// original request. A mismatch means the client reused a key for a
// different operation.
func (i *IdempotencyKey) MatchesRequest(hash string) bool {
	return i.RequestHash == "" || i.RequestHash == hash
}
