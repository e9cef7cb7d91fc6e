package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/internal/domain/repository"
)

const (
	// IdempotencyKeyHeader is the HTTP header carrying the client's key
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long a cached response is replayed
	IdempotencyKeyTTL = 24 * time.Hour
)

// IdempotencyConfig holds the dependencies of the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
}

// responseWriter tees the response body so it can be cached
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func abortWith(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "message": message})
	c.Abort()
}

// IdempotencyRequired rejects POST requests without an Idempotency-Key
// header and replays the cached response for a repeated key. Payment
// endpoints sit behind this so a retried request never posts twice. Reusing
// a key with a different request body is a client error, not a retry.
func IdempotencyRequired(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			abortWith(c, http.StatusBadRequest, "Idempotency-Key header is required for this request")
			return
		}

		userIDValue, exists := c.Get("user_id")
		if !exists {
			abortWith(c, http.StatusUnauthorized, "User not authenticated")
			return
		}
		userID, ok := userIDValue.(uuid.UUID)
		if !ok {
			abortWith(c, http.StatusUnauthorized, "Invalid user ID")
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			abortWith(c, http.StatusBadRequest, "Failed to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		requestHash := hex.EncodeToString(sum[:])

		existing, err := config.Repo.GetByKey(c.Request.Context(), idempotencyKey, userID)
		if err != nil {
			abortWith(c, http.StatusInternalServerError, "Failed to check idempotency key")
			return
		}

		if existing != nil && !existing.IsExpired() {
			if !existing.MatchesRequest(requestHash) {
				abortWith(c, http.StatusConflict, "Idempotency-Key was already used with a different request body")
				return
			}
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(existing.ResponseCode, "application/json", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		blw := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only successful outcomes are worth replaying
		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			ikey := &entity.IdempotencyKey{
				Key:          idempotencyKey,
				UserID:       userID,
				Endpoint:     c.Request.Method + " " + c.FullPath(),
				RequestHash:  requestHash,
				ResponseCode: c.Writer.Status(),
				ResponseBody: blw.body.String(),
				ExpiresAt:    time.Now().Add(IdempotencyKeyTTL),
			}

			_ = config.Repo.Create(c.Request.Context(), ikey)
		}
	}
}
