package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/domain/repository"
	"github.com/sangkips/maglo-api/internal/presentation/http/dto/response"
	"github.com/sangkips/maglo-api/pkg/apperror"
	"github.com/sangkips/maglo-api/pkg/logger"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from a stored result
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
	// DefaultIdempotencyKeyTTL is how long keys are valid when no TTL is configured
	DefaultIdempotencyKeyTTL = 24 * time.Hour

	maxIdempotencyKeyLength = 255
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	TTL  time.Duration
	Now  func() time.Time
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a POST is retried with the
// same Idempotency-Key, so a double submit does not create a second invoice.
// The key is reserved before the handler runs, so a concurrent duplicate gets
// 409 instead of running twice. Only successful responses are kept; a failed
// attempt releases the key. Reusing a key for a different body is rejected
// with 409.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	if config.TTL <= 0 {
		config.TTL = DefaultIdempotencyKeyTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	log := logger.WithComponent("idempotency")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}
		if len(idempotencyKey) > maxIdempotencyKeyLength {
			response.BadRequest(c, "Idempotency-Key is too long")
			c.Abort()
			return
		}

		userID := GetUserID(c)
		if userID == uuid.Nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Invalid request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		endpoint := c.Request.Method + " " + c.FullPath()
		requestHash := hashRequest(endpoint, body)

		now := config.Now()
		reservation := &entity.IdempotencyKey{
			Key:         idempotencyKey,
			UserID:      userID,
			Endpoint:    endpoint,
			RequestHash: requestHash,
			CreatedAt:   now,
			ExpiresAt:   now.Add(config.TTL),
		}
		err = config.Repo.Create(c.Request.Context(), reservation)
		if errors.Is(err, repository.ErrIdempotencyKeyInUse) {
			replayOrReject(c, config.Repo, idempotencyKey, userID, requestHash)
			return
		}
		if err != nil {
			log.Warn().Err(err).Msg("idempotency reservation failed")
			c.Next()
			return
		}

		// The outcome is recorded even when the client has gone away.
		ctx := context.WithoutCancel(c.Request.Context())
		completed := false
		defer func() {
			if completed {
				return
			}
			if err := config.Repo.Release(ctx, idempotencyKey, userID); err != nil {
				log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to release idempotency key")
			}
		}()

		blw := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		if err := config.Repo.Complete(ctx, idempotencyKey, userID, status, blw.body.String()); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to store idempotency response")
			return
		}
		completed = true
	}
}

// replayOrReject answers a request whose key is already held
func replayOrReject(c *gin.Context, repo repository.IdempotencyRepository, key string, userID uuid.UUID, requestHash string) {
	existing, err := repo.GetByKey(c.Request.Context(), key, userID)
	if err != nil {
		response.Error(c, apperror.NewRemoteServiceError("", err))
		c.Abort()
		return
	}

	switch {
	case existing == nil || existing.InProgress():
		response.ErrorWithCode(c, http.StatusConflict, "A request with this Idempotency-Key is still being processed")
	case existing.RequestHash != requestHash:
		response.ErrorWithCode(c, http.StatusConflict, "Idempotency-Key was already used for a different request")
	default:
		c.Header(IdempotencyReplayedHeader, "true")
		c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
	}
	c.Abort()
}

func hashRequest(endpoint string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
