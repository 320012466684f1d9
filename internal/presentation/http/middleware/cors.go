package middleware

import (
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/maglo-api/internal/config"
)

// Headers the API reads from browsers regardless of CORS_ALLOWED_HEADERS
var requiredRequestHeaders = []string{"Authorization", "Content-Type", IdempotencyKeyHeader}

// Response headers the dashboard reads: replay marker, rate limit state and
// the export filename.
var exposedResponseHeaders = []string{
	"Content-Length",
	"Content-Type",
	"Content-Disposition",
	"X-Request-ID",
	IdempotencyReplayedHeader,
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"Retry-After",
}

// CORSMiddleware creates a CORS middleware with the provided configuration
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    exposedResponseHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// Vite dev server defaults
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:8080",
		}
	}

	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}

	if len(corsConfig.AllowHeaders) == 0 {
		corsConfig.AllowHeaders = []string{"Accept", "Origin", "X-Request-ID"}
	}
	corsConfig.AllowHeaders = withHeaders(corsConfig.AllowHeaders, requiredRequestHeaders...)

	return cors.New(corsConfig)
}

// withHeaders appends each missing header, comparing case-insensitively
func withHeaders(headers []string, required ...string) []string {
	out := slices.Clone(headers)
	for _, r := range required {
		if !slices.ContainsFunc(out, func(h string) bool { return strings.EqualFold(h, r) }) {
			out = append(out, r)
		}
	}
	return out
}
