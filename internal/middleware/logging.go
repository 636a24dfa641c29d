package middleware

import (
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
)

// RequestLogger emits one structured log line per request.
func RequestLogger(logger zerolog.Logger) drift.HandlerFunc {
	return func(c *drift.Context) {
		start := time.Now()
		req := c.Request

		c.Next()

		logger.Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
