package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stockfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// errorLogSize caps health:global:error_log.
const errorLogSize = 50

// ErrorHandler is the global error handler. It renders the standard error
// format, and records server errors in the Redis error log when rdb is set.
func ErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).
				Str("trace_id", GetTraceID(c)).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("Request failed")
			recordError(rdb, c, code, err)
		}
		return response.Error(c, message, code, nil)
	}
}

func recordError(rdb *redis.Client, c *fiber.Ctx, code int, err error) {
	if rdb == nil {
		return
	}
	entry, _ := json.Marshal(map[string]interface{}{
		"time":       time.Now().UTC(),
		"trace_id":   GetTraceID(c),
		"method":     c.Method(),
		"path":       c.OriginalURL(),
		"statusCode": code,
		"message":    err.Error(),
	})
	ctx := context.Background()
	_, _ = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, KeyErrorLog, entry)
		pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
		return nil
	})
}
