package requestid

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// NewRequestID generates a new ULID-based request ID. ULIDs sort by creation
// time, which keeps request traces ordered in log aggregation.
func NewRequestID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		// Fallback: timestamp only if randomness fails
		return fmt.Sprintf("req_%d", time.Now().UnixMilli())
	}
	return "req_" + id.String()
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// SetRequestID stores request ID in context
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}
