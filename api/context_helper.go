package api

import (
	"context"
	"time"
)

// QueryTimeout bounds every database call issued by a handler. Crush sends do
// three writes in sequence, so this is per-call, not per-request.
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}
