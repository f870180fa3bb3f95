// Package service implements the application use cases on top of the model
// interfaces.
package service

import (
	"context"
	"strings"
	"time"
)

// Timeouts bounds every call to a collaborator.
type Timeouts struct {
	Store   time.Duration
	Payment time.Duration
	Mail    time.Duration
}

// DefaultTimeouts are used when a service is built without explicit timeouts.
var DefaultTimeouts = Timeouts{
	Store:   5 * time.Second,
	Payment: 30 * time.Second,
	Mail:    10 * time.Second,
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
