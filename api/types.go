package api

import (
	"context"

	"tracklane-api/domain"
)

// Storage abstracts persistence for handlers. It is the union of what the
// task and analytics services need, plus a liveness check for /healthz.
type Storage interface {
	domain.TaskStorage
	domain.AnalyticsStorage
	Ping(ctx context.Context) error
}

// Authenticator is implemented by types able to extract user IDs from the
// Authorization header.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents re-application of retried reorder commits.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when the write fails.
	Remove(ctx context.Context, userID, key string) error
}
