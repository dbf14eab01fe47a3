// Package storage provides unified interfaces and lifecycle management for
// storage backends (MongoDB, Milvus, Redis). All storage clients implement
// the Client interface, enabling consistent health checking and graceful
// shutdown across the service.
package storage

import (
	"context"
	"time"
)

// Client is the base interface that all storage clients must implement.
type Client interface {
	// Name returns the storage type name, a lowercase identifier like
	// "mongodb" or "milvus". Used for logging and health reporting.
	Name() string

	// Ping checks if the connection to the storage backend is alive.
	// It should be a lightweight operation honoring the context deadline.
	Ping(ctx context.Context) error

	// Close closes the connection gracefully, releasing all resources.
	// Close must be idempotent.
	Close() error

	// Health returns a HealthChecker bound to this client.
	Health() HealthChecker
}

// HealthChecker performs a health check on a storage system.
type HealthChecker func() error

// HealthStatus represents the result of a health check operation.
type HealthStatus struct {
	// Name identifies the storage instance being checked.
	Name string

	// Healthy indicates whether the storage responded normally.
	Healthy bool

	// Latency measures how long the health check took.
	Latency time.Duration

	// Error contains the failure details; nil when Healthy is true.
	Error error
}
