// Package component defines the lifecycle contract shared by the long-lived
// parts of gobatch (HTTP client, result store, telemetry, batch endpoint) and
// a registry that starts them in order and stops them in reverse.
package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed dependency.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a one-line summary a component reports about itself.
type Description struct {
	Name    string
	Type    string
	Details string
}

// Describable is optionally implemented by components that can summarise
// their configuration, e.g. "http://pi/piwebapi/batch timeout=30s".
type Describable interface {
	Describe() Description
}
