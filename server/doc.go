// Package server provides the HTTP server that hosts the batch endpoint
// emulator, using Gin with cleartext HTTP/2 (h2c) support.
//
// The server follows the component pattern with lifecycle management,
// health endpoints, and configurable middleware.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: Panic recovery with structured logging
//   - RequestID: Request ID generation and propagation
//   - BodySizeLimit: Request body size limits
//   - RequestLogger: Request logging with duration tracking
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: Health check aggregation
//   - /metrics: Prometheus metrics
package server
