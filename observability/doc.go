// Package observability provides an OpenTelemetry metrics extension for
// tenantq. MetricsExtension implements the lifecycle hooks and records
// system-wide counters for job enqueue, completion, failure, retry, schema
// switches, and tenant creation.
//
// For per-execution tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
