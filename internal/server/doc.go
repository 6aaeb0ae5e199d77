// Package server provides the HTTP plumbing around the booking page.
//
// # Key Components
//
// HTTPServer serves the web handler together with the health endpoints. Every
// request is traced with otelhttp, counted in the request metrics, and
// answered with security headers.
//
// HealthChecker exposes /healthz, /readyz and /healthz/detailed for probes.
// Readiness drops as soon as shutdown begins.
//
// MetricsServer serves Prometheus metrics on a dedicated port, isolated from
// the booking page.
package server
