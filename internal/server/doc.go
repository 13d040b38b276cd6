// Package server implements the monitoring HTTP endpoints: health, request
// statistics, and Prometheus metrics.
package server
