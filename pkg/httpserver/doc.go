// Package httpserver runs an http.Server with environment-driven timeouts
// and graceful shutdown on SIGINT, SIGTERM, or context cancellation.
package httpserver
