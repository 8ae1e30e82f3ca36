// Package httpserver runs an http.Handler with graceful shutdown.
//
// Run listens on the configured address, serves until the context is
// cancelled or the process receives SIGINT or SIGTERM, then shuts down with a
// deadline and runs the stop hooks in registration order. Stop hooks are where
// long-lived resources such as the slot pool get closed.
//
// LivenessHandler and ReadinessHandler serve /health and /ready. Readiness runs
// named checks and reports the failing ones.
package httpserver
