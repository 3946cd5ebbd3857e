// Package app contains the application container: configuration loading,
// logger and OpenTelemetry initialization, service construction and the Chi
// router with its middleware chain. cmd/web is a thin shell around this
// package.
package app
