// Package http contains the HTTP transport layer: Chi handlers for the
// analysis, SharePoint and health endpoints. Handlers stay thin; they parse
// and validate the wire representation, delegate to services and render
// results with go-chi/render. All errors flow through the shared RFC 7807
// error handler.
package http
