// Package http contains the chi HTTP handlers for the risk API: scope
// status, feedback, acknowledgements, prediction windows and health.
// Handlers depend on service interfaces so tests can mock the service
// layer.
package http
