// Package services contains the application service layer: the status
// service façade that composes the risk engine behind the adaptive cache
// and circuit breaker, and the health service backing the health endpoints.
//
// Handlers in internal/transport/http talk to these services through
// interfaces so they can be tested with mocks.
package services
