package handler

import "net/http"

// Response is a function that renders HTTP responses.
// It sets headers, status code, and writes the response body.
// A returned error travels to the pipeline's error handler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc is a type-safe request handler with custom context support.
// Calling it is how a stage signals completion to the rest of the pipeline.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler handles errors during request processing.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps handlers to add cross-cutting functionality.
// A middleware that never calls next short-circuits the pipeline.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]

// Error returns a Response that renders nothing and reports err.
// Stages use it to fail a request through the normal error path.
func Error(err error) Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		return err
	}
}
