package pipeline

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/contextualize/core/handler"
)

// Option configures a Pipeline during creation.
type Option[C handler.Context] func(*pipeline[C])

// WithErrorHandler sets a custom error handler for the pipeline.
func WithErrorHandler[C handler.Context](h handler.ErrorHandler[C]) Option[C] {
	return func(p *pipeline[C]) {
		if h != nil {
			p.errorHandler = h
		}
	}
}

// WithMiddleware adds stages to the pipeline.
func WithMiddleware[C handler.Context](middlewares ...handler.Middleware[C]) Option[C] {
	return func(p *pipeline[C]) {
		p.Use(middlewares...)
	}
}

// WithContextFactory sets a custom context factory for the pipeline.
func WithContextFactory[C handler.Context](f func(http.ResponseWriter, *http.Request) C) Option[C] {
	return func(p *pipeline[C]) {
		p.newContext = f
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger[C handler.Context](logger *slog.Logger) Option[C] {
	return func(p *pipeline[C]) {
		if logger != nil {
			p.logger = logger
		}
	}
}
