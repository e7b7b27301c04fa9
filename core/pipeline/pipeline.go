package pipeline

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/dmitrymomot/contextualize/core/handler"
	"github.com/dmitrymomot/contextualize/core/logger"
)

// Pipeline runs an ordered list of stages for every request.
// Stages run in the order they were added; the endpoint runs last.
type Pipeline[C handler.Context] interface {
	http.Handler

	// Use appends stages to the pipeline.
	Use(middlewares ...handler.Middleware[C])
	// Handle sets the endpoint reached when every stage called next.
	Handle(h handler.HandlerFunc[C])
}

// pipeline is the private implementation of Pipeline.
type pipeline[C handler.Context] struct {
	middlewares  []handler.Middleware[C]
	endpoint     handler.HandlerFunc[C]
	handler      handler.HandlerFunc[C]
	built        *sync.Once
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request) C
	logger       *slog.Logger
}

// New creates a pipeline with the given options.
// Without a context factory, C must be *Context.
func New[C handler.Context](opts ...Option[C]) Pipeline[C] {
	p := &pipeline[C]{
		errorHandler: defaultErrorHandler[C],
		logger:       logger.Discard(),
		built:        new(sync.Once),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.newContext == nil {
		p.newContext = func(w http.ResponseWriter, r *http.Request) C {
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(NewContext(w, r)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	return p
}

// Use appends stages to the pipeline. A nil stage panics.
func (p *pipeline[C]) Use(middlewares ...handler.Middleware[C]) {
	for _, mw := range middlewares {
		if mw == nil {
			panic(ErrNilMiddleware)
		}
	}
	p.middlewares = append(p.middlewares, middlewares...)
	p.built = new(sync.Once)
}

// Handle sets the endpoint.
func (p *pipeline[C]) Handle(h handler.HandlerFunc[C]) {
	p.endpoint = h
	p.built = new(sync.Once)
}

// ServeHTTP implements http.Handler.
func (p *pipeline[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := newResponseWriter(w)
	ctx := p.newContext(ww, r)

	// Recover from panics to prevent server crashes
	defer func() {
		if v := recover(); v != nil {
			perr := &panicError{value: v, stack: debug.Stack()}
			if ww.Written() {
				p.logger.Error("panic after response written",
					logger.Component("pipeline"),
					logger.Error(perr),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.StatusCode(ww.Status()),
				)
				return
			}
			p.errorHandler(ctx, perr)
		}
	}()

	p.built.Do(p.build)
	response := p.handler(ctx)
	if response == nil {
		p.errorHandler(ctx, ErrNilResponse)
		return
	}

	if err := response(ww, r); err != nil {
		p.errorHandler(ctx, err)
	}
}

// build chains the stages. It runs on the first request after the last Use
// or Handle, so each middleware wraps next once rather than per request.
// Use and Handle are not safe while serving.
func (p *pipeline[C]) build() {
	endpoint := p.endpoint
	if endpoint == nil {
		endpoint = notFound[C]
	}
	p.handler = chain(p.middlewares, endpoint)
}

// chain builds a single handler from a middleware stack and endpoint.
func chain[C handler.Context](middlewares []handler.Middleware[C], endpoint handler.HandlerFunc[C]) handler.HandlerFunc[C] {
	h := endpoint

	// Wrap in reverse order so the first middleware runs first
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}

func notFound[C handler.Context](C) handler.Response {
	return handler.Error(ErrNotFound)
}
