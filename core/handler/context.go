package handler

import (
	"context"
	"net/http"
)

// Context defines the contract for request contexts in the pipeline.
// SetValue is what lets middleware attach request-scoped state.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Param(key string) string
	SetValue(key, val any)
}
