// Package handler defines the request-processing contract shared by the
// pipeline and the contextualize engine.
//
// A pipeline is an ordered list of Middleware. Each stage receives the
// request Context and a next HandlerFunc; calling next hands the request to
// the following stage, and not calling it ends processing early. The
// resulting Response renders once the whole chain has returned:
//
//	func stamp[C handler.Context](next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
//		return func(ctx C) handler.Response {
//			ctx.SetValue(stampKey{}, time.Now())
//			return next(ctx)
//		}
//	}
//
// Errors are returned from the Response and handled by the pipeline's
// ErrorHandler. Use Error to fail a request without rendering anything:
//
//	if !authorized(ctx) {
//		return handler.Error(ErrForbidden)
//	}
package handler
