// Package pipeline runs an ordered list of handler.Middleware stages for
// each HTTP request.
//
// It is the host side of the stage contract: it builds the request context,
// calls the stages in order, renders the final Response and routes any error
// to an ErrorHandler. Panics are recovered and reported as PanicError.
//
//	p := pipeline.New[*pipeline.Context]()
//	p.Use(engine.Root().Middleware())
//	p.Use(auth.Middleware(), audit.Middleware())
//	p.Handle(func(ctx *pipeline.Context) handler.Response {
//		return func(w http.ResponseWriter, r *http.Request) error {
//			w.WriteHeader(http.StatusNoContent)
//			return nil
//		}
//	})
//	http.ListenAndServe(":8080", p)
//
// Requests that run past the last stage without an endpoint fail with
// ErrNotFound.
package pipeline
