package contextualize_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contextualize/core/contextualize"
	"github.com/dmitrymomot/contextualize/core/handler"
	"github.com/dmitrymomot/contextualize/core/pipeline"
)

type (
	ctxT    = *pipeline.Context
	engineT = contextualize.Engine[ctxT]
	stageT  = handler.Middleware[ctxT]
	nextT   = handler.HandlerFunc[ctxT]
)

// fixture provides named handlers; their method values are identified by
// method name (A, B, Magic, ...).
type fixture struct {
	t      *testing.T
	engine *engineT
}

func (f *fixture) A(next nextT) nextT {
	return func(ctx ctxT) handler.Response {
		require.NoError(f.t, f.engine.Set(ctx, "foo", 5))
		require.NoError(f.t, f.engine.Set(ctx, "bar", 10))
		return next(ctx)
	}
}

func (f *fixture) B(next nextT) nextT {
	return func(ctx ctxT) handler.Response {
		require.NoError(f.t, f.engine.Set(ctx, "foo", 7))
		require.NoError(f.t, f.engine.Set(ctx, "bar", 1))
		return next(ctx)
	}
}

// setter returns a closure writing prop=value; every call yields a distinct handler.
func setter(t *testing.T, e *engineT, prop string, value any) stageT {
	return func(next nextT) nextT {
		return func(ctx ctxT) handler.Response {
			require.NoError(t, e.Set(ctx, prop, value))
			return next(ctx)
		}
	}
}

// recorder returns a stage appending name to order before and after next.
func recorder(order *[]string, name string) stageT {
	return func(next nextT) nextT {
		return func(ctx ctxT) handler.Response {
			*order = append(*order, name)
			resp := next(ctx)
			*order = append(*order, name+"-after")
			return resp
		}
	}
}

func noContent(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// capture returns an endpoint storing the full namespace.
func capture(t *testing.T, e *engineT, out *contextualize.Tree) nextT {
	return func(ctx ctxT) handler.Response {
		s, err := e.Retrieve(ctx)
		require.NoError(t, err)
		*out = s.Tree()
		return noContent
	}
}

func serve(p pipeline.Pipeline[ctxT]) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func bareContext() ctxT {
	return pipeline.NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

// populate installs a namespace on a fresh context and runs one handler per
// id, each writing foo=id.
func populate(t *testing.T, e *engineT, ids ...string) ctxT {
	t.Helper()

	ctx := bareContext()
	e.Install(ctx)
	for _, id := range ids {
		u, err := e.WrapAs(id, setter(t, e, "foo", id))
		require.NoError(t, err)
		u.Middleware()(func(ctxT) handler.Response { return noContent })(ctx)
	}
	return ctx
}
