package contextualize

import (
	"fmt"
	"net/http"

	"github.com/dmitrymomot/contextualize/core/handler"
	"github.com/dmitrymomot/contextualize/core/logger"
)

// Wrap isolates mw: while it runs, tracked properties resolve to its own bag.
//
// mw gets an identifier on first wrap (its function name, or a generated one
// for closures) and keeps it; wrapping the same value again yields a unit
// with the same identifier. Wrapping a unit's own stage returns that unit.
//
// Names do not include the receiver, so method values of one type share an
// identifier: a.Audit and b.Audit both write to "Audit". Use WrapAs to keep
// them apart.
//
// The wrapped stage needs the request namespace. Under the strict policy a
// missing namespace fails the request with ErrUncontextualized; otherwise
// the stage installs it.
func (e *Engine[C]) Wrap(mw handler.Middleware[C]) (*Unit[C], error) {
	if mw == nil {
		return nil, ErrNotCallable
	}
	if u, ok := e.wrapped(mw); ok {
		return u, nil
	}

	id, err := e.identify(mw)
	if err != nil {
		return nil, err
	}

	u := &Unit[C]{engine: e, ids: []string{id}, stage: e.bracket(id, mw)}
	if err := e.register(u); err != nil {
		return nil, err
	}
	return u, nil
}

// wrapped returns the unit whose stage is mw.
func (e *Engine[C]) wrapped(mw handler.Middleware[C]) (*Unit[C], bool) {
	key, err := identityOf(mw)
	if err != nil {
		return nil, false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	u, ok := e.stages[key]
	return u, ok
}

// register records u's stage under u's identifier.
func (e *Engine[C]) register(u *Unit[C]) error {
	key, err := identityOf(u.stage)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ids.Assign(u.stage, u.ids[0]); err != nil {
		return err
	}
	e.stages[key] = u
	return nil
}

// WrapAs is like Wrap but first assigns id to mw. A unit's stage keeps the
// identifier it was wrapped with; asking for another fails with ErrAlreadyWrapped.
func (e *Engine[C]) WrapAs(id string, mw handler.Middleware[C]) (*Unit[C], error) {
	if mw == nil {
		return nil, ErrNotCallable
	}
	if u, ok := e.wrapped(mw); ok {
		if u.ids[0] != id {
			return nil, fmt.Errorf("%w: stage of %q", ErrAlreadyWrapped, u.ids[0])
		}
		return u, nil
	}
	if err := e.Assign(mw, id); err != nil {
		return nil, err
	}
	return e.Wrap(mw)
}

// MustWrap is like Wrap but panics on error.
func (e *Engine[C]) MustWrap(mw handler.Middleware[C]) *Unit[C] {
	u, err := e.Wrap(mw)
	if err != nil {
		panic(err)
	}
	return u
}

// bracket runs mw with id active. Downstream stages run with the previous
// identifier restored, and control coming back to mw re-activates id. The
// previous identifier is restored on every exit path, panics included.
//
// mw is built once per next. The identifier a request entered from lives
// on the request state, so one built handler serves every request.
func (e *Engine[C]) bracket(id string, mw handler.Middleware[C]) handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		h := mw(func(ctx C) handler.Response {
			st, ok := e.state(ctx)
			if !ok || len(st.parents) == 0 {
				return next(ctx)
			}

			parent := st.parents[len(st.parents)-1]
			restore := st.activate(parent)
			defer restore()
			return scoped(st, parent, next(ctx))
		})

		return func(ctx C) handler.Response {
			st, err := e.enter(ctx)
			if err != nil {
				return handler.Error(err)
			}

			st.parents = append(st.parents, st.active)
			restore := st.activate(id)
			defer func() {
				st.parents = st.parents[:len(st.parents)-1]
				restore()
			}()
			return scoped(st, id, h(ctx))
		}
	}
}

// enter returns the request state, installing it unless the policy is strict.
func (e *Engine[C]) enter(ctx C) (*requestState, error) {
	if st, ok := e.state(ctx); ok {
		return st, nil
	}
	if e.strict {
		req := ctx.Request()
		e.logger.Warn("wrapped handler reached before root middleware",
			logger.Method(req.Method),
			logger.Path(req.URL.Path),
		)
		return nil, e.uncontextualized()
	}
	e.Install(ctx)
	if st, ok := e.state(ctx); ok {
		return st, nil
	}
	// The context dropped the value, e.g. a non-pointer context type
	return nil, e.uncontextualized()
}

// scoped renders resp with id active. Responses render after the whole
// chain returned, so the identifier has to be re-established.
func scoped(st *requestState, id string, resp handler.Response) handler.Response {
	if resp == nil {
		return nil
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		restore := st.activate(id)
		defer restore()
		return resp(w, r)
	}
}
