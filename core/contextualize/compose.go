package contextualize

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dmitrymomot/contextualize/core/handler"
	"github.com/dmitrymomot/contextualize/core/logger"
)

// ContextAttr is the mixin attribute that re-targets retrieval: a string
// selects one bag, a []string selects a group of bags.
const ContextAttr = "context"

// Unit is an installable stage that also knows which part of the request
// namespace it owns. Units come from Wrap, Parallel, Chain, Mixin and Root.
type Unit[C handler.Context] struct {
	engine *Engine[C]
	ids    []string
	group  bool
	stage  handler.Middleware[C]
	attrs  map[string]any
}

// Middleware returns the stage to install into the pipeline.
func (u *Unit[C]) Middleware() handler.Middleware[C] {
	return u.stage
}

// Identifiers returns the identifiers the unit selects.
// An empty result selects the whole namespace.
func (u *Unit[C]) Identifiers() []string {
	return slices.Clone(u.ids)
}

// Identifier returns the identifier of a single-handler unit, or "" for
// groups and the root.
func (u *Unit[C]) Identifier() string {
	if u.group || len(u.ids) != 1 {
		return ""
	}
	return u.ids[0]
}

// Group reports whether the unit selects a set of bags rather than one.
func (u *Unit[C]) Group() bool {
	return u.group
}

// Attr returns a mixin attribute.
func (u *Unit[C]) Attr(key string) (any, bool) {
	v, ok := u.attrs[key]
	return v, ok
}

// Retrieve returns the part of the request namespace the unit selects.
func (u *Unit[C]) Retrieve(ctx C) (Slice, error) {
	return u.engine.Retrieve(ctx, u)
}

// Chain returns a unit running u and then each of next, in order. A
// stage only runs once the previous one called next. The result keeps
// u's identifiers and attributes.
func (u *Unit[C]) Chain(next ...handler.Middleware[C]) (*Unit[C], error) {
	for i, mw := range next {
		if mw == nil {
			return nil, fmt.Errorf("%w: chain stage %d is nil", ErrNotCallable, i)
		}
	}

	c := u.clone()
	first := u.stage
	rest := slices.Clone(next)
	c.stage = func(end handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return first(compose(rest, end))
	}
	return c, nil
}

// Mixin returns a copy of u carrying extra attributes; u is unchanged.
// ContextAttr re-targets retrieval when it holds a string or []string.
func (u *Unit[C]) Mixin(attrs map[string]any) *Unit[C] {
	c := u.clone()
	for k, v := range attrs {
		c.attrs[k] = v
	}

	switch target := attrs[ContextAttr].(type) {
	case string:
		c.ids, c.group = []string{target}, false
	case []string:
		c.ids, c.group = slices.Clone(target), true
	}
	return c
}

func (u *Unit[C]) clone() *Unit[C] {
	attrs := make(map[string]any, len(u.attrs))
	maps.Copy(attrs, u.attrs)
	return &Unit[C]{
		engine: u.engine,
		ids:    slices.Clone(u.ids),
		group:  u.group,
		stage:  u.stage,
		attrs:  attrs,
	}
}

// Parallel wraps each middleware on its own and groups them under one unit.
// Retrieval through the unit yields the bags of every member.
//
// Members run one after another in the given order, each in its own scope;
// the group hands off once the last member called next.
func (e *Engine[C]) Parallel(mws ...handler.Middleware[C]) (*Unit[C], error) {
	if len(mws) == 0 {
		return nil, fmt.Errorf("%w: empty group", ErrNotCallable)
	}

	for i, mw := range mws {
		if mw == nil {
			return nil, fmt.Errorf("%w: group member %d is nil", ErrNotCallable, i)
		}
	}

	ids := make([]string, 0, len(mws))
	stages := make([]handler.Middleware[C], 0, len(mws))
	for _, mw := range mws {
		u, err := e.Wrap(mw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, u.ids[0])
		stages = append(stages, u.stage)
	}

	e.logger.Debug("group composed", logger.Identifiers(ids))

	return &Unit[C]{
		engine: e,
		ids:    ids,
		group:  true,
		stage: func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
			return compose(stages, next)
		},
	}, nil
}

// compose builds a single handler from stages and an endpoint.
func compose[C handler.Context](stages []handler.Middleware[C], end handler.HandlerFunc[C]) handler.HandlerFunc[C] {
	h := end

	// Wrap in reverse order so the first stage runs first
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i](h)
	}

	return h
}
