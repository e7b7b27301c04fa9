package contextualize

import (
	"fmt"

	"github.com/dmitrymomot/contextualize/core/handler"
)

// Get returns the value of prop in the active handler's bag.
// A property never written reads as nil.
func (e *Engine[C]) Get(ctx C, prop string) (any, error) {
	v, _, err := e.Lookup(ctx, prop)
	return v, err
}

// Lookup is like Get and also reports whether the active handler wrote prop.
//
// Outside any wrapped handler there is no active identifier: lookups return
// (nil, false, nil), or ErrNotIdentified under the strict policy.
func (e *Engine[C]) Lookup(ctx C, prop string) (any, bool, error) {
	if err := e.checkProperty(prop); err != nil {
		return nil, false, err
	}
	st, err := e.namespace(ctx)
	if err != nil {
		return nil, false, err
	}
	if st.active == "" {
		if e.strict {
			return nil, false, fmt.Errorf("%w: no active handler reading %q", ErrNotIdentified, prop)
		}
		return nil, false, nil
	}

	v, ok := st.bag(st.active)[prop]
	return v, ok, nil
}

// Set writes prop into the active handler's bag.
func (e *Engine[C]) Set(ctx C, prop string, value any) error {
	if err := e.checkProperty(prop); err != nil {
		return err
	}
	st, err := e.namespace(ctx)
	if err != nil {
		return err
	}
	if st.active == "" {
		return fmt.Errorf("%w: no active handler writing %q", ErrNotIdentified, prop)
	}

	st.bag(st.active)[prop] = value
	return nil
}

func (e *Engine[C]) checkProperty(prop string) error {
	if _, ok := e.tracked[prop]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProperty, prop)
	}
	return nil
}

// Property is a typed accessor for one tracked property.
type Property[C handler.Context, T any] struct {
	engine *Engine[C]
	name   string
}

// Prop returns a typed accessor for the tracked property name.
//
//	color, err := contextualize.Prop[string](engine, "color")
//	...
//	err = color.Set(ctx, "yellow")
func Prop[T any, C handler.Context](e *Engine[C], name string) (*Property[C, T], error) {
	if err := e.checkProperty(name); err != nil {
		return nil, err
	}
	return &Property[C, T]{engine: e, name: name}, nil
}

// MustProp is like Prop but panics on error.
func MustProp[T any, C handler.Context](e *Engine[C], name string) *Property[C, T] {
	p, err := Prop[T](e, name)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the property name.
func (p *Property[C, T]) Name() string {
	return p.name
}

// Get returns the value in the active handler's bag, or the zero value if unset.
func (p *Property[C, T]) Get(ctx C) (T, error) {
	v, _, err := p.Lookup(ctx)
	return v, err
}

// Lookup is like Get and also reports whether the value was set.
func (p *Property[C, T]) Lookup(ctx C) (T, bool, error) {
	var zero T

	raw, ok, err := p.engine.Lookup(ctx, p.name)
	if err != nil || !ok {
		return zero, false, err
	}
	if raw == nil {
		return zero, true, nil
	}

	v, isT := raw.(T)
	if !isT {
		return zero, false, fmt.Errorf("%w: %q holds %T, want %T", ErrTypeMismatch, p.name, raw, zero)
	}
	return v, true, nil
}

// Set writes v into the active handler's bag.
func (p *Property[C, T]) Set(ctx C, v T) error {
	return p.engine.Set(ctx, p.name, v)
}
