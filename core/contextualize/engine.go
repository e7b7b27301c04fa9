package contextualize

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/contextualize/core/handler"
	"github.com/dmitrymomot/contextualize/core/logger"
)

// Bag holds the tracked properties written under one identifier.
type Bag map[string]any

// Tree maps identifiers to their bags. It is the full request namespace.
type Tree map[string]Bag

// Engine isolates tracked request properties per handler identity.
// An Engine is safe for concurrent use; each request gets its own namespace.
type Engine[C handler.Context] struct {
	properties []string
	tracked    map[string]struct{}
	label      string
	strict     bool
	ids        IdentifierStore
	generate   IDGenerator
	logger     *slog.Logger
	key        stateKey

	// mu serializes identifier assignment so concurrent wraps of one handler agree.
	mu sync.RWMutex
	// named holds identifiers derived from function names.
	named map[string]struct{}
	// stages maps the stage of every wrapped unit to that unit.
	stages map[any]*Unit[C]
	root   *Unit[C]
}

// stateKey is unique per engine, so engines sharing a label never collide.
type stateKey struct {
	owner *int
	label string
}

// requestState is the per-request namespace. Only one handler touches it at a time.
type requestState struct {
	tree   Tree
	active string
	// parents holds the identifier each running wrapped handler was entered from.
	parents []string
}

// activate makes id the active identifier and returns a func restoring the
// previous one. The bag for id is created on first activation.
func (s *requestState) activate(id string) func() {
	prev := s.active
	s.active = id
	if id != "" {
		s.bag(id)
	}
	return func() { s.active = prev }
}

func (s *requestState) bag(id string) Bag {
	b, ok := s.tree[id]
	if !ok {
		b = make(Bag)
		s.tree[id] = b
	}
	return b
}

// New creates an engine from loose input (see Normalize) and options.
// Nothing is set up when it fails.
func New[C handler.Context](input any, opts ...Option) (*Engine[C], error) {
	o, err := normalize(input)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(&o)
	}
	o, err = finalize(o)
	if err != nil {
		return nil, err
	}

	e := &Engine[C]{
		properties: o.Properties,
		tracked:    make(map[string]struct{}, len(o.Properties)),
		label:      o.Label,
		strict:     o.Strict,
		ids:        o.Identifiers,
		generate:   o.Generator,
		logger:     o.Logger.With(logger.Component("contextualize"), logger.Label(o.Label)),
		key:        stateKey{owner: new(int), label: o.Label},
		named:      make(map[string]struct{}),
		stages:     make(map[any]*Unit[C]),
	}
	for _, p := range o.Properties {
		e.tracked[p] = struct{}{}
	}
	e.root = &Unit[C]{engine: e, stage: e.install}

	return e, nil
}

// MustNew is like New but panics on error.
func MustNew[C handler.Context](input any, opts ...Option) *Engine[C] {
	e, err := New[C](input, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Properties returns the tracked property names.
func (e *Engine[C]) Properties() []string {
	return slices.Clone(e.properties)
}

// Label returns the namespace label.
func (e *Engine[C]) Label() string {
	return e.label
}

// Strict reports whether the strict identifier policy is active.
func (e *Engine[C]) Strict() bool {
	return e.strict
}

// Root returns the root middleware unit. It installs the request namespace
// and selects the whole tree on retrieval.
func (e *Engine[C]) Root() *Unit[C] {
	return e.root
}

// Install creates the request namespace if it does not exist yet.
func (e *Engine[C]) Install(ctx C) {
	if _, ok := e.state(ctx); ok {
		return
	}
	ctx.SetValue(e.key, &requestState{tree: make(Tree)})

	req := ctx.Request()
	e.logger.Debug("namespace installed",
		logger.Method(req.Method),
		logger.Path(req.URL.Path),
		logger.Count("properties", len(e.properties)),
	)
}

// Installed reports whether the request namespace exists.
func (e *Engine[C]) Installed(ctx C) bool {
	_, ok := e.state(ctx)
	return ok
}

func (e *Engine[C]) install(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		e.Install(ctx)
		return next(ctx)
	}
}

func (e *Engine[C]) state(ctx C) (*requestState, bool) {
	st, ok := ctx.Value(e.key).(*requestState)
	return st, ok
}

// namespace returns the request state or ErrUncontextualized.
func (e *Engine[C]) namespace(ctx C) (*requestState, error) {
	st, ok := e.state(ctx)
	if !ok {
		return nil, e.uncontextualized()
	}
	return st, nil
}

func (e *Engine[C]) uncontextualized() error {
	return fmt.Errorf("%w: install the root middleware of %q first", ErrUncontextualized, e.label)
}

// Identify returns the identifier assigned to obj. Without one it returns
// ("", nil), or ErrNotIdentified under the strict policy.
//
// A named function matches the identifier derived from its name when one
// was wrapped before, so a method value evaluated again still resolves.
func (e *Engine[C]) Identify(obj any) (string, error) {
	e.mu.RLock()
	id, ok := e.lookup(obj)
	e.mu.RUnlock()

	if ok {
		return id, nil
	}
	if e.strict {
		return "", fmt.Errorf("%w: %T", ErrNotIdentified, obj)
	}
	return "", nil
}

// Assign attaches id to obj, replacing any previous identifier.
func (e *Engine[C]) Assign(obj any, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ids.Assign(obj, id)
}

// identify returns obj's identifier, assigning one on first use: the
// function's own name when it has one, a generated identifier otherwise.
func (e *Engine[C]) identify(obj any) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id, ok := e.ids.Identify(obj); ok {
		return id, nil
	}

	id := handlerName(obj)
	derived := id != ""
	if !derived {
		id = e.generate()
	}
	if err := e.ids.Assign(obj, id); err != nil {
		return "", err
	}
	if derived {
		e.named[id] = struct{}{}
	}

	e.logger.Debug("identifier assigned", logger.Identifier(id))
	return id, nil
}

// lookup resolves obj through the store, then through name derivation.
// Callers hold mu.
func (e *Engine[C]) lookup(obj any) (string, bool) {
	if id, ok := e.ids.Identify(obj); ok {
		return id, true
	}
	name := handlerName(obj)
	if name == "" {
		return "", false
	}
	_, ok := e.named[name]
	return name, ok
}
