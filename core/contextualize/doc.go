// Package contextualize lets independent handlers in one request pipeline
// read and write same-named request properties without colliding.
//
// An Engine tracks a fixed set of property names. Every wrapped handler gets
// an identifier, and while it runs, property access resolves to a bag owned
// by that identifier. After processing, the whole namespace (identifier to
// bag) can be retrieved and inspected.
//
//	engine := contextualize.MustNew[*pipeline.Context]([]string{"foo", "bar"})
//
//	p := pipeline.New[*pipeline.Context]()
//	p.Use(engine.Root().Middleware())
//	p.Use(engine.MustWrap(first).Middleware())
//	p.Use(engine.MustWrap(second).Middleware())
//	p.Handle(func(ctx *pipeline.Context) handler.Response {
//		s, err := engine.Retrieve(ctx)
//		...
//	})
//
// where first does
//
//	func first(next handler.HandlerFunc[*pipeline.Context]) handler.HandlerFunc[*pipeline.Context] {
//		return func(ctx *pipeline.Context) handler.Response {
//			_ = engine.Set(ctx, "foo", 5)
//			return next(ctx)
//		}
//	}
//
// and the endpoint sees {"first": {"foo": 5}, "second": {...}}.
//
// # Identifiers
//
// A handler's identifier is its function name ("first" above). Closures get
// a generated identifier (anon_0, anon_1, ...), unique per engine. Wrapping
// the same value again keeps its identifier. Identifiers live in a
// side-table owned by the engine; use WrapAs or Assign to pick one.
//
// # Composition
//
// Units returned by Wrap compose: Chain runs stages in sequence, Parallel
// groups handlers under one selector, and Mixin attaches attributes, with
// ContextAttr re-targeting retrieval.
//
// # Configuration
//
// New accepts loose input: a property name, a list of names, Options, or a
// decoded object with "properties", "context" and "strict". NewFromConfig
// and NewFromEnv read Config from the environment, NewFromYAML decodes the
// same forms from YAML.
//
// # Policy
//
// By default wrapped handlers install the namespace when the root
// middleware did not, and reads outside a wrapped handler return nil. With
// WithStrict both are errors: ErrUncontextualized and ErrNotIdentified.
package contextualize
