package contextualize_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contextualize/core/contextualize"
	"github.com/dmitrymomot/contextualize/core/handler"
	"github.com/dmitrymomot/contextualize/core/pipeline"
)

func audit(next nextT) nextT {
	return next
}

func TestWrapNamedHandlers(t *testing.T) {
	t.Parallel()

	e := contextualize.MustNew[ctxT]("foo")
	f := &fixture{t: t, engine: e}

	assert.Equal(t, "audit", e.MustWrap(audit).Identifier())
	assert.Equal(t, "A", e.MustWrap(f.A).Identifier())
	assert.Equal(t, "B", e.MustWrap(f.B).Identifier())
}

func TestWrapIsIdempotent(t *testing.T) {
	t.Parallel()

	e := contextualize.MustNew[ctxT]("foo")
	mw := setter(t, e, "foo", 1)

	first := e.MustWrap(mw)
	second := e.MustWrap(mw)
	assert.Equal(t, first.Identifier(), second.Identifier())

	id, err := e.Identify(mw)
	require.NoError(t, err)
	assert.Equal(t, first.Identifier(), id)

	// The generator is consumed once per handler
	assert.Equal(t, "anon_1", e.MustWrap(setter(t, e, "foo", 2)).Identifier())
}

func TestWrapAnonymousHandlers(t *testing.T) {
	t.Parallel()

	e := contextualize.MustNew[ctxT]("foo")

	var ids []string
	for i := range 3 {
		ids = append(ids, e.MustWrap(setter(t, e, "foo", i)).Identifier())
	}
	assert.Equal(t, []string{"anon_0", "anon_1", "anon_2"}, ids)
}

func TestWrapConcurrently(t *testing.T) {
	t.Parallel()

	e := contextualize.MustNew[ctxT]("foo")
	mw := setter(t, e, "foo", 1)

	ids := make([]string, 16)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = e.MustWrap(mw).Identifier()
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, "anon_0", id)
	}
}

func TestWrapRejectsNil(t *testing.T) {
	t.Parallel()

	e := contextualize.MustNew[ctxT]("foo")

	_, err := e.Wrap(nil)
	assert.ErrorIs(t, err, contextualize.ErrNotCallable)

	_, err = e.WrapAs("x", nil)
	assert.ErrorIs(t, err, contextualize.ErrNotCallable)

	assert.Panics(t, func() { e.MustWrap(nil) })
}

func TestWrapAs(t *testing.T) {
	t.Parallel()

	e := contextualize.MustNew[ctxT]("foo")
	mw := setter(t, e, "foo", 1)

	u, err := e.WrapAs("loader", mw)
	require.NoError(t, err)
	assert.Equal(t, "loader", u.Identifier())
	assert.Equal(t, "loader", e.MustWrap(mw).Identifier())

	_, err = e.WrapAs("", mw)
	assert.ErrorIs(t, err, contextualize.ErrEmptyIdentifier)
}

func TestUUIDGenerator(t *testing.T) {
	t.Parallel()

	e := contextualize.MustNew[ctxT]("foo", contextualize.WithGenerator(contextualize.UUIDs("mw-")))

	first := e.MustWrap(setter(t, e, "foo", 1)).Identifier()
	second := e.MustWrap(setter(t, e, "foo", 2)).Identifier()

	pattern := regexp.MustCompile(`^mw-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	assert.Regexp(t, pattern, first)
	assert.Regexp(t, pattern, second)
	assert.NotEqual(t, first, second)
}

func TestSequence(t *testing.T) {
	t.Parallel()

	next := contextualize.Sequence("h")
	assert.Equal(t, "h0", next())
	assert.Equal(t, "h1", next())
	assert.Equal(t, "h2", next())
}

func TestIdentifyPolicy(t *testing.T) {
	t.Parallel()

	lenient := contextualize.MustNew[ctxT]("foo")
	strict := contextualize.MustNew[ctxT]("foo", contextualize.WithStrict())
	mw := setter(t, lenient, "foo", 1)

	id, err := lenient.Identify(mw)
	require.NoError(t, err)
	assert.Empty(t, id)

	_, err = strict.Identify(mw)
	assert.ErrorIs(t, err, contextualize.ErrNotIdentified)

	require.NoError(t, strict.Assign(mw, "tagged"))
	id, err = strict.Identify(mw)
	require.NoError(t, err)
	assert.Equal(t, "tagged", id)
}

func TestSideTable(t *testing.T) {
	t.Parallel()

	store := contextualize.NewSideTable()

	type token struct{ name string }
	ptr := &token{name: "a"}
	other := &token{name: "a"}
	m := map[string]int{}

	require.NoError(t, store.Assign(ptr, "ptr"))
	require.NoError(t, store.Assign(m, "map"))
	require.NoError(t, store.Assign("key", "string"))

	id, ok := store.Identify(ptr)
	assert.True(t, ok)
	assert.Equal(t, "ptr", id)

	_, ok = store.Identify(other)
	assert.False(t, ok, "pointers are keyed by address")

	id, ok = store.Identify(m)
	assert.True(t, ok)
	assert.Equal(t, "map", id)

	id, ok = store.Identify("key")
	assert.True(t, ok)
	assert.Equal(t, "string", id)

	require.NoError(t, store.Assign(ptr, "renamed"))
	id, _ = store.Identify(ptr)
	assert.Equal(t, "renamed", id)

	assert.ErrorIs(t, store.Assign([]int{1}, "slice"), contextualize.ErrUnidentifiable)
	assert.ErrorIs(t, store.Assign(nil, "nil"), contextualize.ErrUnidentifiable)
	assert.ErrorIs(t, store.Assign(ptr, ""), contextualize.ErrEmptyIdentifier)

	_, ok = store.Identify([]int{1})
	assert.False(t, ok)
}

// countingStore records assignments made through it.
type countingStore struct {
	contextualize.IdentifierStore
	mu      sync.Mutex
	assigns []string
}

func (s *countingStore) Assign(obj any, id string) error {
	s.mu.Lock()
	s.assigns = append(s.assigns, id)
	s.mu.Unlock()
	return s.IdentifierStore.Assign(obj, id)
}

func TestCustomIdentifierStore(t *testing.T) {
	t.Parallel()

	store := &countingStore{IdentifierStore: contextualize.NewSideTable()}
	e := contextualize.MustNew[ctxT]("foo", contextualize.WithIdentifiers(store))

	mw := setter(t, e, "foo", 1)
	e.MustWrap(mw)
	e.MustWrap(mw)
	e.MustWrap(audit)

	assert.Equal(t, []string{"anon_0", "audit"}, store.assigns)
}

func TestWrapUnitStage(t *testing.T) {
	t.Parallel()

	e := contextualize.MustNew[ctxT]("foo")
	u := e.MustWrap(setter(t, e, "foo", 1))

	again := e.MustWrap(u.Middleware())
	assert.Same(t, u, again)
	assert.Equal(t, "anon_0", again.Identifier())

	id, err := e.Identify(u.Middleware())
	require.NoError(t, err)
	assert.Equal(t, "anon_0", id)

	same, err := e.WrapAs("anon_0", u.Middleware())
	require.NoError(t, err)
	assert.Same(t, u, same)

	_, err = e.WrapAs("other", u.Middleware())
	assert.ErrorIs(t, err, contextualize.ErrAlreadyWrapped)

	group, err := e.Parallel(u.Middleware(), setter(t, e, "foo", 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"anon_0", "anon_1"}, group.Identifiers())
}

func TestWrapMethodValuesShareIdentifier(t *testing.T) {
	t.Parallel()

	e := contextualize.MustNew[ctxT]("foo")
	first := &fixture{t: t, engine: e}
	second := &fixture{t: t, engine: e}

	assert.Equal(t, "A", e.MustWrap(first.A).Identifier())
	assert.Equal(t, "A", e.MustWrap(second.A).Identifier())

	u, err := e.WrapAs("second.A", second.A)
	require.NoError(t, err)
	assert.Equal(t, "second.A", u.Identifier())
}

func TestWrapBuildsHandlerOnce(t *testing.T) {
	t.Parallel()

	e := contextualize.MustNew[ctxT]("foo")

	var mu sync.Mutex
	builds := 0
	counted := func(next nextT) nextT {
		mu.Lock()
		builds++
		mu.Unlock()
		return func(ctx ctxT) handler.Response {
			if err := e.Set(ctx, "foo", ctx.Request().URL.Path); err != nil {
				return handler.Error(err)
			}
			return next(ctx)
		}
	}
	u := e.MustWrap(counted)

	p := pipeline.New[ctxT]()
	p.Use(e.Root().Middleware(), u.Middleware())
	p.Handle(func(ctx ctxT) handler.Response {
		s, err := u.Retrieve(ctx)
		if err != nil {
			return handler.Error(err)
		}
		v, err := e.Get(ctx, "foo")
		if err != nil {
			return handler.Error(err)
		}
		path, outside := s.Bag()["foo"], v
		return func(w http.ResponseWriter, r *http.Request) error {
			if outside != nil {
				w.WriteHeader(http.StatusConflict)
				return nil
			}
			_, err := fmt.Fprint(w, path)
			return err
		}
	})

	for _, path := range []string{"/a", "/b", "/c"} {
		w := httptest.NewRecorder()
		p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, path, w.Body.String())
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, builds)
}
