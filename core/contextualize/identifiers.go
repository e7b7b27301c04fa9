package contextualize

import (
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
)

// IdentifierStore reads and writes the identifier attached to an object.
// Implementations must be safe for concurrent use.
type IdentifierStore interface {
	// Identify returns the identifier assigned to obj, if any.
	Identify(obj any) (string, bool)
	// Assign attaches id to obj, replacing any previous identifier.
	Assign(obj any, id string) error
}

// NewSideTable returns the default IdentifierStore. It keeps identifiers in
// a table owned by the store instead of mutating the tagged objects.
//
// Function values are keyed by their closure, so re-using one func value
// yields one identity while two closures from the same literal stay
// distinct. Other comparable values are keyed by value, maps by address.
// Slices and other non-comparable values cannot carry an identifier.
//
// The table holds a reference to every tagged object for its whole life and
// never shrinks. Wrap handlers once at startup; a method value evaluated per
// request is a new object each time and grows the table.
func NewSideTable() IdentifierStore {
	return &sideTable{entries: make(map[any]entry)}
}

type sideTable struct {
	mu      sync.RWMutex
	entries map[any]entry
}

// entry keeps ref alive so an address-based key is never reused by another object.
type entry struct {
	id  string
	ref any
}

// funcKey identifies a func value by code and closure.
type funcKey struct {
	code    uintptr
	closure uintptr
}

// mapKey identifies a map by type and address.
type mapKey struct {
	typ  reflect.Type
	addr uintptr
}

func (s *sideTable) Identify(obj any) (string, bool) {
	key, err := identityOf(obj)
	if err != nil {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	return e.id, ok
}

func (s *sideTable) Assign(obj any, id string) error {
	if id == "" {
		return ErrEmptyIdentifier
	}
	key, err := identityOf(obj)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{id: id, ref: obj}
	return nil
}

func identityOf(obj any) (any, error) {
	if obj == nil {
		return nil, fmt.Errorf("%w: nil", ErrUnidentifiable)
	}

	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Func:
		if v.IsNil() {
			return nil, fmt.Errorf("%w: nil func", ErrUnidentifiable)
		}
		return funcKey{code: v.Pointer(), closure: closureOf(obj)}, nil
	case reflect.Map:
		if v.IsNil() {
			return nil, fmt.Errorf("%w: nil map", ErrUnidentifiable)
		}
		return mapKey{typ: v.Type(), addr: v.Pointer()}, nil
	}

	if !v.Type().Comparable() {
		return nil, fmt.Errorf("%w: %T is not comparable", ErrUnidentifiable, obj)
	}
	return obj, nil
}

// closureOf returns the address of the closure record behind a func stored
// in an interface. reflect only exposes the code pointer, which every
// closure of one literal shares.
func closureOf(fn any) uintptr {
	return uintptr((*[2]unsafe.Pointer)(unsafe.Pointer(&fn))[1])
}

// handlerName derives an identifier from a function's runtime name.
// It returns "" for closures, which need a generated identifier.
//
//	github.com/acme/app.auth        -> auth
//	github.com/acme/app.(*T).Audit-fm -> Audit
//	github.com/acme/app.Stage[...]   -> Stage
//	github.com/acme/app.main.func1   -> ""
func handlerName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}

	name := strings.ReplaceAll(f.Name(), "[...]", "")
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	if isClosureName(name) {
		return ""
	}
	return name
}

// isClosureName reports names the compiler gives to function literals:
// "func3" for the third literal, a bare number for nested ones.
func isClosureName(name string) bool {
	if name == "" {
		return true
	}
	if _, err := strconv.Atoi(name); err == nil {
		return true
	}
	if rest, ok := strings.CutPrefix(name, "func"); ok {
		if _, err := strconv.Atoi(rest); err == nil {
			return true
		}
	}
	return false
}

// IDGenerator produces identifiers for anonymous handlers.
// Implementations must be safe for concurrent use and never repeat a value.
type IDGenerator func() string

// Sequence returns a generator producing prefix0, prefix1, ...
func Sequence(prefix string) IDGenerator {
	var n atomic.Uint64
	return func() string {
		return prefix + strconv.FormatUint(n.Add(1)-1, 10)
	}
}

// UUIDs returns a generator producing prefix followed by a random UUID.
// Useful when identifiers from several engines end up in one log stream.
func UUIDs(prefix string) IDGenerator {
	return func() string {
		return prefix + uuid.NewString()
	}
}
