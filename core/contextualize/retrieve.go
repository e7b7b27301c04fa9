package contextualize

import (
	"encoding/json"
	"maps"
)

// Selector picks part of a request namespace for Retrieve.
// *Unit, ID and IDs implement it.
type Selector interface {
	selection() (ids []string, group bool)
}

// ID selects the bag of one identifier.
type ID string

func (id ID) selection() ([]string, bool) {
	return []string{string(id)}, false
}

// IDs selects the bags of several identifiers.
type IDs []string

func (ids IDs) selection() ([]string, bool) {
	return ids, true
}

func (u *Unit[C]) selection() ([]string, bool) {
	return u.ids, u.group
}

// Slice is a retrieved part of a request namespace: one bag, or a tree of
// bags keyed by identifier. Its maps are copies of the namespace.
type Slice struct {
	tree   Tree
	id     string
	single bool
}

// Bag returns the selected bag. It is nil for group selections and for
// identifiers that never ran.
func (s Slice) Bag() Bag {
	if !s.single {
		return nil
	}
	return s.tree[s.id]
}

// Tree returns the selected bags keyed by identifier.
func (s Slice) Tree() Tree {
	return s.tree
}

// Group reports whether the slice holds a tree rather than one bag.
func (s Slice) Group() bool {
	return !s.single
}

// MarshalJSON encodes the bag for single selections and the tree otherwise.
func (s Slice) MarshalJSON() ([]byte, error) {
	if s.single {
		return json.Marshal(s.Bag())
	}
	return json.Marshal(s.tree)
}

// Retrieve returns part of the request namespace.
//
// Without selectors it returns the whole tree. A unit wrapping one handler,
// or an ID, yields that handler's bag. Groups, IDs and several selectors
// yield a tree restricted to the selected identifiers. The root unit
// selects the whole tree.
func (e *Engine[C]) Retrieve(ctx C, sel ...Selector) (Slice, error) {
	st, err := e.namespace(ctx)
	if err != nil {
		return Slice{}, err
	}

	whole := len(sel) == 0
	group := len(sel) > 1
	var ids []string
	for _, s := range sel {
		sIDs, sGroup := s.selection()
		if len(sIDs) == 0 && !sGroup {
			whole = true
		}
		ids = append(ids, sIDs...)
		group = group || sGroup
	}

	switch {
	case whole:
		return Slice{tree: cloneTree(st.tree)}, nil
	case group:
		return Slice{tree: copyTree(st.tree, ids)}, nil
	default:
		return Slice{tree: copyTree(st.tree, ids), id: ids[0], single: true}, nil
	}
}

// RetrieveHandler returns the bag of the handler obj. A handler without an
// identifier yields an empty slice, or ErrNotIdentified under the strict policy.
func (e *Engine[C]) RetrieveHandler(ctx C, obj any) (Slice, error) {
	id, err := e.Identify(obj)
	if err != nil {
		return Slice{}, err
	}
	if _, err := e.namespace(ctx); err != nil {
		return Slice{}, err
	}
	if id == "" {
		return Slice{tree: Tree{}, single: true}, nil
	}
	return e.Retrieve(ctx, ID(id))
}

func cloneTree(src Tree) Tree {
	out := make(Tree, len(src))
	for id, b := range src {
		out[id] = maps.Clone(b)
	}
	return out
}

// copyTree copies the bags of ids. Identifiers without a bag are left out.
func copyTree(src Tree, ids []string) Tree {
	out := make(Tree, len(ids))
	for _, id := range ids {
		if b, ok := src[id]; ok {
			out[id] = maps.Clone(b)
		}
	}
	return out
}
