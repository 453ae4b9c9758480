package mumps

import (
	"strings"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// mCollationCompare implements M collation order: numeric strings sort
// before non-numeric strings, numeric strings compare by numeric value,
// non-numeric strings compare lexicographically by code unit. The empty
// string is treated as sorting before every other key; it is only ever
// used as a sentinel for $O's "start of iteration" argument, since the
// empty-string key itself is never stored.
func mCollationCompare(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	na, aNum := canonicalNumericKey(a)
	nb, bNum := canonicalNumericKey(b)
	switch {
	case aNum && bNum:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	case aNum && !bNum:
		return -1
	case !aNum && bNum:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// canonicalNumericKey reports whether s is a canonical numeric string --
// one that round-trips exactly through parse-then-render -- and if so
// returns its numeric value. Non-canonical numeric-looking strings (with
// leading zeros, a trailing decimal point, etc.) collate as ordinary
// strings, matching the M convention that only a key's canonical form is
// treated as numeric for subscript ordering purposes.
func canonicalNumericKey(s string) (float64, bool) {
	n, ok := parseNumberFull(s)
	if !ok {
		return 0, false
	}
	if numberToString(n) != s {
		return 0, false
	}
	return n, true
}

func rbComparator(a, b interface{}) int {
	return mCollationCompare(a.(string), b.(string))
}

// OrderedMap is a string-keyed associative map ordered by M collation,
// backed by a red-black tree for O(log n) insert/lookup/delete and O(log
// n) forward/backward neighbor queries -- avoids a naive re-sort-on-access
// implementation.
type OrderedMap struct {
	tree *redblacktree.Tree
}

// NewOrderedMap creates an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{tree: redblacktree.NewWith(rbComparator)}
}

// Get returns the value stored at key, if any.
func (m *OrderedMap) Get(key string) (Value, bool) {
	v, found := m.tree.Get(key)
	if !found {
		return nil, false
	}
	return v.(Value), true
}

// Put stores value at key, creating or overwriting the slot.
func (m *OrderedMap) Put(key string, value Value) {
	m.tree.Put(key, value)
}

// Delete removes key (and, since values here are whole subtrees, whatever
// it addresses) from the map.
func (m *OrderedMap) Delete(key string) {
	m.tree.Remove(key)
}

// Size returns the number of keys.
func (m *OrderedMap) Size() int {
	return m.tree.Size()
}

// Empty reports whether the map holds no keys.
func (m *OrderedMap) Empty() bool {
	return m.tree.Size() == 0
}

// Keys returns all keys in M collation order.
func (m *OrderedMap) Keys() []string {
	raw := m.tree.Keys()
	out := make([]string, len(raw))
	for i, k := range raw {
		out[i] = k.(string)
	}
	return out
}

// Next returns the key that follows from (exclusive) in M collation
// order, or ("", false) if from is the last key or the map is empty.
// from == "" means "start of iteration", matching $O(var("")).
func (m *OrderedMap) Next(from string) (string, bool) {
	if from == "" {
		node := m.tree.Left()
		if node == nil {
			return "", false
		}
		return node.Key.(string), true
	}
	node, _ := m.tree.Ceiling(from)
	if node == nil {
		return "", false
	}
	if mCollationCompare(node.Key.(string), from) == 0 {
		it := m.tree.IteratorAt(node)
		if !it.Next() {
			return "", false
		}
		return it.Key().(string), true
	}
	return node.Key.(string), true
}

// Prev returns the key that precedes from (exclusive) in M collation
// order, or ("", false) if from is the first key or the map is empty.
// from == "" means "start of reverse iteration", i.e. the last key.
func (m *OrderedMap) Prev(from string) (string, bool) {
	if from == "" {
		node := m.tree.Right()
		if node == nil {
			return "", false
		}
		return node.Key.(string), true
	}
	node, _ := m.tree.Floor(from)
	if node == nil {
		return "", false
	}
	if mCollationCompare(node.Key.(string), from) == 0 {
		it := m.tree.IteratorAt(node)
		if !it.Prev() {
			return "", false
		}
		return it.Key().(string), true
	}
	return node.Key.(string), true
}
