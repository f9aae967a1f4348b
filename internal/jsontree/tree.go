// Package jsontree walks decoded JSON values (map[string]any, []any and scalars)
// without knowing their shape in advance.
package jsontree

// Predicate reports whether a map entry is the one being searched for.
type Predicate func(key string, value any) bool

// RenameKey recursively renames every key equal to from into to.
// A level that already has a key named to is left unchanged so that an
// existing value is never overwritten. Maps are modified in place; the
// (possibly same) root is returned for convenience.
func RenameKey(v any, from, to string) any {
	switch node := v.(type) {
	case map[string]any:
		if val, ok := node[from]; ok {
			if _, exists := node[to]; !exists {
				delete(node, from)
				node[to] = val
			}
		}
		for k, child := range node {
			node[k] = RenameKey(child, from, to)
		}
		return node
	case []any:
		for i, child := range node {
			node[i] = RenameKey(child, from, to)
		}
		return node
	default:
		return v
	}
}

// FindFirst performs a depth-first search and returns the value of the first
// map entry accepted by match. At each map level the keys of that level are
// checked before descending, and sorted keys make the traversal deterministic.
func FindFirst(v any, match Predicate) (any, bool) {
	switch node := v.(type) {
	case map[string]any:
		keys := sortedKeys(node)
		for _, k := range keys {
			if match(k, node[k]) {
				return node[k], true
			}
		}
		for _, k := range keys {
			if found, ok := FindFirst(node[k], match); ok {
				return found, true
			}
		}
	case []any:
		for _, child := range node {
			if found, ok := FindFirst(child, match); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// ReplaceFirst locates the same entry FindFirst would and replaces its value
// with replacement. It reports whether a replacement took place.
func ReplaceFirst(v any, match Predicate, replacement any) bool {
	switch node := v.(type) {
	case map[string]any:
		keys := sortedKeys(node)
		for _, k := range keys {
			if match(k, node[k]) {
				node[k] = replacement
				return true
			}
		}
		for _, k := range keys {
			if ReplaceFirst(node[k], match, replacement) {
				return true
			}
		}
	case []any:
		for _, child := range node {
			if ReplaceFirst(child, match, replacement) {
				return true
			}
		}
	}
	return false
}

// KeyIs returns a predicate matching entries with the given key.
func KeyIs(key string) Predicate {
	return func(k string, _ any) bool { return k == key }
}

// KeyIsList returns a predicate matching entries with the given key whose
// value is a JSON array.
func KeyIsList(key string) Predicate {
	return func(k string, v any) bool {
		if k != key {
			return false
		}
		_, ok := v.([]any)
		return ok
	}
}
