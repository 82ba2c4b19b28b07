package loader

import "strings"

// Namespace is a read-only object graph the verifier walks. Lookup returns
// the child value for key and whether it is present. Nil values count as
// absent.
type Namespace interface {
	Lookup(key string) (any, bool)
}

// MapNamespace adapts a plain map to the Namespace interface. Nested
// map[string]any values are walked transparently.
type MapNamespace map[string]any

// Lookup implements Namespace.
func (m MapNamespace) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Exists reports whether the dotted/bracketed path resolves to a non-nil
// value under root. An empty path means there is nothing to verify and is
// always true. Any missing or nil intermediate makes the whole path false;
// the walk never panics.
func Exists(path string, root Namespace) bool {
	segments := splitPath(path)
	if len(segments) == 0 {
		return true
	}

	var cur any = root
	for _, seg := range segments {
		ns, ok := asNamespace(cur)
		if !ok {
			return false
		}
		v, ok := ns.Lookup(seg)
		if !ok || v == nil {
			return false
		}
		cur = v
	}
	return true
}

// asNamespace coerces a walked value into something that can be looked
// into. Leaf values (numbers, strings, booleans) terminate the walk.
func asNamespace(v any) (Namespace, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case Namespace:
		return t, true
	case map[string]any:
		return MapNamespace(t), true
	default:
		return nil, false
	}
}

// splitPath breaks "a.b" / `a["b"]` / "a[b]" into segments. Empty
// segments are skipped so a trailing dot does not fail verification on
// its own.
func splitPath(path string) []string {
	var segments []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			segments = append(segments, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '.':
			flush()
		case '[':
			flush()
			j := strings.IndexByte(path[i:], ']')
			if j < 0 {
				// Unterminated bracket: take the rest as one segment.
				j = len(path) - i
			}
			seg := strings.Trim(path[i+1:i+j], `"'`)
			if seg != "" {
				segments = append(segments, seg)
			}
			i += j
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return segments
}
