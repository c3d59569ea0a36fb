// Package jsonutil contains helpers for working with generic JSON trees
// decoded into map[string]any.
package jsonutil

// Merge merges src into dst in place and returns dst.
//
// Keys present only in src are added. When both sides hold an object
// (map[string]any) the two are merged recursively; any other src value
// replaces the dst value, so arrays and scalars are never combined.
// Objects and arrays copied out of src are cloned, so later changes to
// dst never write through to the caller's src.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, sv := range src {
		srcObj, srcIsObj := sv.(map[string]any)
		if !srcIsObj {
			dst[k] = cloneValue(sv)
			continue
		}
		if dstObj, ok := dst[k].(map[string]any); ok {
			dst[k] = Merge(dstObj, srcObj)
			continue
		}
		dst[k] = Clone(srcObj)
	}
	return dst
}

// Clone returns a deep copy of the object tree in m. Arrays are copied
// element by element; scalars are shared.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
