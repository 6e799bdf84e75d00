// Package merge provides the recursive structural merge and clone used wherever
// event data crosses a boundary in the queue.
//
// Only map[string]any values are treated as mergeable maps. Everything else is
// a leaf: slices are cloned element-wise, scalars are copied by value, and the
// rightmost source always wins a leaf conflict.
package merge

import "reflect"

// Merge returns a new map holding the deep merge of every source, applied left
// to right. None of the sources are modified and the result shares no maps or
// slices with them.
//
//	Merge(map[string]any{"a": map[string]any{"x": 1}}, map[string]any{"a": map[string]any{"y": 2}})
//	// => {"a": {"x": 1, "y": 2}}
func Merge(sources ...map[string]any) map[string]any {
	return DeepMerge(make(map[string]any), sources...)
}

// DeepMerge merges every source into dst and returns dst. A nil dst is
// replaced with a fresh map. When both the existing and the incoming value for
// a key are maps they are merged recursively into a fresh map, so nested maps
// that dst already referenced are never mutated. Any other incoming value is
// cloned over the destination.
func DeepMerge(dst map[string]any, sources ...map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for _, src := range sources {
		for key, srcVal := range src {
			srcMap, srcIsMap := srcVal.(map[string]any)
			dstMap, dstIsMap := dst[key].(map[string]any)
			if srcIsMap && dstIsMap {
				dst[key] = Merge(dstMap, srcMap)
				continue
			}
			dst[key] = Clone(srcVal)
		}
	}
	return dst
}

// Copy returns a non-aliased copy of src. It never returns nil.
func Copy(src map[string]any) map[string]any {
	return Merge(src)
}

// Clone deep-copies a single value. Maps of type map[string]any are copied
// recursively, slices element-wise, and every other value is returned as is.
func Clone(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return Copy(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Clone(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = Copy(item)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return v
	}
	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i)
		cloned := Clone(item.Interface())
		if cloned == nil {
			continue
		}
		out.Index(i).Set(reflect.ValueOf(cloned))
	}
	return out.Interface()
}

// IsMap reports whether v is a bare key-value map and returns it.
func IsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}
