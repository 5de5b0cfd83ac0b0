// Package merge implements the value operations behind parameter trees:
// normalizing arbitrary Go values into JSON-compatible forms, deep cloning,
// and the shallow/recursive replace rules used when one tree is merged into
// another.
package merge

import (
	stdjson "encoding/json"
	"fmt"
	"reflect"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-params/internal/hydrate"
)

// Replace merges src into dst one level deep. Keys present in src overwrite
// keys in dst and keys only present in dst survive. Two sequences are merged
// index by index. Any other combination returns src unchanged.
//
// Neither argument is copied; callers pass values they own.
func Replace(dst, src any) any {
	return replace(dst, src, false)
}

// ReplaceRecursive behaves like Replace but descends into every key (or
// index) where both sides hold a container.
func ReplaceRecursive(dst, src any) any {
	return replace(dst, src, true)
}

func replace(dst, src any, recursive bool) any {
	switch incoming := src.(type) {
	case map[string]any:
		existing, ok := dst.(map[string]any)
		if !ok {
			return src
		}
		result := make(map[string]any, len(existing)+len(incoming))
		for key, value := range existing {
			result[key] = value
		}
		for key, value := range incoming {
			if current, found := result[key]; found && recursive && isContainer(value) {
				result[key] = replace(current, value, true)
				continue
			}
			result[key] = value
		}
		return result
	case []any:
		existing, ok := dst.([]any)
		if !ok {
			return src
		}
		size := len(existing)
		if len(incoming) > size {
			size = len(incoming)
		}
		result := make([]any, size)
		copy(result, existing)
		for i, value := range incoming {
			if i < len(existing) && recursive && isContainer(value) {
				result[i] = replace(existing[i], value, true)
				continue
			}
			result[i] = value
		}
		return result
	default:
		return src
	}
}

func isContainer(value any) bool {
	switch value.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

// Layers composes trees ordered from strongest to weakest. Stronger layers
// win key by key, recursively, and the inputs are left untouched.
func Layers(layers ...map[string]any) map[string]any {
	merged := map[string]any{}
	for i := len(layers) - 1; i >= 0; i-- {
		if len(layers[i]) == 0 {
			continue
		}
		merged = ReplaceRecursive(merged, Clone(layers[i])).(map[string]any)
	}
	return merged
}

// Clone deep copies maps and slices in a normalized tree. Scalars are
// returned as is.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		if typed == nil {
			return typed
		}
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = Clone(item)
		}
		return out
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Clone(item)
		}
		return out
	default:
		return value
	}
}

// CloneMap is Clone for a root mapping. A nil input yields an empty map.
func CloneMap(tree map[string]any) map[string]any {
	if tree == nil {
		return map[string]any{}
	}
	return Clone(tree).(map[string]any)
}

// Normalize converts value into the forms produced by JSON decoding:
// map[string]any, []any, string, bool, numbers and nil. Typed maps and
// slices are rebuilt, pointers are dereferenced and structs go through a
// JSON round trip so their tags are honoured. The result never aliases the
// input's containers.
func Normalize(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, stdjson.Number:
		return typed
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Normalize(item)
		}
		return out
	}
	return normalizeValue(reflect.ValueOf(value))
}

func normalizeValue(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		if _, ok := v.Interface().(stdjson.Marshaler); ok {
			return roundTrip(v.Interface())
		}
		return normalizeValue(v.Elem())
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = normalizeValue(iter.Value())
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return roundTrip(v.Interface())
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = normalizeValue(v.Index(i))
		}
		return out
	case reflect.Struct:
		return roundTrip(v.Interface())
	default:
		return nil
	}
}

func mapKey(key reflect.Value) string {
	switch key.Kind() {
	case reflect.String:
		return key.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(key.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(key.Uint(), 10)
	default:
		return fmt.Sprint(key.Interface())
	}
}

func roundTrip(value any) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	out, err := hydrate.NewDecoder().DecodeValue(raw)
	if err != nil {
		return nil
	}
	return out
}
