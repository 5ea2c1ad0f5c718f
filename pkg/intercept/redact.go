package intercept

import (
	"reflect"
	"strings"
)

// MaskToken replaces the value of every redacted field in log output.
const MaskToken = "[REDACTED]"

// redact returns a copy of v with every field whose name matches one of
// the sensitive names (case-insensitive) replaced by MaskToken. Maps,
// slices, structs and pointers are walked recursively; scalars pass
// through untouched. The input is never mutated.
func redact(v any, sensitive []string) any {
	if len(sensitive) == 0 || v == nil {
		return v
	}
	names := make(map[string]struct{}, len(sensitive))
	for _, n := range sensitive {
		names[strings.ToLower(n)] = struct{}{}
	}
	return redactValue(reflect.ValueOf(v), names)
}

func redactValue(rv reflect.Value, names map[string]struct{}) any {
	switch rv.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return redactValue(rv.Elem(), names)
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := stringify(iter.Key())
			if _, hit := names[strings.ToLower(key)]; hit {
				out[key] = MaskToken
				continue
			}
			out[key] = redactValue(iter.Value(), names)
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = redactValue(rv.Index(i), names)
		}
		return out
	case reflect.Struct:
		t := rv.Type()
		out := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := jsonFieldName(f)
			if _, hit := names[strings.ToLower(name)]; hit {
				out[name] = MaskToken
				continue
			}
			out[name] = redactValue(rv.Field(i), names)
		}
		return out
	default:
		return rv.Interface()
	}
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return f.Name
	}
	return tag
}

func stringify(rv reflect.Value) string {
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	if rv.CanInterface() {
		if s, ok := rv.Interface().(interface{ String() string }); ok {
			return s.String()
		}
	}
	return rv.Type().String()
}
