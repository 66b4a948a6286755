package tree

import (
	"fmt"
	"math"
	"reflect"
)

// InputError reports a Go value that cannot be represented as a tree.
type InputError struct {
	Path   string
	Reason string
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("tree: %s", e.Reason)
	}
	return fmt.Sprintf("tree: %s at %s", e.Reason, e.Path)
}

// FromValue converts plain Go values into a tree. Maps must have string keys.
// Values that are none of the supported kinds but implement fmt.Stringer are
// sent as their string form.
func FromValue(v interface{}) (Node, error) {
	return fromValue(v, "")
}

func fromValue(v interface{}, path string) (Node, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Node:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		return fromUint(uint64(val), path)
	case uint64:
		return fromUint(val, path)
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case string:
		return String(val), nil
	case []byte:
		return Bytes(val), nil
	case []interface{}:
		out := make(Seq, len(val))
		for i, item := range val {
			n, err := fromValue(item, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]interface{}:
		out := make(Map, len(val))
		for k, item := range val {
			n, err := fromValue(item, keyPath(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	}

	return fromReflect(reflect.ValueOf(v), path)
}

func fromReflect(rv reflect.Value, path string) (Node, error) {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		if s, ok := rv.Interface().(fmt.Stringer); ok && rv.Kind() == reflect.Ptr && rv.Elem().Kind() == reflect.Struct {
			return String(s.String()), nil
		}
		return fromValue(rv.Elem().Interface(), path)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Seq{}, nil
		}
		out := make(Seq, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			n, err := fromValue(rv.Index(i).Interface(), indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		out := make(Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key()
			for k.Kind() == reflect.Interface && !k.IsNil() {
				k = k.Elem()
			}
			if k.Kind() != reflect.String {
				return nil, &InputError{
					Path:   path,
					Reason: fmt.Sprintf("map key %v of type %s is not a string", iter.Key().Interface(), k.Type()),
				}
			}
			key := k.String()
			n, err := fromValue(iter.Value().Interface(), keyPath(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fromUint(rv.Uint(), path)
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	}

	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return String(s.String()), nil
	}
	return nil, &InputError{
		Path:   path,
		Reason: fmt.Sprintf("unsupported type %s", rv.Type()),
	}
}

func fromUint(u uint64, path string) (Node, error) {
	if u > math.MaxInt64 {
		return nil, &InputError{
			Path:   path,
			Reason: fmt.Sprintf("integer %d overflows int64", u),
		}
	}
	return Int(u), nil
}

// ToValue converts a tree into plain Go values: nil, bool, int64, float64,
// string, []byte, []interface{} and map[string]interface{}.
func ToValue(n Node) interface{} {
	switch v := n.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case String:
		return string(v)
	case Bytes:
		return []byte(v)
	case Seq:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = ToValue(item)
		}
		return out
	case Map:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = ToValue(item)
		}
		return out
	default:
		panic("tree: unknown node type")
	}
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func keyPath(path string, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
