// Package tree defines the in-memory value model exchanged as UTTP messages.
//
// A Node is one of a closed set of variants: Null, Bool, Int, Float, String,
// Bytes, Seq and Map. Code that handles nodes switches over the concrete
// types; the unexported marker method keeps other packages from adding
// variants.
package tree

import (
	"math"
	"sort"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindSeq
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindSeq:
		return "seq"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

type Node interface {
	Kind() Kind
	node()
}

type (
	Null   struct{}
	Bool   bool
	Int    int64
	Float  float64
	String string
	// Bytes is a binary-significant value. It is sent exactly like a String
	// and is only produced on receive for keys configured as binary.
	Bytes []byte
	Seq   []Node
	Map   map[string]Node
)

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (String) Kind() Kind { return KindString }
func (Bytes) Kind() Kind  { return KindBytes }
func (Seq) Kind() Kind    { return KindSeq }
func (Map) Kind() Kind    { return KindMap }

func (Null) node()   {}
func (Bool) node()   {}
func (Int) node()    {}
func (Float) node()  {}
func (String) node() {}
func (Bytes) node()  {}
func (Seq) node()    {}
func (Map) node()    {}

// SortedKeys returns the keys of m in byte order.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether a and b are the same tree. Floats are compared by
// their bit patterns, so NaN equals NaN and 0.0 does not equal -0.0. A nil
// Node is treated as Null.
func Equal(a, b Node) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Int:
		return av == b.(Int)
	case Float:
		return math.Float64bits(float64(av)) == math.Float64bits(float64(b.(Float)))
	case String:
		return av == b.(String)
	case Bytes:
		return string(av) == string(b.(Bytes))
	case Seq:
		bv := b.(Seq)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv := b.(Map)
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		panic("tree: unknown node type")
	}
}
