package cli

import (
	"bytes"
	"io"

	json "github.com/goccy/go-json"
	"github.com/ncbi/uttp/tree"
	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
)

// DecodeJSON parses a single JSON document into a tree. Comments and trailing
// commas are allowed. Integral numbers that fit in an int64 become tree.Int;
// every other number becomes tree.Float.
func DecodeJSON(data []byte) (tree.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "error decoding JSON")
	}
	var extra interface{}
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, errors.New("error decoding JSON: more than one value")
	}
	return tree.FromValue(unwrapNumbers(v))
}

func unwrapNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case []interface{}:
		for i := range t {
			t[i] = unwrapNumbers(t[i])
		}
		return t
	case map[string]interface{}:
		for k := range t {
			t[k] = unwrapNumbers(t[k])
		}
		return t
	default:
		return v
	}
}

// EncodeJSON writes n as indented JSON. Bytes are written as base64 strings.
func EncodeJSON(w io.Writer, n tree.Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree.ToValue(n)); err != nil {
		return errors.Wrap(err, "error encoding JSON")
	}
	return nil
}
