package cli

import (
	"io"

	"github.com/ncbi/uttp/tree"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DecodeYAML parses a single YAML document into a tree. Mappings must have
// string keys.
func DecodeYAML(data []byte) (tree.Node, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "error decoding YAML")
	}
	return tree.FromValue(v)
}

func EncodeYAML(w io.Writer, n tree.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tree.ToValue(n)); err != nil {
		return errors.Wrap(err, "error encoding YAML")
	}
	return enc.Close()
}
