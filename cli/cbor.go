package cli

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/ncbi/uttp/tree"
	"github.com/pkg/errors"
)

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// EncodeCBOR renders n with deterministic CBOR encoding.
func EncodeCBOR(n tree.Node) ([]byte, error) {
	data, err := cborEncMode.Marshal(tree.ToValue(n))
	if err != nil {
		return nil, errors.Wrap(err, "error encoding CBOR")
	}
	return data, nil
}

// DecodeCBOR parses a single CBOR item into a tree.
func DecodeCBOR(data []byte) (tree.Node, error) {
	var v interface{}
	if err := cborDecMode.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "error decoding CBOR")
	}
	return tree.FromValue(v)
}
