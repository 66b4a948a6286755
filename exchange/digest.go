package exchange

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/ncbi/uttp/tree"
	"golang.org/x/crypto/blake2b"
)

type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Digest hashes the canonical encoding of n with BLAKE2b-256. The canonical
// encoding always uses big-endian doubles, so the digest does not depend on
// the host.
func Digest(n tree.Node) (Hash, error) {
	// never returns an error if key is nil
	h, _ := blake2b.New256(nil)
	enc := NewEncoder(h, DefaultOptions())
	enc.floatSymbol = SymFloatBE
	enc.floatOrder = binary.BigEndian
	if err := enc.Encode(n); err != nil {
		return Hash{}, err
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out, nil
}
