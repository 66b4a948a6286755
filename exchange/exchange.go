package exchange

import (
	"io"

	"github.com/ncbi/uttp/log"
	"github.com/ncbi/uttp/tree"
)

// Exchange sends and receives whole messages over one connection. Send and
// Receive may be used from two different goroutines, but neither is safe to
// call concurrently with itself.
type Exchange struct {
	enc *Encoder
	dec *Decoder
	lgr log.Logger
}

func New(rw io.ReadWriter, opts Options) *Exchange {
	return &Exchange{
		enc: NewEncoder(rw, opts),
		dec: NewDecoder(rw, opts),
		lgr: log.WithModule("exchange"),
	}
}

func (x *Exchange) Send(n tree.Node) error {
	before := x.enc.BytesWritten()
	if err := x.enc.Encode(n); err != nil {
		return err
	}
	x.lgr.Trace("sent message", "kind", kindOf(n), "bytes", x.enc.BytesWritten()-before)
	return nil
}

func (x *Exchange) SendValue(v interface{}) error {
	n, err := tree.FromValue(v)
	if err != nil {
		return err
	}
	return x.Send(n)
}

func (x *Exchange) Receive() (tree.Node, error) {
	before := x.dec.BytesRead()
	n, err := x.dec.Decode()
	if err != nil {
		return nil, err
	}
	x.lgr.Trace("received message", "kind", kindOf(n), "bytes", x.dec.BytesRead()-before)
	return n, nil
}

func (x *Exchange) BytesSent() uint64 {
	return x.enc.BytesWritten()
}

func (x *Exchange) BytesReceived() uint64 {
	return x.dec.BytesRead()
}

func kindOf(n tree.Node) tree.Kind {
	if n == nil {
		return tree.KindNull
	}
	return n.Kind()
}
