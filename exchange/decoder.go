package exchange

import (
	"io"

	"github.com/ncbi/uttp/tree"
)

// Decoder reads UTTP messages from an io.Reader, refilling its buffer each
// time the parser runs out of input.
type Decoder struct {
	r   io.Reader
	p   *Parser
	buf []byte
}

func NewDecoder(r io.Reader, opts Options) *Decoder {
	opts = opts.withDefaults()
	return &Decoder{
		r:   r,
		p:   NewParser(opts),
		buf: make([]byte, opts.ReadBufferSize),
	}
}

// BytesRead returns the number of bytes consumed from the stream.
func (d *Decoder) BytesRead() uint64 {
	return d.p.Offset()
}

// Decode blocks until a whole message has been read. io.EOF is returned only
// when the stream ends between messages; ending mid-message yields
// io.ErrUnexpectedEOF.
func (d *Decoder) Decode() (tree.Node, error) {
	for {
		n, err := d.r.Read(d.buf)
		if n > 0 {
			node, complete, perr := d.p.Feed(d.buf[:n])
			if perr != nil {
				return nil, perr
			}
			if complete {
				return node, nil
			}
		}
		if err == io.EOF && d.p.InProgress() {
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}
	}
}
