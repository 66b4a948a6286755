package transport

import (
	"io"
	"sync/atomic"
)

type counter struct {
	n uint64
}

func (c *counter) Count() uint64 {
	return atomic.LoadUint64(&c.n)
}

func (c *counter) Reset() {
	atomic.StoreUint64(&c.n, 0)
}

func (c *counter) add(n int) {
	if n > 0 {
		atomic.AddUint64(&c.n, uint64(n))
	}
}

// CountingReader counts the bytes read through it. Count may be called from
// any goroutine.
type CountingReader struct {
	counter
	r io.Reader
}

func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{
		r: r,
	}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.add(n)
	return n, err
}

// CountingWriter counts the bytes written through it.
type CountingWriter struct {
	counter
	w io.Writer
}

func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{
		w: w,
	}
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.add(n)
	return n, err
}
