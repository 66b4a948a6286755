package uttp

import (
	"strconv"
)

const DefaultMinBufSize = 8192

// Writer accumulates encoded tokens. Each Send method returns a non-nil
// buffer when the accumulator was handed off; that buffer then belongs to the
// caller and should be written out as is.
type Writer struct {
	buf        []byte
	minBufSize int
}

func NewWriter(minBufSize int) *Writer {
	if minBufSize <= 0 {
		minBufSize = DefaultMinBufSize
	}
	return &Writer{
		buf:        make([]byte, 0, minBufSize),
		minBufSize: minBufSize,
	}
}

func (w *Writer) MinBufSize() int {
	return w.minBufSize
}

// Buffered returns the number of bytes waiting in the accumulator.
func (w *Writer) Buffered() int {
	return len(w.buf)
}

func (w *Writer) SendControlSymbol(symbol byte) []byte {
	if len(w.buf) < w.minBufSize {
		w.buf = append(w.buf, symbol)
		return nil
	}
	return w.restart([]byte{symbol})
}

// SendChunk writes one chunk. The length header always stays with the data
// already accumulated; only the body may start a new buffer.
func (w *Writer) SendChunk(chunk []byte, continued bool) []byte {
	w.buf = strconv.AppendInt(w.buf, int64(len(chunk)), 10)
	if continued {
		w.buf = append(w.buf, '+')
	} else {
		w.buf = append(w.buf, ' ')
	}
	if len(w.buf)+len(chunk) <= w.minBufSize {
		w.buf = append(w.buf, chunk...)
		return nil
	}
	return w.restart(chunk)
}

func (w *Writer) SendRawData(data []byte) []byte {
	return w.appendOrRestart(data)
}

func (w *Writer) SendNumber(n int64) []byte {
	var scratch [21]byte
	var enc []byte
	if n < 0 {
		// -(n+1)+1 avoids overflowing on math.MinInt64
		enc = strconv.AppendUint(scratch[:0], uint64(-(n+1))+1, 10)
		enc = append(enc, '-')
	} else {
		enc = strconv.AppendUint(scratch[:0], uint64(n), 10)
		enc = append(enc, '=')
	}
	return w.appendOrRestart(enc)
}

// FlushBuf hands off whatever has been accumulated, possibly nothing.
func (w *Writer) FlushBuf() []byte {
	out := w.buf
	w.buf = make([]byte, 0, w.minBufSize)
	return out
}

func (w *Writer) appendOrRestart(data []byte) []byte {
	if len(w.buf) == 0 || len(w.buf)+len(data) <= w.minBufSize {
		w.buf = append(w.buf, data...)
		return nil
	}
	return w.restart(data)
}

func (w *Writer) restart(data []byte) []byte {
	out := w.buf
	size := w.minBufSize
	if len(data) > size {
		size = len(data)
	}
	w.buf = make([]byte, len(data), size)
	copy(w.buf, data)
	return out
}
