package uttp

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// drain collects every buffer a writer returned plus its final flush.
type drain struct {
	bufs [][]byte
}

func (d *drain) add(buf []byte) {
	if buf != nil {
		d.bufs = append(d.bufs, buf)
	}
}

func (d *drain) bytes() []byte {
	return bytes.Join(d.bufs, nil)
}

func TestWriter_Numbers(t *testing.T) {
	tests := []struct {
		in  int64
		exp string
	}{
		{0, "0="},
		{-5, "5-"},
		{42, "42="},
		{math.MaxInt64, "9223372036854775807="},
		{math.MinInt64, "9223372036854775808-"},
	}
	for _, tt := range tests {
		w := NewWriter(64)
		require.Nil(t, w.SendNumber(tt.in))
		require.Equal(t, tt.exp, string(w.FlushBuf()))
	}
}

func TestWriter_Chunk(t *testing.T) {
	w := NewWriter(64)
	require.Nil(t, w.SendChunk([]byte("hello"), false))
	require.Nil(t, w.SendChunk([]byte("ab"), true))
	require.Nil(t, w.SendChunk(nil, false))
	require.Equal(t, "5 hello2+ab0 ", string(w.FlushBuf()))
	require.Equal(t, 0, w.Buffered())
}

func TestWriter_ChunkHeaderStaysWithPreviousBuffer(t *testing.T) {
	w := NewWriter(8)
	require.Nil(t, w.SendControlSymbol('['))
	body := bytes.Repeat([]byte{'x'}, 20)
	out := w.SendChunk(body, false)
	require.Equal(t, "[20 ", string(out))
	require.Equal(t, 20, w.Buffered())
	out = w.SendControlSymbol(']')
	require.Equal(t, body, out)
	require.Equal(t, "]", string(w.FlushBuf()))
}

func TestWriter_ControlSymbolFlushesAtThreshold(t *testing.T) {
	w := NewWriter(4)
	for _, c := range []byte("[[[[") {
		require.Nil(t, w.SendControlSymbol(c))
	}
	out := w.SendControlSymbol(']')
	require.Equal(t, "[[[[", string(out))
	require.Equal(t, "]", string(w.FlushBuf()))
}

func TestWriter_RawDataAndNumbersRestart(t *testing.T) {
	w := NewWriter(4)
	require.Nil(t, w.SendRawData([]byte("abc")))
	out := w.SendNumber(12)
	require.Equal(t, "abc", string(out))
	require.Equal(t, "12=", string(w.FlushBuf()))

	// an empty accumulator takes oversized data without handing back an
	// empty buffer
	require.Nil(t, w.SendRawData([]byte("0123456789")))
	require.Equal(t, "0123456789", string(w.FlushBuf()))
}

func TestWriter_FlushEmpty(t *testing.T) {
	w := NewWriter(0)
	require.Equal(t, DefaultMinBufSize, w.MinBufSize())
	require.Len(t, w.FlushBuf(), 0)
}

func TestWriter_ReturnedBuffersAreNotReused(t *testing.T) {
	w := NewWriter(4)
	var d drain
	d.add(w.SendChunk([]byte("abcdef"), false))
	first := append([]byte(nil), d.bufs[0]...)
	d.add(w.SendChunk([]byte("ghijkl"), false))
	d.add(w.FlushBuf())
	require.Equal(t, first, d.bufs[0])
	require.Equal(t, "6 abcdef6 ghijkl", string(d.bytes()))
}

func TestWriterReader_RoundTrip(t *testing.T) {
	for _, size := range []int{1, 3, 16, 8192} {
		w := NewWriter(size)
		var d drain
		d.add(w.SendControlSymbol('{'))
		d.add(w.SendChunk([]byte("key"), false))
		d.add(w.SendControlSymbol('['))
		d.add(w.SendNumber(-7))
		d.add(w.SendNumber(0))
		d.add(w.SendChunk([]byte("part"), true))
		d.add(w.SendChunk([]byte("end"), false))
		d.add(w.SendControlSymbol(']'))
		d.add(w.SendControlSymbol('}'))
		d.add(w.SendControlSymbol('\n'))
		d.add(w.FlushBuf())

		toks := readAll(t, d.bufs...)
		require.Equal(t, []Token{
			{Kind: ControlSymbol, Symbol: '{'},
			{Kind: Chunk, Data: []byte("key")},
			{Kind: ControlSymbol, Symbol: '['},
			{Kind: Number, Number: -7},
			{Kind: Number, Number: 0},
			{Kind: Chunk, Data: []byte("partend")},
			{Kind: ControlSymbol, Symbol: ']'},
			{Kind: ControlSymbol, Symbol: '}'},
			{Kind: ControlSymbol, Symbol: '\n'},
		}, toks, "min buf size %d", size)
	}
}
