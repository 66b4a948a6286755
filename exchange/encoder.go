package exchange

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ncbi/uttp/tree"
	"github.com/ncbi/uttp/uttp"
)

// Control symbols of the message layer.
const (
	SymListOpen  = '['
	SymListClose = ']'
	SymMapOpen   = '{'
	SymMapClose  = '}'
	SymTrue      = 'Y'
	SymFalse     = 'N'
	SymNull      = 'U'
	// SymFloatBE and SymFloatLE prefix 8 raw bytes of an IEEE-754 double in
	// big- and little-endian order respectively.
	SymFloatBE   = 'D'
	SymFloatLE   = 'd'
	EndOfMessage = '\n'
)

// hostFloatSymbol and hostByteOrder describe how this process sends doubles.
// Receivers accept either prefix.
var (
	hostFloatSymbol byte
	hostByteOrder   binary.ByteOrder
)

func init() {
	var probe [2]byte
	binary.NativeEndian.PutUint16(probe[:], 1)
	if probe[0] == 1 {
		hostFloatSymbol = SymFloatLE
		hostByteOrder = binary.LittleEndian
	} else {
		hostFloatSymbol = SymFloatBE
		hostByteOrder = binary.BigEndian
	}
}

// Encoder writes trees to an io.Writer as UTTP messages. Map keys are sent in
// sorted order so equal trees always produce the same bytes.
type Encoder struct {
	w            io.Writer
	uw           *uttp.Writer
	maxChunkSize int
	floatSymbol  byte
	floatOrder   binary.ByteOrder
	written      uint64
	err          error
}

func NewEncoder(w io.Writer, opts Options) *Encoder {
	opts = opts.withDefaults()
	return &Encoder{
		w:            w,
		uw:           uttp.NewWriter(opts.FlushThreshold),
		maxChunkSize: opts.MaxChunkSize,
		floatSymbol:  hostFloatSymbol,
		floatOrder:   hostByteOrder,
	}
}

// BytesWritten returns the number of bytes handed to the underlying writer.
func (e *Encoder) BytesWritten() uint64 {
	return e.written
}

// Encode sends n followed by the end-of-message symbol and flushes. A failed
// write leaves the stream in an unknown state, so the error is returned by
// every later call.
func (e *Encoder) Encode(n tree.Node) error {
	if e.err != nil {
		return e.err
	}
	if err := e.encodeNode(n); err != nil {
		e.err = err
		return err
	}
	if err := e.emit(e.uw.SendControlSymbol(EndOfMessage)); err != nil {
		e.err = err
		return err
	}
	if err := e.emit(e.uw.FlushBuf()); err != nil {
		e.err = err
		return err
	}
	return nil
}

// EncodeValue converts v with tree.FromValue and encodes the result. Nothing
// is written when the conversion fails.
func (e *Encoder) EncodeValue(v interface{}) error {
	n, err := tree.FromValue(v)
	if err != nil {
		return err
	}
	return e.Encode(n)
}

func (e *Encoder) encodeNode(n tree.Node) error {
	switch v := n.(type) {
	case nil, tree.Null:
		return e.emit(e.uw.SendControlSymbol(SymNull))
	case tree.Bool:
		if v {
			return e.emit(e.uw.SendControlSymbol(SymTrue))
		}
		return e.emit(e.uw.SendControlSymbol(SymFalse))
	case tree.Int:
		return e.emit(e.uw.SendNumber(int64(v)))
	case tree.Float:
		if err := e.emit(e.uw.SendControlSymbol(e.floatSymbol)); err != nil {
			return err
		}
		var raw [8]byte
		e.floatOrder.PutUint64(raw[:], math.Float64bits(float64(v)))
		return e.emit(e.uw.SendRawData(raw[:]))
	case tree.String:
		return e.sendChunked([]byte(v))
	case tree.Bytes:
		return e.sendChunked(v)
	case tree.Seq:
		if err := e.emit(e.uw.SendControlSymbol(SymListOpen)); err != nil {
			return err
		}
		for _, item := range v {
			if err := e.encodeNode(item); err != nil {
				return err
			}
		}
		return e.emit(e.uw.SendControlSymbol(SymListClose))
	case tree.Map:
		if err := e.emit(e.uw.SendControlSymbol(SymMapOpen)); err != nil {
			return err
		}
		for _, k := range v.SortedKeys() {
			if err := e.sendChunked([]byte(k)); err != nil {
				return err
			}
			if err := e.encodeNode(v[k]); err != nil {
				return err
			}
		}
		return e.emit(e.uw.SendControlSymbol(SymMapClose))
	default:
		panic("exchange: unknown node type")
	}
}

// sendChunked splits data into continued parts of at most maxChunkSize
// bytes followed by a final chunk.
func (e *Encoder) sendChunked(data []byte) error {
	for len(data) > e.maxChunkSize {
		if err := e.emit(e.uw.SendChunk(data[:e.maxChunkSize], true)); err != nil {
			return err
		}
		data = data[e.maxChunkSize:]
	}
	return e.emit(e.uw.SendChunk(data, false))
}

func (e *Encoder) emit(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := e.w.Write(buf)
	e.written += uint64(n)
	return err
}
