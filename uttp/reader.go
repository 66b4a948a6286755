package uttp

import (
	"math"
)

// state is the reader's phase. Each phase carries only the data that is
// meaningful while it is active.
type state interface {
	isState()
}

// controlChars waits for either a control symbol or the first digit of a
// length/number.
type controlChars struct{}

// chunkLength accumulates the digits of a chunk length or number.
type chunkLength struct {
	acc uint64
}

// chunkBody copies the bytes of a chunk whose length has been read.
type chunkBody struct {
	remaining uint64
	continued bool
}

func (controlChars) isState() {}
func (chunkLength) isState()  {}
func (chunkBody) isState()    {}

// Reader is a resumable UTTP tokenizer. It never reads from anything itself:
// input is supplied with SetNewBuf and the reader returns an EndOfBuffer
// token whenever the current buffer is used up.
type Reader struct {
	state  state
	buf    []byte
	pos    int
	offset uint64
	err    error
}

func NewReader() *Reader {
	return &Reader{
		state: controlChars{},
	}
}

// SetNewBuf replaces the input buffer. Partially parsed state is kept.
func (r *Reader) SetNewBuf(buf []byte) {
	r.buf = buf
	r.pos = 0
}

// Offset returns the number of bytes consumed since the reader was created.
func (r *Reader) Offset() uint64 {
	return r.offset
}

// Buffered returns the number of bytes of the current buffer that have not
// been consumed yet.
func (r *Reader) Buffered() int {
	return len(r.buf) - r.pos
}

// Reset drops any partial state and the current buffer. The offset keeps
// counting.
func (r *Reader) Reset() {
	r.state = controlChars{}
	r.buf = nil
	r.pos = 0
	r.err = nil
}

// ReadRawData makes the next n bytes of the stream come back as a chunk
// without a length prefix. It is only valid between tokens.
func (r *Reader) ReadRawData(n int) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.state.(controlChars); !ok {
		return ErrRawDataPhase
	}
	if n < 0 {
		return ErrNumberRange
	}
	r.state = chunkBody{
		remaining: uint64(n),
	}
	return nil
}

// NextEvent returns the next token. Once a FormatError has been returned the
// same error is returned by every later call.
func (r *Reader) NextEvent() (Token, error) {
	if r.err != nil {
		return Token{}, r.err
	}
	for {
		tok, ok, err := r.step()
		if err != nil {
			r.err = err
			return Token{}, err
		}
		if ok {
			return tok, nil
		}
	}
}

// step performs a single state transition. It reports ok=false when the
// transition consumed input without completing a token.
func (r *Reader) step() (Token, bool, error) {
	switch st := r.state.(type) {
	case controlChars:
		if r.exhausted() {
			return Token{Kind: EndOfBuffer}, true, nil
		}
		c := r.consume()
		if !isDigit(c) {
			return Token{Kind: ControlSymbol, Symbol: c}, true, nil
		}
		r.state = chunkLength{acc: uint64(c - '0')}
		return Token{}, false, nil

	case chunkLength:
		if r.exhausted() {
			return Token{Kind: EndOfBuffer}, true, nil
		}
		c := r.consume()
		if isDigit(c) {
			acc, ok := accumulate(st.acc, c)
			if !ok {
				return Token{}, false, r.formatError(c, ErrNumberRange)
			}
			r.state = chunkLength{acc: acc}
			return Token{}, false, nil
		}
		switch c {
		case '+', ' ':
			if st.acc > math.MaxInt64 {
				return Token{}, false, r.formatError(c, ErrNumberRange)
			}
			r.state = chunkBody{
				remaining: st.acc,
				continued: c == '+',
			}
			return Token{}, false, nil
		case '=':
			if st.acc > math.MaxInt64 {
				return Token{}, false, r.formatError(c, ErrNumberRange)
			}
			r.state = controlChars{}
			return Token{Kind: Number, Number: int64(st.acc)}, true, nil
		case '-':
			r.state = controlChars{}
			if st.acc == 1<<63 {
				return Token{Kind: Number, Number: math.MinInt64}, true, nil
			}
			return Token{Kind: Number, Number: -int64(st.acc)}, true, nil
		default:
			return Token{}, false, r.formatError(c, nil)
		}

	case chunkBody:
		// an empty chunk is complete as soon as its header is
		if st.remaining == 0 {
			r.state = controlChars{}
			return chunkToken(r.buf[r.pos:r.pos], st.continued), true, nil
		}
		if r.exhausted() {
			return Token{Kind: EndOfBuffer}, true, nil
		}
		avail := uint64(len(r.buf) - r.pos)
		if avail < st.remaining {
			data := r.advance(int(avail))
			r.state = chunkBody{
				remaining: st.remaining - avail,
				continued: st.continued,
			}
			return Token{Kind: ChunkPart, Data: data}, true, nil
		}
		data := r.advance(int(st.remaining))
		r.state = controlChars{}
		return chunkToken(data, st.continued), true, nil

	default:
		panic("uttp: invalid reader state")
	}
}

func (r *Reader) exhausted() bool {
	return r.pos >= len(r.buf)
}

func (r *Reader) consume() byte {
	c := r.buf[r.pos]
	r.pos++
	r.offset++
	return c
}

func (r *Reader) advance(n int) []byte {
	data := r.buf[r.pos : r.pos+n]
	r.pos += n
	r.offset += uint64(n)
	return data
}

func (r *Reader) formatError(c byte, err error) error {
	return &FormatError{
		Byte:   c,
		Offset: r.offset - 1,
		Err:    err,
	}
}

func chunkToken(data []byte, continued bool) Token {
	if continued {
		return Token{Kind: ChunkPart, Data: data}
	}
	return Token{Kind: Chunk, Data: data}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// accumulate appends a decimal digit to acc. Values up to 1<<63 are kept so
// that math.MinInt64 can be expressed as a negative number.
func accumulate(acc uint64, c byte) (uint64, bool) {
	d := uint64(c - '0')
	if acc > (1<<63-d)/10 {
		return 0, false
	}
	return acc*10 + d, true
}
