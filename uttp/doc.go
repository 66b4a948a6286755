/*
Package uttp implements the Untyped Tree Transfer Protocol token layer.

UTTP carries arbitrarily nested trees over a byte stream using a handful of
byte-level constructs:

  - chunk: <decimal-length>' '<raw-bytes> for a complete chunk, or
    <decimal-length>'+'<raw-bytes> for a part that is continued by the
    next chunk.
  - number: <decimal-digits>'=' for a non-negative integer, or
    <decimal-digits>'-' for a negative one.
  - control symbol: any single non-digit byte outside of a length.

The meaning of control symbols ('[', ']', '{', '}', 'Y', 'N', 'U', 'D', 'd'
and the end-of-message newline) belongs to the message layer in package
exchange; this package only tokenizes.

Neither Reader nor Writer performs I/O. A Reader is handed buffers with
SetNewBuf and reports EndOfBuffer whenever it needs more input, keeping any
partially parsed length, number or chunk across buffers:

	r := uttp.NewReader()
	r.SetNewBuf(data)
	for {
		tok, err := r.NextEvent()
		if err != nil {
			return err
		}
		if tok.Kind == uttp.EndOfBuffer {
			break // read more bytes, then SetNewBuf again
		}
		handle(tok)
	}

A Writer accumulates encoded tokens and hands back a buffer once it reaches
its minimum size:

	w := uttp.NewWriter(8192)
	if buf := w.SendChunk([]byte("hello"), false); buf != nil {
		conn.Write(buf)
	}
	conn.Write(w.FlushBuf())
*/
package uttp
