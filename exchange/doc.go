// Package exchange sends and receives trees as UTTP messages.
//
// A message is one root value followed by the end-of-message symbol:
//
//	{1 a[1=YU]1 b1 x}\n
//
// encodes {"a": [1, true, null], "b": "x"}. Maps and lists are bracketed with
// '{' '}' and '[' ']', booleans and null are the control symbols 'Y', 'N' and
// 'U', integers use the number token and strings the chunk token. Doubles
// are a 'D' (big-endian) or 'd' (little-endian) control symbol followed by 8
// raw bytes; the sender uses its own byte order and receivers accept both.
//
// Encoder and Decoder work on io.Writer and io.Reader. Parser exposes the
// receive side without any I/O for event-driven callers.
package exchange
