package uttp

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrRawDataPhase = errors.New("raw data can only be read between tokens")
	ErrNumberRange  = errors.New("number out of range")
)

// FormatError reports malformed length or number syntax. The stream cannot
// be resynchronized after one.
type FormatError struct {
	Byte   byte
	Offset uint64
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("uttp: %s at offset %d (byte %q)", e.Err, e.Offset, e.Byte)
	}
	return fmt.Sprintf("uttp: invalid character %q at offset %d", e.Byte, e.Offset)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
