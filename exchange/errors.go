package exchange

import (
	"fmt"

	"github.com/pkg/errors"
)

// Each kind of desynchronization has its own sentinel so callers can tell
// them apart with errors.Is.
var (
	ErrMismatchedBracket     = errors.New("closing bracket does not match open container")
	ErrUnexpectedClose       = errors.New("closing bracket without open container")
	ErrChunkInterrupted      = errors.New("token inside an unfinished chunk")
	ErrFloatKey              = errors.New("float used as a map key")
	ErrNonStringKey          = errors.New("map key is not a string")
	ErrMissingValue          = errors.New("map closed after a key without a value")
	ErrUnterminatedContainer = errors.New("end of message inside an open container")
	ErrEmptyMessage          = errors.New("end of message without a value")
	ErrExtraToken            = errors.New("token after the root value")
	ErrTrailingData          = errors.New("data after end of message")
	ErrUnknownSymbol         = errors.New("unknown control symbol")
	ErrBadFloatLength        = errors.New("float value is not 8 bytes")
	ErrMessageTooLarge       = errors.New("message exceeds maximum size")
	ErrTooDeep               = errors.New("containers nested too deeply")
)

// ProtocolError is a structurally invalid token sequence. Kind is one of the
// sentinel errors above.
type ProtocolError struct {
	Kind   error
	Offset uint64
	Symbol byte
}

func (e *ProtocolError) Error() string {
	if e.Symbol != 0 {
		return fmt.Sprintf("uttp protocol error: %s at offset %d (symbol %q)", e.Kind, e.Offset, e.Symbol)
	}
	return fmt.Sprintf("uttp protocol error: %s at offset %d", e.Kind, e.Offset)
}

func (e *ProtocolError) Unwrap() error {
	return e.Kind
}
