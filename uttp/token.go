package uttp

import "fmt"

type TokenKind int

const (
	EndOfBuffer TokenKind = iota
	ChunkPart
	Chunk
	ControlSymbol
	Number
)

func (k TokenKind) String() string {
	switch k {
	case EndOfBuffer:
		return "EndOfBuffer"
	case ChunkPart:
		return "ChunkPart"
	case Chunk:
		return "Chunk"
	case ControlSymbol:
		return "ControlSymbol"
	case Number:
		return "Number"
	default:
		return "unknown"
	}
}

// Token is a single event produced by Reader.NextEvent. Data is only set for
// ChunkPart and Chunk and points into the buffer given to SetNewBuf, so it
// must be copied before that buffer is reused.
type Token struct {
	Kind   TokenKind
	Data   []byte
	Symbol byte
	Number int64
}

func (t Token) String() string {
	switch t.Kind {
	case ChunkPart, Chunk:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Data)
	case ControlSymbol:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Symbol)
	case Number:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Number)
	default:
		return t.Kind.String()
	}
}
