package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/ncbi/uttp/exchange"
	"github.com/ncbi/uttp/uttp"
	"github.com/olekukonko/tablewriter"
)

const maxShownChunk = 32

// WriteTokenTable tokenizes data, feeding the reader bufSize bytes at a time,
// and renders one row per token. Float prefixes are followed by their raw
// payload. Rows up to a format error are still rendered before the error is
// returned.
func WriteTokenTable(w io.Writer, data []byte, bufSize int) error {
	if bufSize <= 0 {
		bufSize = len(data)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"Offset",
		"Kind",
		"Value",
	})
	defer table.Render()

	r := uttp.NewReader()
	var start uint64
	for len(data) > 0 {
		n := bufSize
		if n > len(data) {
			n = len(data)
		}
		r.SetNewBuf(data[:n])
		data = data[n:]
		for {
			tok, err := r.NextEvent()
			if err != nil {
				return err
			}
			if tok.Kind == uttp.EndOfBuffer {
				break
			}
			table.Append([]string{
				strconv.FormatUint(start, 10),
				tok.Kind.String(),
				tokenValue(tok),
			})
			start = r.Offset()
			if tok.Kind == uttp.ControlSymbol && (tok.Symbol == exchange.SymFloatBE || tok.Symbol == exchange.SymFloatLE) {
				if err := r.ReadRawData(8); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func tokenValue(tok uttp.Token) string {
	switch tok.Kind {
	case uttp.ControlSymbol:
		return strconv.QuoteRune(rune(tok.Symbol))
	case uttp.Number:
		return strconv.FormatInt(tok.Number, 10)
	case uttp.Chunk, uttp.ChunkPart:
		if len(tok.Data) > maxShownChunk {
			return fmt.Sprintf("%q... (%d bytes)", tok.Data[:maxShownChunk], len(tok.Data))
		}
		return strconv.Quote(string(tok.Data))
	default:
		return ""
	}
}
