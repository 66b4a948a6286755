package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/mattn/go-isatty"
)

// ReadInput returns the first argument if there is one. Otherwise it reads
// in until EOF, prompting on out first when in is a terminal.
func ReadInput(args []string, in *os.File, out io.Writer) ([]byte, error) {
	if len(args) > 0 {
		return []byte(args[0]), nil
	}
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		return readDataTTY(in, out)
	}
	return ioutil.ReadAll(in)
}

func readDataTTY(in io.Reader, out io.Writer) ([]byte, error) {
	fmt.Fprintln(out, "Paste or type the input below.")
	fmt.Fprintln(out, "When you are finished, press Ctrl+D.")

	var buf bytes.Buffer
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		buf.Write(scanner.Bytes())
		buf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
