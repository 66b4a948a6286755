package transport

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountingReader(t *testing.T) {
	buf := []byte("{1 a[1=YU]1 b1 x}\n")
	cr := NewCountingReader(bytes.NewReader(buf))
	b := make([]byte, 8)
	_, err := cr.Read(b)
	require.NoError(t, err)
	assert.EqualValues(t, buf[:8], b)
	assert.EqualValues(t, 8, cr.Count())

	rest, err := ioutil.ReadAll(cr)
	require.NoError(t, err)
	assert.EqualValues(t, buf[8:], rest)
	assert.EqualValues(t, len(buf), cr.Count())
	cr.Reset()
	assert.EqualValues(t, 0, cr.Count())
}

func TestCountingWriter(t *testing.T) {
	var out bytes.Buffer
	cw := NewCountingWriter(&out)
	_, err := cw.Write([]byte("5-"))
	require.NoError(t, err)
	_, err = cw.Write([]byte("\n"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, cw.Count())
	assert.Equal(t, "5-\n", out.String())
	cw.Reset()
	assert.EqualValues(t, 0, cw.Count())
}
