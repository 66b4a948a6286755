package testutil

import (
	"io"
	"net"
	"testing"

	"github.com/ncbi/uttp/exchange"
	"github.com/ncbi/uttp/tree"
	"github.com/stretchr/testify/require"
)

func RandFreePort(t *testing.T) int {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	require.NoError(t, err)
	l, err := net.ListenTCP("tcp", addr)
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

// NewTCPConn returns both ends of a loopback TCP connection.
func NewTCPConn(t *testing.T) (net.Conn, net.Conn) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serverCh := make(chan net.Conn)
	go func() {
		defer lis.Close()
		server, err := lis.Accept()
		if err != nil {
			panic(err)
		}
		serverCh <- server
	}()

	client, err := net.Dial("tcp", lis.Addr().String())
	require.NoError(t, err)
	return client, <-serverCh
}

func ReceiveMessage(t *testing.T, r io.Reader) tree.Node {
	n, err := exchange.NewDecoder(r, exchange.DefaultOptions()).Decode()
	require.NoError(t, err)
	return n
}

func SendMessage(t *testing.T, w io.Writer, n tree.Node) {
	require.NoError(t, exchange.NewEncoder(w, exchange.DefaultOptions()).Encode(n))
}
