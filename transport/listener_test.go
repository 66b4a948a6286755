package transport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ncbi/uttp/testutil"
	"github.com/ncbi/uttp/tree"
	"github.com/stretchr/testify/require"
)

func startListener(t *testing.T, opts ListenerOpts) (*Listener, string) {
	opts.Host = "127.0.0.1"
	opts.Port = testutil.RandFreePort(t)
	l := NewListener(opts)
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Start()
	}()
	t.Cleanup(func() {
		require.NoError(t, l.Stop())
		require.NoError(t, <-errCh)
	})
	return l, fmt.Sprintf("127.0.0.1:%d", opts.Port)
}

func dialWithRetry(t *testing.T, addr string) Peer {
	var lastErr error
	for i := 0; i < 50; i++ {
		peer, err := Dial(context.Background(), addr, DefaultPeerOpts())
		if err == nil {
			return peer
		}
		lastErr = err
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, lastErr)
	return nil
}

func TestListener_Echo(t *testing.T) {
	l, addr := startListener(t, ListenerOpts{
		PeerOpts: DefaultPeerOpts(),
		Handler:  EchoHandler(),
	})

	peer := dialWithRetry(t, addr)
	defer peer.Close()
	require.Equal(t, Outbound, peer.Direction())

	msgs := []tree.Node{
		tree.String("ping"),
		tree.Map{"a": tree.Seq{tree.Int(1), tree.Bool(true), tree.Null{}}, "b": tree.String("x")},
		tree.Bytes(make([]byte, 100000)),
	}
	for _, msg := range msgs {
		require.NoError(t, peer.Send(msg))
		reply, err := peer.Receive()
		require.NoError(t, err)
		if b, ok := msg.(tree.Bytes); ok {
			msg = tree.String(b)
		}
		require.True(t, tree.Equal(msg, reply))
	}
	require.Equal(t, 1, l.PeerCount())

	sent, recvd := peer.BandwidthUsage()
	require.Equal(t, sent, recvd)
}

func TestListener_MaxPeers(t *testing.T) {
	_, addr := startListener(t, ListenerOpts{
		MaxPeers: 1,
		PeerOpts: DefaultPeerOpts(),
		Handler:  EchoHandler(),
	})

	first := dialWithRetry(t, addr)
	defer first.Close()
	require.NoError(t, first.Send(tree.Int(1)))
	_, err := first.Receive()
	require.NoError(t, err)

	second := dialWithRetry(t, addr)
	defer second.Close()
	_ = second.Send(tree.Int(2))
	_, err = second.Receive()
	require.Error(t, err)
}

func TestListener_StopClosesPeers(t *testing.T) {
	handled := make(chan Peer, 1)
	l := NewListener(ListenerOpts{
		Host:     "127.0.0.1",
		Port:     testutil.RandFreePort(t),
		PeerOpts: DefaultPeerOpts(),
		Handler: HandlerFunc(func(peer Peer) {
			handled <- peer
			<-peer.CloseChan()
		}),
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Start()
	}()

	client := dialWithRetry(t, fmt.Sprintf("127.0.0.1:%d", l.opts.Port))
	defer client.Close()
	serverPeer := <-handled

	require.NoError(t, l.Stop())
	require.NoError(t, <-errCh)
	require.Equal(t, ErrPeerClosed, serverPeer.CloseReason())
	require.Equal(t, 0, l.PeerCount())

	_, err := client.Receive()
	require.Error(t, err)
}
