package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/ncbi/uttp/exchange"
	"github.com/ncbi/uttp/testutil"
	"github.com/ncbi/uttp/tree"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type blockingReadWriter struct {
	ch   chan struct{}
	err  error
	once sync.Once
}

func newBlockingReadWriter() *blockingReadWriter {
	return &blockingReadWriter{
		ch:  make(chan struct{}),
		err: errors.New("closed"),
	}
}

func (b *blockingReadWriter) Read(p []byte) (n int, err error) {
	<-b.ch
	return 0, b.err
}

func (b *blockingReadWriter) Write(p []byte) (n int, err error) {
	<-b.ch
	return 0, b.err
}

func (b *blockingReadWriter) Close() error {
	b.once.Do(func() {
		close(b.ch)
	})
	return nil
}

type brokenReadWriter struct {
	err error
}

func newBrokenReadWriter() *brokenReadWriter {
	return &brokenReadWriter{
		err: errors.New("broken"),
	}
}

func (b *brokenReadWriter) Read(p []byte) (n int, err error) {
	return 0, b.err
}

func (b *brokenReadWriter) Write(p []byte) (n int, err error) {
	return 0, b.err
}

func testMessage(t *testing.T) (tree.Node, []byte) {
	n := tree.Map{
		"cmd":  tree.String("STATUS"),
		"args": tree.Seq{tree.Int(-1), tree.Float(0.5), tree.Null{}},
	}
	var buf bytes.Buffer
	require.NoError(t, exchange.NewEncoder(&buf, exchange.DefaultOptions()).Encode(n))
	return n, buf.Bytes()
}

func TestPeerImpl_Receive_HappyPath(t *testing.T) {
	expNode, buf := testMessage(t)
	conn := &DummyConn{
		Reader: bytes.NewReader(buf),
	}
	peer := NewPeer(Outbound, conn, DefaultPeerOpts())
	actNode, err := peer.Receive()
	require.NoError(t, err)
	require.True(t, tree.Equal(expNode, actNode))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		_, err := peer.Receive()
		require.Error(t, err)
		wg.Done()
	}()

	<-peer.CloseChan()
	wg.Wait()
	require.Equal(t, ErrPeerHangup, peer.CloseReason())
	_, recvd := peer.BandwidthUsage()
	require.EqualValues(t, len(buf), recvd)
}

func TestPeerImpl_Receive_ContextTimeout(t *testing.T) {
	brw := newBlockingReadWriter()
	conn := &DummyConn{
		Reader: brw,
	}
	peer := NewPeer(Outbound, conn, DefaultPeerOpts())
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	_, err := peer.ReceiveCtx(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "context deadline exceeded")
	require.NoError(t, peer.Close())
	require.Equal(t, ErrPeerClosed, peer.CloseReason())
}

func TestPeerImpl_Receive_ReadError(t *testing.T) {
	broken := newBrokenReadWriter()
	conn := &DummyConn{
		Reader: broken,
	}
	peer := NewPeer(Outbound, conn, DefaultPeerOpts())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		<-peer.CloseChan()
		wg.Done()
	}()

	_, err := peer.Receive()
	require.Error(t, err)
	require.Equal(t, broken.err, err)
	wg.Wait()
	require.Equal(t, broken.err, peer.CloseReason())
}

func TestPeerImpl_Receive_TimedOutReceiveKeepsMessage(t *testing.T) {
	client, server := testutil.NewTCPConn(t)
	defer server.Close()
	peer := NewPeer(Outbound, client, DefaultPeerOpts())
	defer peer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := peer.ReceiveCtx(ctx)
	require.Equal(t, context.DeadlineExceeded, err)

	var first bytes.Buffer
	require.NoError(t, exchange.NewEncoder(&first, exchange.DefaultOptions()).Encode(tree.String("A")))
	_, err = server.Write(first.Bytes())
	require.NoError(t, err)
	// let the first message be read on its own
	require.Eventually(t, func() bool {
		_, recvd := peer.BandwidthUsage()
		return recvd == uint64(first.Len())
	}, time.Second, time.Millisecond)
	testutil.SendMessage(t, server, tree.String("B"))

	n, err := peer.Receive()
	require.NoError(t, err)
	require.Equal(t, tree.String("A"), n)
	n, err = peer.Receive()
	require.NoError(t, err)
	require.Equal(t, tree.String("B"), n)
}

func TestPeerImpl_Receive_AbandonedBeforeRead(t *testing.T) {
	client, server := testutil.NewTCPConn(t)
	defer server.Close()
	peer := NewPeer(Outbound, client, DefaultPeerOpts())
	defer peer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := peer.ReceiveCtx(ctx)
		require.Equal(t, context.Canceled, err)
	}

	testutil.SendMessage(t, server, tree.Int(7))
	n, err := peer.Receive()
	require.NoError(t, err)
	require.Equal(t, tree.Int(7), n)
}

func TestPeerImpl_Receive_ProtocolErrorClosesPeer(t *testing.T) {
	conn := &DummyConn{
		Reader: bytes.NewReader([]byte("[1=}\n")),
	}
	peer := NewPeer(Outbound, conn, DefaultPeerOpts())
	_, err := peer.Receive()
	require.True(t, pkgerrors.Is(err, exchange.ErrMismatchedBracket))
	<-peer.CloseChan()
	require.True(t, pkgerrors.Is(peer.CloseReason(), exchange.ErrMismatchedBracket))
}

func TestPeerImpl_Receive_TruncatedMessage(t *testing.T) {
	_, buf := testMessage(t)
	conn := &DummyConn{
		Reader: bytes.NewReader(buf[:len(buf)-3]),
	}
	peer := NewPeer(Outbound, conn, DefaultPeerOpts())
	_, err := peer.Receive()
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestPeerImpl_Receive_RateLimited(t *testing.T) {
	n, buf := testMessage(t)
	stream := bytes.Repeat(buf, 3)
	conn := &DummyConn{
		Reader: iotest.OneByteReader(bytes.NewReader(stream)),
	}
	opts := DefaultPeerOpts()
	opts.RecvRateLimit = 20
	opts.RecvRateLimitBurst = 1
	peer := NewPeer(Outbound, conn, opts)
	defer peer.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		actNode, err := peer.Receive()
		require.NoError(t, err)
		require.True(t, tree.Equal(n, actNode))
	}
	require.True(t, time.Since(start) >= 90*time.Millisecond)
}

func TestPeerImpl_Send_HappyPath(t *testing.T) {
	n, buf := testMessage(t)
	conn := &DummyConn{
		Writer: new(bytes.Buffer),
	}
	peer := NewPeer(Outbound, conn, DefaultPeerOpts())
	require.NoError(t, peer.Send(n))
	require.EqualValues(t, buf, conn.Writer.(*bytes.Buffer).Bytes())
	sent, _ := peer.BandwidthUsage()
	require.EqualValues(t, len(buf), sent)
	require.NoError(t, peer.Close())
}

func TestPeerImpl_Send_ContextTimeout(t *testing.T) {
	n, _ := testMessage(t)
	brw := newBlockingReadWriter()
	conn := &DummyConn{
		Writer: brw,
	}
	peer := NewPeer(Outbound, conn, DefaultPeerOpts())
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	err := peer.SendCtx(ctx, n)
	require.Error(t, err)
	require.NoError(t, peer.Close())
	require.Equal(t, ErrPeerClosed, peer.CloseReason())
}

func TestPeerImpl_Send_WriteError(t *testing.T) {
	n, _ := testMessage(t)
	broken := newBrokenReadWriter()
	conn := &DummyConn{
		Writer: broken,
	}
	peer := NewPeer(Outbound, conn, DefaultPeerOpts())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		<-peer.CloseChan()
		wg.Done()
	}()

	err := peer.Send(n)
	require.Error(t, err)
	require.Equal(t, broken.err, err)
	wg.Wait()
	require.Equal(t, broken.err, peer.CloseReason())
}

func TestPeerImpl_Close_ReturnsPeerClosedErrWhenClosed(t *testing.T) {
	n, _ := testMessage(t)
	brw := newBlockingReadWriter()
	conn := &DummyConn{
		Reader: brw,
		Writer: brw,
	}
	peer := NewPeer(Outbound, conn, DefaultPeerOpts())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		err := peer.Send(n)
		require.Equal(t, ErrPeerClosed, err)
		wg.Done()
	}()

	go func() {
		_, err := peer.Receive()
		require.Equal(t, ErrPeerClosed, err)
		wg.Done()
	}()

	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		require.Equal(t, ErrPeerClosed, peer.CloseReason())
		doneCh <- struct{}{}
	}()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, peer.Close())
	<-doneCh
}

func TestPeerImpl_Close_ReturnsPeerHangupErrWhenEOF(t *testing.T) {
	n, _ := testMessage(t)
	brw := newBlockingReadWriter()
	brw.err = io.EOF
	conn := &DummyConn{
		Reader: brw,
		Writer: brw,
	}
	peer := NewPeer(Outbound, conn, DefaultPeerOpts())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		err := peer.Send(n)
		require.Equal(t, ErrPeerHangup, err)
		wg.Done()
	}()

	go func() {
		_, err := peer.Receive()
		require.Equal(t, ErrPeerHangup, err)
		wg.Done()
	}()

	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		require.Equal(t, ErrPeerHangup, peer.CloseReason())
		doneCh <- struct{}{}
	}()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, brw.Close())
	<-doneCh
}

func TestPeerImpl_Close_SendReceiveReturnsCloseReason(t *testing.T) {
	n, _ := testMessage(t)
	brw := newBlockingReadWriter()
	conn := &DummyConn{
		Reader: brw,
		Writer: brw,
	}
	peer := NewPeer(Outbound, conn, DefaultPeerOpts())
	require.NoError(t, peer.Close())
	require.True(t, conn.Closed)

	require.Equal(t, ErrPeerClosed, peer.Send(n))
	_, err := peer.Receive()
	require.Equal(t, ErrPeerClosed, err)
}

func TestPeerImpl_Addresses(t *testing.T) {
	conn := &DummyConn{
		Reader: newBlockingReadWriter(),
	}
	peer := NewPeer(Inbound, conn, DefaultPeerOpts())
	defer peer.Close()
	require.Equal(t, Inbound, peer.Direction())
	require.Equal(t, "Inbound", peer.Direction().String())
	require.Equal(t, "10.1.2.3", peer.RemoteIP())
	require.Equal(t, 9097, peer.RemotePort())
	require.Equal(t, "10.1.2.3:9097", peer.RemoteAddr())
	require.Equal(t, "127.0.0.1:50000", peer.LocalAddr())
}

func TestPeerImpl_OverTCP(t *testing.T) {
	client, server := testutil.NewTCPConn(t)
	defer server.Close()
	peer := NewPeer(Outbound, client, DefaultPeerOpts())
	defer peer.Close()

	n, _ := testMessage(t)
	require.NoError(t, peer.Send(n))
	require.True(t, tree.Equal(n, testutil.ReceiveMessage(t, server)))

	reply := tree.Seq{tree.String("ok"), tree.Int(0)}
	testutil.SendMessage(t, server, reply)
	actReply, err := peer.Receive()
	require.NoError(t, err)
	require.True(t, tree.Equal(reply, actReply))

	require.NoError(t, server.Close())
	_, err = peer.Receive()
	require.Equal(t, ErrPeerHangup, err)
}
