package transport

import (
	"fmt"
	"net"
	"sync"

	"github.com/ncbi/uttp/log"
	"github.com/ncbi/uttp/service"
	"github.com/pkg/errors"
)

var ErrTooManyPeers = errors.New("too many peers")

// Handler serves a single inbound peer. The listener closes the peer once
// ServePeer returns.
type Handler interface {
	ServePeer(peer Peer)
}

type HandlerFunc func(peer Peer)

func (f HandlerFunc) ServePeer(peer Peer) {
	f(peer)
}

type ListenerOpts struct {
	Host     string
	Port     int
	MaxPeers int
	PeerOpts PeerOpts
	Handler  Handler
}

type Listener struct {
	opts   ListenerOpts
	lgr    log.Logger
	quitCh chan struct{}
	once   sync.Once

	mu    sync.Mutex
	peers map[Peer]struct{}
	wg    sync.WaitGroup
}

var _ service.Service = (*Listener)(nil)

func NewListener(opts ListenerOpts) *Listener {
	return &Listener{
		opts:   opts,
		lgr:    log.WithModule("listener"),
		quitCh: make(chan struct{}),
		peers:  make(map[Peer]struct{}),
	}
}

// Start accepts connections until Stop is called.
func (l *Listener) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", l.opts.Host, l.opts.Port))
	if err != nil {
		return err
	}

	go func() {
		<-l.quitCh
		err := listener.Close()
		if err != nil {
			l.lgr.Error("failed to shut down listener", "err", err)
		} else {
			l.lgr.Info("listener shut down")
		}
	}()

	l.lgr.Info("listening for connections", "host", l.opts.Host, "port", l.opts.Port)
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-l.quitCh:
				l.wg.Wait()
				return nil
			default:
			}
			return errors.Wrap(err, "error accepting peer connection")
		}
		l.lgr.Info(
			"accepted new peer connection",
			"remote_addr", conn.RemoteAddr().String(),
		)
		if err := l.accept(conn); err != nil {
			l.lgr.Info(
				"peer connection rejected",
				"remote_addr", conn.RemoteAddr().String(),
				"reason", err,
			)
		}
	}
}

// Stop closes the listening socket and every connected peer.
func (l *Listener) Stop() error {
	l.once.Do(func() {
		close(l.quitCh)
		l.mu.Lock()
		for peer := range l.peers {
			go peer.Close()
		}
		l.mu.Unlock()
	})
	return nil
}

// PeerCount returns the number of connected peers.
func (l *Listener) PeerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.peers)
}

func (l *Listener) accept(conn net.Conn) error {
	l.mu.Lock()
	select {
	case <-l.quitCh:
		l.mu.Unlock()
		_ = conn.Close()
		return ErrPeerClosed
	default:
	}
	if l.opts.MaxPeers > 0 && len(l.peers) >= l.opts.MaxPeers {
		l.mu.Unlock()
		_ = conn.Close()
		return ErrTooManyPeers
	}
	peer := NewPeer(Inbound, conn, l.opts.PeerOpts)
	l.peers[peer] = struct{}{}
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.opts.Handler.ServePeer(peer)
		_ = peer.Close()
		l.mu.Lock()
		delete(l.peers, peer)
		l.mu.Unlock()
		sent, recvd := peer.BandwidthUsage()
		l.lgr.Debug(
			"peer disconnected",
			"remote_addr", peer.RemoteAddr(),
			"reason", peer.CloseReason(),
			"bytes_sent", sent,
			"bytes_received", recvd,
		)
	}()
	return nil
}
