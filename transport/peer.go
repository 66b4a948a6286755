package transport

import (
	"bufio"
	"context"
	"io"
	"math"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ncbi/uttp/exchange"
	"github.com/ncbi/uttp/log"
	"github.com/ncbi/uttp/tree"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var (
	ErrPeerClosed         = errors.New("peer closed")
	ErrPeerHangup         = errors.New("remote hung up")
	ErrPeerSendBufferFull = errors.New("peer send buffer full")
	ErrPeerRecvBufferFull = errors.New("peer receive buffer full")
)

type Direction int

const (
	Inbound  Direction = 0
	Outbound Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "Inbound"
	case Outbound:
		return "Outbound"
	default:
		panic("invalid peer direction")
	}
}

const (
	DefaultRecvRateLimit      = 64
	DefaultRecvRateLimitBurst = 192
	DefaultIdleTimeout        = time.Minute
)

type PeerOpts struct {
	Exchange exchange.Options
	// RecvRateLimit is the number of messages per second the peer will read.
	// Zero disables the limit.
	RecvRateLimit      float64
	RecvRateLimitBurst int
	// IdleTimeout is the connection deadline set before every send and
	// receive.
	IdleTimeout time.Duration
}

func DefaultPeerOpts() PeerOpts {
	return PeerOpts{
		Exchange:           exchange.DefaultOptions(),
		RecvRateLimit:      DefaultRecvRateLimit,
		RecvRateLimitBurst: DefaultRecvRateLimitBurst,
		IdleTimeout:        DefaultIdleTimeout,
	}
}

// Peer exchanges UTTP messages over a single connection. Any codec or I/O
// error closes the peer; CloseReason reports what happened.
//
// The protocol is strictly request/response in each direction: a receiver
// rejects bytes that follow the end of a message in the same read, so a
// caller must not Send again until the remote has answered the previous
// message. The send queue only serializes concurrent callers.
type Peer interface {
	Direction() Direction
	LocalAddr() string
	RemoteAddr() string
	RemoteIP() string
	RemotePort() int
	SendCtx(ctx context.Context, n tree.Node) error
	Send(n tree.Node) error
	ReceiveCtx(ctx context.Context) (tree.Node, error)
	Receive() (tree.Node, error)
	CloseChan() <-chan struct{}
	Close() error
	BandwidthUsage() (uint64, uint64)
	CloseReason() error
}

type PeerImpl struct {
	direction Direction
	conn      net.Conn
	connW     *CountingWriter
	connR     *CountingReader
	x         *exchange.Exchange
	opts      PeerOpts
	lgr       log.Logger

	sendCh        chan *sendReq
	recvCh        chan *recvReq
	sendDoneCh    chan struct{}
	recvDoneCh    chan struct{}
	closeCh       chan struct{}
	closeMu       sync.Mutex
	closeReason   error
	closeReasonMu sync.Mutex
}

type sendReq struct {
	node  tree.Node
	errCh chan error
}

const (
	recvPending int32 = iota
	recvAnswered
	recvAbandoned
)

// recvReq is answered by the recv goroutine unless its caller gave up
// first. Whichever side moves state away from recvPending wins.
type recvReq struct {
	nodeCh chan tree.Node
	errCh  chan error
	state  int32
}

func (r *recvReq) answer() bool {
	return atomic.CompareAndSwapInt32(&r.state, recvPending, recvAnswered)
}

func (r *recvReq) abandon() bool {
	return atomic.CompareAndSwapInt32(&r.state, recvPending, recvAbandoned)
}

func (r *recvReq) abandoned() bool {
	return atomic.LoadInt32(&r.state) == recvAbandoned
}

func NewPeer(direction Direction, conn net.Conn, opts PeerOpts) Peer {
	connW := NewCountingWriter(conn)
	connR := NewCountingReader(bufio.NewReader(conn))
	p := &PeerImpl{
		direction: direction,
		conn:      conn,
		connW:     connW,
		connR:     connR,
		x: exchange.New(struct {
			io.Reader
			io.Writer
		}{connR, connW}, opts.Exchange),
		opts:       opts,
		sendCh:     make(chan *sendReq, 128),
		recvCh:     make(chan *recvReq, 128),
		sendDoneCh: make(chan struct{}, 1),
		recvDoneCh: make(chan struct{}, 1),
		closeCh:    make(chan struct{}),
		lgr:        log.WithModule("peer").Sub("remote_addr", conn.RemoteAddr().String()),
	}
	go p.send()
	go p.recv()
	return p
}

func (p *PeerImpl) SendCtx(ctx context.Context, n tree.Node) error {
	select {
	case <-p.closeCh:
		return p.CloseReason()
	default:
	}

	errCh := make(chan error, 1)
	req := &sendReq{
		node:  n,
		errCh: errCh,
	}
	if err := p.bufferSendCtx(ctx, req); err != nil {
		return err
	}

	select {
	case err := <-errCh:
		return err
	case <-p.closeCh:
		return p.CloseReason()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send writes n and returns once it has been flushed to the connection. Wait
// for the remote's reply before sending the next message.
func (p *PeerImpl) Send(n tree.Node) error {
	return p.SendCtx(context.Background(), n)
}

func (p *PeerImpl) ReceiveCtx(ctx context.Context) (tree.Node, error) {
	select {
	case <-p.closeCh:
		return nil, p.CloseReason()
	default:
	}

	nodeCh := make(chan tree.Node, 1)
	errCh := make(chan error, 1)
	req := &recvReq{
		nodeCh: nodeCh,
		errCh:  errCh,
	}

	select {
	case p.recvCh <- req:
	default:
		return nil, ErrPeerRecvBufferFull
	}

	select {
	case n := <-nodeCh:
		return n, nil
	case err := <-errCh:
		return nil, err
	case <-p.closeCh:
		return nil, p.CloseReason()
	case <-ctx.Done():
		if req.abandon() {
			return nil, ctx.Err()
		}
	}

	// answered just as ctx expired
	select {
	case n := <-nodeCh:
		return n, nil
	case err := <-errCh:
		return nil, err
	}
}

func (p *PeerImpl) Receive() (tree.Node, error) {
	return p.ReceiveCtx(context.Background())
}

func (p *PeerImpl) CloseChan() <-chan struct{} {
	return p.closeCh
}

func (p *PeerImpl) Close() error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	select {
	case <-p.closeCh:
		return nil
	default:
	}

	p.closeReasonMu.Lock()
	if p.closeReason == nil {
		p.closeReason = ErrPeerClosed
	}
	p.closeReasonMu.Unlock()
	_ = p.conn.Close()
	close(p.closeCh)
	<-p.recvDoneCh
	<-p.sendDoneCh
	return nil
}

func (p *PeerImpl) Direction() Direction {
	return p.direction
}

func (p *PeerImpl) LocalAddr() string {
	return p.conn.LocalAddr().String()
}

func (p *PeerImpl) RemoteAddr() string {
	return p.conn.RemoteAddr().String()
}

func (p *PeerImpl) RemoteIP() string {
	host, _, err := net.SplitHostPort(p.RemoteAddr())
	if err != nil {
		return ""
	}
	return host
}

func (p *PeerImpl) RemotePort() int {
	_, port, err := net.SplitHostPort(p.RemoteAddr())
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

// BandwidthUsage returns the bytes written to and read from the connection.
func (p *PeerImpl) BandwidthUsage() (uint64, uint64) {
	return p.connW.Count(), p.connR.Count()
}

func (p *PeerImpl) CloseReason() error {
	p.closeReasonMu.Lock()
	defer p.closeReasonMu.Unlock()
	return p.closeReason
}

func (p *PeerImpl) send() {
	defer func() {
		p.sendDoneCh <- struct{}{}
		_ = p.Close()
	}()

	for {
		select {
		case req := <-p.sendCh:
			p.updateDeadline()
			if err := p.x.Send(req.node); err != nil {
				req.errCh <- p.setCloseReason(err)
				return
			}
			req.errCh <- nil
		case <-p.closeCh:
			return
		}
	}
}

func (p *PeerImpl) recv() {
	defer func() {
		p.recvDoneCh <- struct{}{}
		_ = p.Close()
	}()

	var lim *rate.Limiter
	if p.opts.RecvRateLimit > 0 {
		burst := p.opts.RecvRateLimitBurst
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(p.opts.RecvRateLimit), burst)
	}
	// messages read for callers that stopped waiting, oldest first
	var orphans []tree.Node
	for {
		var req *recvReq
		select {
		case req = <-p.recvCh:
		case <-p.closeCh:
			return
		}
		if req.abandoned() {
			continue
		}
		if len(orphans) > 0 {
			if req.answer() {
				req.nodeCh <- orphans[0]
				orphans[0] = nil
				orphans = orphans[1:]
			}
			continue
		}

		if lim != nil {
			rv := lim.Reserve()
			if delay := rv.Delay(); delay > 0 {
				p.lgr.Debug("receive rate limited", "delay", delay)
				timer := time.NewTimer(delay)
				select {
				case <-timer.C:
				case <-p.closeCh:
					timer.Stop()
					return
				}
			}
		}
		if req.abandoned() {
			continue
		}
		p.updateDeadline()
		n, err := p.x.Receive()
		if err != nil {
			req.errCh <- p.setCloseReason(err)
			return
		}
		if req.answer() {
			req.nodeCh <- n
			continue
		}
		p.lgr.Trace("holding message for next receive")
		orphans = append(orphans, n)
	}
}

func (p *PeerImpl) setCloseReason(err error) error {
	p.closeReasonMu.Lock()
	defer p.closeReasonMu.Unlock()
	if p.closeReason != nil {
		return p.closeReason
	}
	if err == nil {
		return nil
	}
	if err == io.EOF {
		p.closeReason = ErrPeerHangup
	} else {
		p.closeReason = err
	}
	p.lgr.Debug("closing peer", "reason", p.closeReason)
	return p.closeReason
}

func (p *PeerImpl) updateDeadline() {
	if p.opts.IdleTimeout <= 0 {
		return
	}
	_ = p.conn.SetDeadline(time.Now().Add(p.opts.IdleTimeout))
}

func (p *PeerImpl) bufferSendCtx(ctx context.Context, req *sendReq) error {
	var retries int
	for {
		if retries > 10 {
			return ErrPeerSendBufferFull
		}

		timer := time.NewTimer(time.Duration(int(math.Pow(2, float64(retries)))) * time.Millisecond)
		select {
		case p.sendCh <- req:
			timer.Stop()
			return nil
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			retries++
			continue
		}
	}
}
