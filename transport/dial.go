package transport

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
)

const DefaultDialTimeout = 10 * time.Second

// Dial connects to addr and returns an outbound peer. The dial is bounded by
// ctx and DefaultDialTimeout, whichever ends first.
func Dial(ctx context.Context, addr string, opts PeerOpts) (Peer, error) {
	dialer := &net.Dialer{
		Timeout: DefaultDialTimeout,
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "error dialing %s", addr)
	}
	return NewPeer(Outbound, conn, opts), nil
}
