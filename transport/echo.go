package transport

import (
	"github.com/ncbi/uttp/log"
)

// EchoHandler answers every message with the same tree until the peer goes
// away.
func EchoHandler() Handler {
	lgr := log.WithModule("echo")
	return HandlerFunc(func(peer Peer) {
		for {
			n, err := peer.Receive()
			if err != nil {
				lgr.Debug("stopped receiving", "remote_addr", peer.RemoteAddr(), "err", err)
				return
			}
			if err := peer.Send(n); err != nil {
				lgr.Debug("stopped sending", "remote_addr", peer.RemoteAddr(), "err", err)
				return
			}
		}
	})
}
