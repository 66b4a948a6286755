package transport

import (
	"io"
	"net"
	"time"
)

type DummyConn struct {
	Reader io.Reader
	Writer io.Writer
	Closed bool
}

func (d *DummyConn) Read(b []byte) (n int, err error) {
	return d.Reader.Read(b)
}

func (d *DummyConn) Write(b []byte) (n int, err error) {
	return d.Writer.Write(b)
}

func (d *DummyConn) Close() error {
	for _, v := range []interface{}{d.Reader, d.Writer} {
		if c, ok := v.(io.Closer); ok {
			if err := c.Close(); err != nil {
				return err
			}
		}
	}
	d.Closed = true
	return nil
}

func (d *DummyConn) LocalAddr() net.Addr {
	return &net.TCPAddr{
		IP:   net.ParseIP("127.0.0.1"),
		Port: 50000,
	}
}

func (d *DummyConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{
		IP:   net.ParseIP("10.1.2.3"),
		Port: 9097,
	}
}

func (d *DummyConn) SetDeadline(t time.Time) error {
	return nil
}

func (d *DummyConn) SetReadDeadline(t time.Time) error {
	return nil
}

func (d *DummyConn) SetWriteDeadline(t time.Time) error {
	return nil
}
