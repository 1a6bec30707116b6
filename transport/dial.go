package transport

import (
	"context"
	"net"
	"time"

	"github.com/redbco/openwire-go/wireerr"
)

// SocketOptions mirrors the socket.* broker-URL keys from spec §6, wired
// through to real net.TCPConn calls the way the original TcpSocket did with
// raw setsockopt (original_source/network/TcpSocket.cpp), rather than
// parsed-but-unused configuration.
type SocketOptions struct {
	// SoLinger sets SO_LINGER; negative disables it (OS default).
	SoLinger int
	// KeepAlive enables SO_KEEPALIVE.
	KeepAlive bool
	// TCPNoDelay disables Nagle's algorithm when true.
	TCPNoDelay bool
	// ConnectTimeout bounds the dial itself; zero means no timeout.
	ConnectTimeout time.Duration
}

// DefaultSocketOptions matches the original's defaults: keepalive and
// TCP_NODELAY on, linger left to the OS.
func DefaultSocketOptions() SocketOptions {
	return SocketOptions{SoLinger: -1, KeepAlive: true, TCPNoDelay: true}
}

// DialTCP connects to addr and applies opts via the platform socket API
// before returning, so every option takes effect before the first frame is
// written.
func DialTCP(ctx context.Context, addr string, opts SocketOptions) (net.Conn, error) {
	dialer := net.Dialer{Timeout: opts.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, wireerr.Transport(err, "transport: dial %s failed", addr)
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return conn, nil
	}
	if err := applySocketOptions(tcpConn, opts); err != nil {
		tcpConn.Close()
		return nil, wireerr.Transport(err, "transport: applying socket options to %s failed", addr)
	}
	return tcpConn, nil
}

func applySocketOptions(conn *net.TCPConn, opts SocketOptions) error {
	if opts.SoLinger >= 0 {
		if err := conn.SetLinger(opts.SoLinger); err != nil {
			return err
		}
	}
	if err := conn.SetKeepAlive(opts.KeepAlive); err != nil {
		return err
	}
	if err := conn.SetNoDelay(opts.TCPNoDelay); err != nil {
		return err
	}
	return nil
}
