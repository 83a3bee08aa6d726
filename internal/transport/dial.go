package transport

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

const DefaultDialTimeout = 5 * time.Second

// Dial connects to addr over TCP, wrapping the connection in TLS when
// tlsCfg is enabled.
func Dial(ctx context.Context, addr string, tlsCfg TLSConfig) (net.Conn, error) {
	clientCfg, err := tlsCfg.ClientConfig(addr)
	if err != nil {
		return nil, err
	}
	d := net.Dialer{Timeout: DefaultDialTimeout}
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if clientCfg == nil {
		return raw, nil
	}
	conn := tls.Client(raw, clientCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, DefaultDialTimeout)
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return conn, nil
}

// Listen opens a TCP listener on addr, serving TLS when tlsCfg is enabled.
func Listen(addr string, tlsCfg TLSConfig) (net.Listener, error) {
	serverCfg, err := tlsCfg.ServerConfig()
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if serverCfg == nil {
		return ln, nil
	}
	return tls.NewListener(ln, serverCfg), nil
}
