// Package transport provides the HTTP transport used for upstream
// storefront calls.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// Go's standard TLS client presents a distinctive handshake that some
// storefront CDNs use for JA3-based bot scoring, which shows up as
// aggressive 429s on otherwise well-behaved API traffic.
//
// NewChromeTransport returns an http.RoundTripper that performs the TLS
// handshake with uTLS using Chrome's fingerprint, letting ALPN negotiate
// h2 or http/1.1 naturally. HTTP/2 framing is handled by x/net/http2 when
// negotiated, with a plain HTTP/1.1 transport as fallback.
func NewChromeTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	return &chromeTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialChromeTLS(ctx, dialer, network, addr)
			},
		},
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChromeTLS(ctx, dialer, network, addr)
			},
			ForceAttemptHTTP2: false,
		},
	}
}

// chromeTransport pairs an HTTP/2 transport with an HTTP/1.1 fallback,
// both dialing through the Chrome-fingerprint TLS handshake.
type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip tries HTTP/2 first and falls back to HTTP/1.1 for servers
// that refuse h2.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	return t.h1.RoundTrip(req)
}

// dialChromeTLS establishes a TLS connection with Chrome's fingerprint.
func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
