package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects bounds redirect chains. The login flow bounces through a few
// hops on success; anything longer is a loop.
const maxRedirects = 10

// defaultAcceptLanguage keeps the login pages and error banners in English.
const defaultAcceptLanguage = "en-US,en;q=0.5"

// Client provides outbound HTTP connectivity.
// It owns one http.Transport, optionally routed through a SOCKS5 proxy, and
// injects browser-like default headers into every request.
type Client struct {
	// proxyAddress is the SOCKS5 proxy in "host:port" format, or "" for direct.
	proxyAddress string

	// dialer routes connections through the proxy. Nil means direct dialing.
	dialer proxy.Dialer

	// timeout bounds every request including reading the body.
	timeout time.Duration

	// userAgent is sent unless a request sets its own.
	userAgent string

	// headers are sent unless a request sets its own value for the key.
	headers map[string]string

	// base is the shared transport. Created once so connections are reused.
	base http.RoundTripper
}

// Option configures a Client.
type Option func(*Client)

// WithProxy routes all connections through the SOCKS5 proxy at address.
// An empty address means direct connections.
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithUserAgent sets the default User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHeaders adds default headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// NewClient creates a Client whose HTTP clients time out after timeout.
//
// The proxy address, when given, is validated but not contacted.
func NewClient(timeout time.Duration, opts ...Option) (*Client, error) {
	c := &Client{
		timeout: timeout,
		headers: map[string]string{
			"Accept-Language": defaultAcceptLanguage,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.proxyAddress != "" {
		if !ValidProxyAddress(c.proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		// Nil auth: local SOCKS proxies normally run without authentication.
		dialer, err := proxy.SOCKS5("tcp", c.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		c.dialer = dialer
	}

	c.base = c.newTransport()

	return c, nil
}

// newTransport builds the shared connection pool.
func (c *Client) newTransport() *http.Transport {
	transport := &http.Transport{
		Proxy:               nil,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if c.dialer != nil {
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := c.dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return c.dialer.Dial(network, addr)
		}
	} else {
		dialer := &net.Dialer{Timeout: c.timeout, KeepAlive: 30 * time.Second}
		transport.DialContext = dialer.DialContext
	}

	return transport
}

// NewHTTPClient returns an HTTP client sharing this Client's connection pool.
// It has no cookie jar and follows at most maxRedirects redirects.
// Callers may replace CheckRedirect or wrap Transport on the returned value.
func (c *Client) NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &headerInjectingTransport{
			base:      c.base,
			userAgent: c.userAgent,
			headers:   c.headers,
		},
		Timeout: c.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// ProxyAddress returns the configured proxy address, or "" for direct.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// ValidProxyAddress checks that address is in "host:port" form with a port
// between 1 and 65535.
func ValidProxyAddress(address string) bool {
	parts := strings.Split(address, ":")
	if len(parts) != 2 {
		return false
	}

	host := parts[0]
	port := parts[1]

	if host == "" || port == "" {
		return false
	}

	portNum := 0
	for _, ch := range port {
		if ch < '0' || ch > '9' {
			return false
		}
		portNum = portNum*10 + int(ch-'0')
		if portNum > 65535 {
			return false
		}
	}

	return portNum >= 1
}

// headerInjectingTransport wraps an http.RoundTripper to add default
// headers. Values already present on a request are left alone.
type headerInjectingTransport struct {
	base      http.RoundTripper
	userAgent string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}

	for key, value := range t.headers {
		if clone.Header.Get(key) == "" {
			clone.Header.Set(key, value)
		}
	}

	return t.base.RoundTrip(clone)
}
