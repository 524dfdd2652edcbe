// Package transport builds the HTTP clients locshare uses to talk to the
// login, data and geocoding endpoints.
//
// A Client is created once per process and hands out *http.Client values
// that share one connection pool. The clients never carry a cookie jar:
// cookie continuity is owned by the session package, so two concurrent
// lookups can share a transport without ever seeing each other's cookies.
//
// Egress can optionally go through a SOCKS5 proxy (golang.org/x/net/proxy).
//
// # Usage
//
//	client, err := transport.NewClient(30*time.Second,
//	    transport.WithUserAgent(config.DefaultUserAgent),
//	)
//	httpClient := client.NewHTTPClient()
package transport
