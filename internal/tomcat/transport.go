package tomcat

import (
	"context"
	"io"
	"net/url"
)

// Request is one HTTP call against the manager application.
type Request struct {
	Method   string
	URL      string
	Query    url.Values
	User     string
	Password string
	// Body and ContentLength are only set for uploads.
	Body          io.Reader
	ContentLength int64
}

// RawResponse is the undecoded result of a Request.
type RawResponse struct {
	StatusCode int
	// Status is the status line text, for example "404 Not Found".
	Status string
	Body   string
	// URL is the final URL after redirects.
	URL string
}

// Transport performs manager HTTP calls. Errors are reserved for requests
// that produced no HTTP response at all.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*RawResponse, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*RawResponse, error)

func (f TransportFunc) RoundTrip(ctx context.Context, req *Request) (*RawResponse, error) {
	return f(ctx, req)
}
