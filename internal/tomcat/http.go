package tomcat

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lydakis/tomcat-manager/internal/httpheaders"
)

// TLSOptions configures client certificates and server verification.
type TLSOptions struct {
	// Cert is a PEM file holding the client certificate. When Key is empty
	// the same file must also hold the private key.
	Cert string
	Key  string
	// CACert is a PEM bundle used instead of the system roots.
	CACert string
	// Insecure disables server certificate verification.
	Insecure bool
}

func (o TLSOptions) isZero() bool {
	return o == TLSOptions{}
}

// HTTPOptions configures an HTTPTransport.
type HTTPOptions struct {
	TLS       TLSOptions
	Headers   map[string]string
	UserAgent string
	Logger    *slog.Logger
}

// HTTPTransport is the net/http Transport.
type HTTPTransport struct {
	client    *http.Client
	headers   map[string]string
	userAgent string
	logger    *slog.Logger
}

// NewHTTPTransport builds a transport, loading any certificate files named in opts.
func NewHTTPTransport(opts HTTPOptions) (*HTTPTransport, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if !opts.TLS.isZero() {
		tlsCfg, err := buildTLSConfig(opts.TLS)
		if err != nil {
			return nil, err
		}
		base.TLSClientConfig = tlsCfg
	}

	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "tomcat-manager"
	}

	return &HTTPTransport{
		client:    &http.Client{Transport: base},
		headers:   httpheaders.Merge(nil, opts.Headers, true),
		userAgent: userAgent,
		logger:    logger,
	}, nil
}

func buildTLSConfig(opts TLSOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.Insecure, //nolint:gosec
	}

	if opts.Cert != "" {
		keyFile := opts.Key
		if keyFile == "" {
			keyFile = opts.Cert
		}
		cert, err := tls.LoadX509KeyPair(opts.Cert, keyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate %s: %w", opts.Cert, err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if opts.CACert != "" {
		pem, err := os.ReadFile(opts.CACert)
		if err != nil {
			return nil, fmt.Errorf("reading ca bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ca bundle %s: no certificates found", opts.CACert)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// RoundTrip sends req and reads the whole body as text.
func (t *HTTPTransport) RoundTrip(ctx context.Context, req *Request) (*RawResponse, error) {
	target := req.URL
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, req.Body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if req.Body != nil {
		httpReq.ContentLength = req.ContentLength
		httpReq.Header.Set("Content-Type", "application/octet-stream")
	}
	httpheaders.Apply(httpReq.Header, t.headers)
	httpReq.Header.Set("User-Agent", t.userAgent)
	if req.User != "" || req.Password != "" {
		httpReq.SetBasicAuth(req.User, req.Password)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-Id", requestID)
	logger := t.logger.With(slog.String("request_id", requestID))
	logger.Debug("manager request", slog.String("method", method), slog.String("url", redactQuery(target)))

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		logger.Debug("manager request failed", slog.String("error", err.Error()))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	logger.Debug("manager response",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
		URL:        resp.Request.URL.String(),
	}, nil
}

func redactQuery(target string) string {
	base, _, _ := strings.Cut(target, "?")
	return base
}
