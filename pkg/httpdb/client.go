// Package httpdb implements the HTTP client pool (C1): authenticated,
// pooled, keep-alive connections to one or more document-graph database
// endpoints, with request retry and response framing.
package httpdb

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	apperrors "github.com/arangoml/phenolrs-go/pkg/errors"
)

// Config configures one database endpoint set's connection pool.
type Config struct {
	Endpoints []string

	AuthMode string // "basic" or "jwt"
	Username string
	Password string
	JWTToken string

	// TLSCertPEM is an opaque PEM certificate bundle, not a file path,
	// mirroring original_source/graph_loader.py's db_config_options
	// ["tls_cert"] (supplemented feature, see SPEC_FULL.md §4.5).
	TLSCertPEM  []byte
	TLSInsecure bool

	Timeout    time.Duration
	MaxRetries int
}

// DefaultConfig returns spec.md §4.1/§5's defaults: 3 retries, 60s timeout.
func DefaultConfig(endpoints []string) Config {
	return Config{
		Endpoints:  endpoints,
		AuthMode:   "basic",
		Timeout:    60 * time.Second,
		MaxRetries: 3,
	}
}

// Pool rotates requests round-robin across its endpoints through one shared,
// connection-pooling HTTP client, with one retry and authentication policy.
type Pool struct {
	cfg       Config
	client    *http.Client
	endpoints []string
	next      atomic.Uint64

	token string // resolved bearer token, set once on first use
}

// NewPool builds a connection pool from cfg. The underlying http.Client
// reuses keep-alive connections across requests to every endpoint.
func NewPool(cfg Config) (*Pool, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, apperrors.New(apperrors.CodeRequestInvalid, "httpdb: at least one endpoint is required")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	transport.MaxConnsPerHost = 64
	transport.IdleConnTimeout = 90 * time.Second

	if len(cfg.TLSCertPEM) > 0 || cfg.TLSInsecure {
		tlsCfg := &tls.Config{InsecureSkipVerify: cfg.TLSInsecure} //nolint:gosec // explicit opt-in via TLSInsecure
		if len(cfg.TLSCertPEM) > 0 {
			pool := x509.NewCertPool()
			if ok := pool.AppendCertsFromPEM(cfg.TLSCertPEM); !ok {
				return nil, apperrors.New(apperrors.CodeRequestInvalid, "httpdb: invalid TLS certificate bundle")
			}
			tlsCfg.RootCAs = pool
		}
		transport.TLSClientConfig = tlsCfg
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	cfg.Timeout = timeout
	cfg.MaxRetries = maxRetries

	return &Pool{
		cfg:       cfg,
		client:    &http.Client{Transport: transport, Timeout: timeout},
		endpoints: cfg.Endpoints,
		token:     cfg.JWTToken,
	}, nil
}

// endpoint picks the next endpoint round-robin.
func (p *Pool) endpoint() string {
	i := p.next.Add(1) - 1
	return p.endpoints[i%uint64(len(p.endpoints))]
}

// authenticate resolves a bearer token via POST /_open/auth on first use
// when AuthMode is "jwt" and no token was supplied up front.
func (p *Pool) authenticate(ctx context.Context) error {
	if p.cfg.AuthMode != "jwt" || p.token != "" {
		return nil
	}
	body, _ := json.Marshal(map[string]string{
		"username": p.cfg.Username,
		"password": p.cfg.Password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint()+"/_open/auth", bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeTransport, "httpdb: building auth request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeTransport, "httpdb: auth request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.New(apperrors.CodeAuth, fmt.Sprintf("httpdb: auth rejected with status %d", resp.StatusCode))
	}

	var parsed struct {
		JWT string `json:"jwt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return apperrors.Wrap(apperrors.CodeDecode, "httpdb: decoding auth response", err)
	}
	p.token = parsed.JWT
	return nil
}

// setAuthHeader applies the resolved bearer token, or falls back to Basic,
// preferring bearer as spec.md §4.1 specifies.
func (p *Pool) setAuthHeader(req *http.Request) {
	if p.token != "" {
		req.Header.Set("Authorization", "bearer "+p.token)
		return
	}
	if p.cfg.Username != "" {
		req.SetBasicAuth(p.cfg.Username, p.cfg.Password)
	}
}

// Do issues method/path/body against the pool with failover across
// endpoints and up to MaxRetries retries after the first attempt, exponential backoff with
// jitter, and decodes the JSON response body into out.
func (p *Pool) Do(ctx context.Context, method, path string, body any, out any) error {
	if err := p.authenticate(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeRequestInvalid, "httpdb: encoding request body", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
			jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
			select {
			case <-ctx.Done():
				return apperrors.Wrap(apperrors.CodeTransport, "httpdb: context cancelled during backoff", ctx.Err())
			case <-time.After(backoff + jitter):
			}
		}

		endpoint := p.endpoint()
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint+path, reqBody)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeTransport, "httpdb: building request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept-Encoding", "gzip, zstd")
		p.setAuthHeader(req)

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = apperrors.Wrap(apperrors.CodeTransport, fmt.Sprintf("httpdb: request to %s failed", endpoint), err)
			continue
		}

		err = p.handleResponse(resp, out)
		resp.Body.Close()
		if err == nil {
			return nil
		}
		if apperrors.Is(err, apperrors.CodeAuth) || apperrors.Is(err, apperrors.CodeDecode) {
			// Not a transient transport failure: fail fast per spec.md §7.
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (p *Pool) handleResponse(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeTransport, "httpdb: reading response body", err)
	}

	decoded, err := decodeBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDecode, "httpdb: decompressing response", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return apperrors.New(apperrors.CodeAuth, fmt.Sprintf("httpdb: authentication rejected (status %d)", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := decoded
		if len(excerpt) > 256 {
			excerpt = excerpt[:256]
		}
		return apperrors.New(apperrors.CodeHTTPStatus, fmt.Sprintf("httpdb: unexpected status %d: %s", resp.StatusCode, excerpt))
	}

	if out == nil || len(decoded) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded, out); err != nil {
		return apperrors.Wrap(apperrors.CodeDecode, "httpdb: unmarshalling response body", err)
	}
	return nil
}
