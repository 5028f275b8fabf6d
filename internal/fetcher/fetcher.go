package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Result is the contract of one completed fetch: the exact bytes received,
// the response headers, the status code, and the final URL after redirects.
// It is never persisted.
type Result struct {
	Body       []byte
	Headers    http.Header
	StatusCode int
	FinalURL   string
}

// Client retrieves raw content for a health check.
type Client interface {
	Fetch(ctx context.Context, url string, verifyTLS bool) (Result, error)
}

// Options parameterise the HTTP fetcher.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
}

// HTTP fetches content over plain HTTP GET with bounded immediate retries.
// A non-2xx response is not an error; it is surfaced through the Result so
// the check engine can classify it.
type HTTP struct {
	opts     Options
	client   *http.Client
	insecure *http.Client
	logger   zerolog.Logger
}

// NewHTTP constructs an HTTP fetcher.
func NewHTTP(opts Options, logger zerolog.Logger) *HTTP {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "sitewatch/1.0"
	}

	insecureTransport := http.DefaultTransport.(*http.Transport).Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &HTTP{
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		insecure: &http.Client{Timeout: opts.Timeout, Transport: insecureTransport},
		logger:   logger.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch retrieves url, retrying transport failures up to MaxRetries times
// with no backoff before surfacing the last error.
func (f *HTTP) Fetch(ctx context.Context, url string, verifyTLS bool) (Result, error) {
	client := f.client
	if !verifyTLS {
		f.logger.Warn().Str("url", url).Msg("TLS verification disabled")
		client = f.insecure
	}

	attempts := f.opts.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := f.do(ctx, client, url)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if attempt < attempts {
			f.logger.Warn().Err(err).Str("url", url).
				Int("attempt", attempt).Int("max_attempts", attempts).
				Msg("fetch failed, retrying")
		}
	}

	return Result{}, fmt.Errorf("fetch %s after %d attempts: %w", url, attempts, lastErr)
}

func (f *HTTP) do(ctx context.Context, client *http.Client, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return Result{
		Body:       body,
		Headers:    resp.Header,
		StatusCode: resp.StatusCode,
		FinalURL:   finalURL,
	}, nil
}

var _ Client = (*HTTP)(nil)
