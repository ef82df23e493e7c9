// Package fetch implements the single-page HTTP fetcher using gocolly.
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// Error kinds reported by Failure.
const (
	FailTransport  = "transport"
	FailHTTPStatus = "http_status"
)

// Browser-emulating headers sent with every request. Caller-provided
// headers take precedence.
var defaultHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "ko-KR,ko;q=0.9,en;q=0.8",
	"Accept-Encoding":           "gzip, deflate, br",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// Failure is a typed fetch failure: either a non-2xx response
// (http_status, with Status set) or a transport-level error.
type Failure struct {
	Kind   string
	Status int
	Detail string
}

func (f *Failure) Error() string {
	if f.Kind == FailHTTPStatus {
		return fmt.Sprintf("fetch failed: http status %d", f.Status)
	}
	return fmt.Sprintf("fetch failed: %s", f.Detail)
}

// Document is a successfully fetched page.
type Document struct {
	URL      string
	Status   int
	Body     []byte
	Duration time.Duration
}

// Options carries per-request overrides.
type Options struct {
	Headers map[string]string
}

// Config controls client behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Client fetches chart pages. It never retries; retry policy belongs to
// the orchestrator (which currently performs none).
type Client struct {
	cfg  Config
	base *colly.Collector
}

// New builds a Client with a shared pooled transport.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	if cfg.MaxBodyBytes > 0 {
		c.MaxBodySize = cfg.MaxBodyBytes
	}
	return &Client{cfg: cfg, base: c}
}

// Fetch executes a single HTTP GET. Any non-2xx status is a Failure of
// kind http_status; network errors are kind transport. The returned
// error is always a *Failure.
func (c *Client) Fetch(ctx context.Context, url string, opts Options) (*Document, *Failure) {
	var (
		doc      Document
		respErr  error
		respCode int
	)
	start := time.Now()

	collector := c.base.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)

	collector.OnRequest(func(r *colly.Request) {
		for k, v := range defaultHeaders {
			r.Headers.Set(k, v)
		}
		for k, v := range opts.Headers {
			r.Headers.Set(k, v)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		doc = Document{
			URL:      r.Request.URL.String(),
			Status:   r.StatusCode,
			Body:     append([]byte(nil), r.Body...),
			Duration: time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			respCode = r.StatusCode
		}
		respErr = err
	})

	if failure := runVisit(ctx, collector, url, &respErr, &respCode); failure != nil {
		return nil, failure
	}
	if doc.Status < 200 || doc.Status >= 300 {
		return nil, &Failure{Kind: FailHTTPStatus, Status: doc.Status}
	}
	return &doc, nil
}

// runVisit executes the visit in a goroutine so a caller deadline can
// preempt a slow transport.
func runVisit(ctx context.Context, collector *colly.Collector, url string, respErr *error, respCode *int) *Failure {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return &Failure{Kind: FailTransport, Detail: ctx.Err().Error()}
	case err := <-done:
		if err == nil && *respErr == nil {
			return nil
		}
		if *respCode >= 300 {
			return &Failure{Kind: FailHTTPStatus, Status: *respCode}
		}
		detail := "unknown transport error"
		switch {
		case *respErr != nil:
			detail = (*respErr).Error()
		case err != nil:
			detail = err.Error()
		}
		return &Failure{Kind: FailTransport, Detail: detail}
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
