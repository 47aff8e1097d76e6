package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"ami-data/internal/amidb"
	"ami-data/internal/version"
)

// SymbolPlaceholder is replaced by the path-escaped symbol in HTTPSource URLs.
const SymbolPlaceholder = "{symbol}"

// HTTPSource downloads one CSV per symbol from a URL template such as
// https://example.com/daily/{symbol}.csv. A 404 maps to ErrNoData.
type HTTPSource struct {
	client   *resty.Client
	template string
	limiter  *intervalLimiter
}

// HTTPOptions tunes the HTTP client. Zero values keep resty defaults.
type HTTPOptions struct {
	Timeout time.Duration
	Retries int
	// MinInterval is the minimum spacing between two requests.
	MinInterval time.Duration
}

// NewHTTPSource builds a source for template. The template must contain
// SymbolPlaceholder.
func NewHTTPSource(template string, opts HTTPOptions) (*HTTPSource, error) {
	if !strings.Contains(template, SymbolPlaceholder) {
		return nil, fmt.Errorf("source url %q has no %s placeholder", template, SymbolPlaceholder)
	}
	client := resty.New().
		SetHeader("User-Agent", "ami-data/"+version.Version).
		SetHeader("Accept", "text/csv, */*").
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError || r.StatusCode() == http.StatusTooManyRequests
		})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &HTTPSource{client: client, template: template, limiter: newIntervalLimiter(opts.MinInterval)}, nil
}

func (s *HTTPSource) Name() string { return "http" }

// URL returns the request URL for symbol.
func (s *HTTPSource) URL(symbol string) string {
	return strings.ReplaceAll(s.template, SymbolPlaceholder, url.PathEscape(symbol))
}

func (s *HTTPSource) Fetch(ctx context.Context, symbol string) (io.ReadCloser, error) {
	u := s.URL(symbol)
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := s.client.R().SetContext(ctx).Get(u)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	case code != http.StatusOK:
		return nil, fmt.Errorf("get %s: status %d", u, code)
	}
	body := io.NopCloser(bytes.NewReader(resp.Body()))
	return amidb.Decompress(body, strings.SplitN(u, "?", 2)[0])
}

func (s *HTTPSource) Close() error {
	s.client.GetClient().CloseIdleConnections()
	return nil
}
