// Package fetch implements the HTTP GET primitive using gocolly.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher performs single HTTP GETs with typed error reporting.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Fetcher{cfg: cfg, baseCollector: c}
}

// Get fetches url and returns the response body. A non-200 response yields a
// *pipeline.FetchError carrying the status code and url.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode != 200 {
			fetchErr = &pipeline.FetchError{StatusCode: r.StatusCode, URL: url}
			return
		}
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			fetchErr = &pipeline.FetchError{StatusCode: r.StatusCode, URL: url}
			return
		}
		fetchErr = fmt.Errorf("get %s: %w", url, err)
	})

	if err := collector.Visit(url); err != nil {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	return body, nil
}
