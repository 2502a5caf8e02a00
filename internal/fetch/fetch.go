// Package fetch wraps the clerk's disclosure endpoints behind typed clients.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotAvailable means the remote answered with a non-2xx status. For a
// yearly archive this is the authoritative "year does not exist yet" signal;
// for an individual filing it means "document unavailable, skip".
var ErrNotAvailable = errors.New("resource not available")

// Config controls the HTTP clients for both disclosure endpoints.
type Config struct {
	ArchiveBaseURL  string
	DocumentBaseURL string
	UserAgent       string
	Timeout         time.Duration
	// Retry settings apply to document fetches only; a one-off 5xx from
	// the clerk's site must not look like the end of a reporting year.
	RetryCount   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// ArchiveClient fetches the yearly financial-disclosure archive.
type ArchiveClient struct {
	client *resty.Client
}

// NewArchiveClient builds a client for the yearly archive endpoint. No
// retries here: the first non-2xx terminates year discovery.
func NewArchiveClient(cfg Config) *ArchiveClient {
	client := resty.New().
		SetBaseURL(cfg.ArchiveBaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)
	return &ArchiveClient{client: client}
}

// YearArchive downloads the zip archive for one reporting year. Returns
// ErrNotAvailable when the year does not exist (yet).
func (c *ArchiveClient) YearArchive(ctx context.Context, year int) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%dFD.zip", year))
	if err != nil {
		return nil, fmt.Errorf("fetch archive for %d: %w", year, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("archive for %d returned %d: %w", year, resp.StatusCode(), ErrNotAvailable)
	}
	return resp.Body(), nil
}

// DocumentClient fetches individual filing PDFs.
type DocumentClient struct {
	client *resty.Client
}

// NewDocumentClient builds a client for the per-filing PDF endpoint with
// bounded retry and backoff on 5xx responses.
func NewDocumentClient(cfg Config) *DocumentClient {
	client := resty.New().
		SetBaseURL(cfg.DocumentBaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitMin).
		SetRetryMaxWaitTime(cfg.RetryWaitMax).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() >= 500
		})
	return &DocumentClient{client: client}
}

// Filing downloads one filing PDF by document id, scoped by year. Returns
// ErrNotAvailable for any non-2xx final status.
func (c *DocumentClient) Filing(ctx context.Context, year int, docID string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%d/%s.pdf", year, docID))
	if err != nil {
		return nil, fmt.Errorf("fetch filing %s for %d: %w", docID, year, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("filing %s returned %d: %w", docID, resp.StatusCode(), ErrNotAvailable)
	}
	return resp.Body(), nil
}
