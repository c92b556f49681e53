// Package practicum is a minimal client for the homework status endpoint.
package practicum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	logx "homeworkbot/pkg/logx"
)

const (
	DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

	maxBodyBytes   = 4 << 20
	logPayloadSize = 1024
)

type Config struct {
	Endpoint string
	Token    string
	// Timeout bounds one request. Zero means no client-side timeout.
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

type Client struct {
	endpoint string
	token    string
	httpc    *http.Client
	log      logx.Logger
}

func New(cfg Config, log logx.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("practicum endpoint: %w", err)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("practicum token is empty")
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		httpc:    httpc,
		log:      log.With(logx.String("comp", "practicum")),
	}, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

// Fetch asks for every homework changed since the from cursor (Unix seconds)
// and returns the decoded JSON document. Numbers are kept as json.Number.
func (c *Client) Fetch(ctx context.Context, from int64) (any, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &ConnectionError{Endpoint: c.endpoint, Err: err}
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(from, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, &ConnectionError{Endpoint: c.endpoint, Err: err}
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("requesting homework statuses", logx.Int64("from_date", from))

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &ConnectionError{Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ConnectionError{Endpoint: c.endpoint, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Endpoint: c.endpoint,
			Code:     resp.StatusCode,
			Body:     logx.Truncate(strings.TrimSpace(string(body)), logPayloadSize),
		}
	}

	payload, err := decode(body)
	if err != nil {
		return nil, &PayloadError{Err: err}
	}

	c.log.Debug("homework statuses received",
		logx.Int("status", resp.StatusCode),
		logx.Duration("took", time.Since(start)),
		logx.String("payload", logx.Truncate(string(body), logPayloadSize)),
	)
	return payload, nil
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON document")
	}
	return v, nil
}
