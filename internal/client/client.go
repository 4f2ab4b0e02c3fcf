// Package client talks to the timekeeping API on behalf of one worker.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"timekeeping-backend/config"
	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/projector"
	"timekeeping-backend/internal/shift"
)

// Client is an authenticated API client. It implements projector.Dispatcher.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

var _ projector.Dispatcher = (*Client)(nil)

// New creates a client from the client section of the configuration.
func New(cfg *config.ClientConfig, logger *zap.Logger) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			logger.Warn("invalid proxy URL, client will not use a proxy",
				zap.String("proxy", cfg.HTTPProxy), zap.Error(err))
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}
}

// Dispatch sends a worker action and returns the record the server confirmed.
func (c *Client) Dispatch(ctx context.Context, cmd projector.Command) (*model.Shift, error) {
	var (
		path string
		body interface{}
	)
	switch cmd.Action {
	case projector.ActionClockIn:
		path = "/api/shifts"
		body = map[string]*string{"project_id": cmd.ProjectID}
	case projector.ActionStartBreak:
		path = "/api/shifts/" + url.PathEscape(cmd.EntryID) + "/breaks/start"
	case projector.ActionEndBreak:
		path = "/api/shifts/" + url.PathEscape(cmd.EntryID) + "/breaks/end"
	case projector.ActionClockOut:
		path = "/api/shifts/" + url.PathEscape(cmd.EntryID) + "/clock-out"
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown action %q", cmd.Action))
	}

	var rec model.Shift
	if err := c.do(ctx, http.MethodPost, path, body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Current returns the worker's active shift, or nil when clocked out.
func (c *Client) Current(ctx context.Context) (*model.Shift, error) {
	var resp struct {
		Shift *model.Shift `json:"shift"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/shifts/active", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Shift, nil
}

// Summary returns the worker's activity over the last days days.
func (c *Client) Summary(ctx context.Context, days int) (*shift.Summary, error) {
	var sum shift.Summary
	if err := c.do(ctx, http.MethodGet, "/api/shifts/summary?days="+strconv.Itoa(days), nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apperr.Response
		if json.Unmarshal(raw, &apiErr) == nil {
			if err := apperr.FromResponse(apiErr); err != nil {
				return err
			}
		}
		c.logger.Debug("unexpected response", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("received status code %d from %s", resp.StatusCode, path)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal api response: %w", err)
	}
	return nil
}
