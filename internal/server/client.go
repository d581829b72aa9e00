package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/logger"
)

const (
	contentType = "application/json"
	userAgent   = "spigell/salary-predictor"

	maxLoggedBody = 512
)

// Client calls a running prediction server.
type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		logger:     logger.WithFields(log),
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Predict posts the raw records and returns one prediction per record.
func (c *Client) Predict(ctx context.Context, data []map[string]any) ([]float64, error) {
	body, err := json.Marshal(PredictRequest{Data: data})
	if err != nil {
		return nil, err
	}

	var resp PredictResponse
	if err := c.post(ctx, "/predict", "", body, &resp); err != nil {
		return nil, err
	}
	return resp.Predictions, nil
}

// PredictFile reads a {"data": [...]} document and posts it.
func (c *Client) PredictFile(ctx context.Context, fsys afero.Fs, path string) ([]float64, error) {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read payload %q: %w", path, err)
	}

	var req PredictRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode payload %q: %w", path, err)
	}
	return c.Predict(ctx, req.Data)
}

// Reload asks the server to reload its artifacts.
func (c *Client) Reload(ctx context.Context, token string) error {
	return c.post(ctx, "/reload", token, nil, nil)
}

func (c *Client) post(ctx context.Context, path, token string, body []byte, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", c.UserAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("unexpected response",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logger.TruncateForLog(string(data), maxLoggedBody)),
		)
		var apiErr APIError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("bad status: %s: %s", resp.Status, apiErr.Message)
		}
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}
	return json.Unmarshal(data, target)
}
