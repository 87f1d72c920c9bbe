package arudapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/domain"
)

// Timeout is the fixed ceiling for one request; no retry follows it.
const Timeout = 30 * time.Second

// maxBody bounds how much of a response is read.
const maxBody = 8 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: Timeout,
		},
		logger: logger.Named("arudapi"),
	}
}

// envelope is the response shape shared by analyze, bahr and validate
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	IsValid *bool           `json:"is_valid"`
}

// Analyze submits the verses for prosody analysis
func (c *Client) Analyze(ctx context.Context, verses []string) (*domain.Analysis, error) {
	env, err := c.call(ctx, http.MethodPost, "/analyze", map[string][]string{"verses": verses})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(env.Data)) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil, &domain.APIError{StatusCode: http.StatusOK, Message: env.Error}
	}

	analysis, err := domain.DecodeAnalysis(env.Data)
	if err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return analysis, nil
}

// BahrInfo retrieves the name and foot pattern of a meter
func (c *Client) BahrInfo(ctx context.Context, name string) (*domain.BahrInfo, error) {
	env, err := c.call(ctx, http.MethodGet, "/bahr/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}

	var info domain.BahrInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		return nil, fmt.Errorf("decode bahr info: %w", err)
	}
	return &info, nil
}

// Validate asks the service whether a single verse is acceptable input
func (c *Client) Validate(ctx context.Context, verse string) (bool, error) {
	env, err := c.call(ctx, http.MethodPost, "/validate", map[string]string{"verse": verse})
	if err != nil {
		return false, err
	}
	return env.IsValid != nil && *env.IsValid, nil
}

// Status reports the service liveness; the response is not enveloped
func (c *Client) Status(ctx context.Context) (*domain.ServiceStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return nil, err
	}

	var status domain.ServiceStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// call performs the request and unwraps the {success, data, error} envelope
func (c *Client) call(ctx context.Context, method, path string, payload any) (*envelope, error) {
	body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Warn("undecodable response", zap.String("path", path), zap.Error(err))
		return nil, &domain.APIError{StatusCode: http.StatusOK}
	}
	if env.Success != nil && !*env.Success {
		return nil, &domain.APIError{StatusCode: http.StatusOK, Message: env.Error}
	}
	return &env, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, &domain.TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	if len(body) > maxBody {
		c.logger.Warn("response too large",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.Int("limit", maxBody),
		)
		return nil, &domain.APIError{StatusCode: resp.StatusCode}
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &domain.APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage extracts the server-supplied error text, if any
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}
