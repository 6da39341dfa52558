// Package llm calls the Azure OpenAI chat completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finsight/internal/common/config"
	apperrors "finsight/internal/common/errors"
	"finsight/internal/common/logger"
)

var (
	ErrLLMTimeout       = errors.New("LLM_TIMEOUT")
	ErrLLMRequestFailed = errors.New("LLM_REQUEST_FAILED")
)

// Completer sends a single-message prompt and returns the model's reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFrom(cfg config.LLMConfig) *Config {
	return &Config{
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		APIVersion: cfg.APIVersion,
		Model:      cfg.Model,
		Timeout:    cfg.LLMTimeout(),
		MaxRetries: cfg.MaxRetries,
	}
}

type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "llm",
			"model":     config.Model,
		}),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) completionsURL() string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.config.Endpoint, "/"),
		url.PathEscape(c.config.Model),
		url.QueryEscape(c.config.APIVersion),
	)
}

// Complete sends prompt as a single user message. The configured timeout bounds
// the whole call including retries.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", apperrors.NewLLMRequestFailedError(fmt.Errorf("%w: %v", ErrLLMRequestFailed, err))
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", c.timeoutError(ctx.Err())
			}
			c.logger.Warn("retrying model call", map[string]interface{}{
				"attempt": attempt,
				"error":   lastErr,
			})
		}

		content, err := c.do(ctx, body)
		if err == nil {
			return content, nil
		}
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return "", c.timeoutError(err)
		}
		lastErr = err
	}

	return "", apperrors.NewLLMRequestFailedError(fmt.Errorf("%w: %v", ErrLLMRequestFailed, lastErr))
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionsURL(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode error: %v", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) timeoutError(err error) error {
	c.logger.Error("model call timed out", map[string]interface{}{
		"timeout": c.config.Timeout.String(),
	})
	return apperrors.NewLLMTimeoutError(fmt.Errorf("%w: %v", ErrLLMTimeout, err))
}
