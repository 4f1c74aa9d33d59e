// Package iooracle implements the Oracle interface on top of a
// GLM chat-completions endpoint.
// This is an impure I/O package that performs network requests.
package iooracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gntaxid "github.com/gnames/gntaxid/pkg"
	"github.com/gnames/gntaxid/pkg/config"
	"github.com/gnames/gntaxid/pkg/oracle"
	"github.com/gnames/gntaxid/pkg/record"
)

const (
	// maxAttempts bounds the number of tries for one conversion.
	maxAttempts = 3

	// retryDelay grows linearly between attempts: 2s, then 4s.
	retryDelay = 2 * time.Second

	// requestInterval throttles outgoing requests.
	requestInterval = 500 * time.Millisecond
)

// client implements the Oracle interface.
type client struct {
	cfg        *config.Config
	httpClient *http.Client

	// retry and throttle knobs, shortened in tests
	retryDelay      time.Duration
	requestInterval time.Duration

	mu          sync.Mutex
	lastRequest time.Time

	cacheMu sync.Mutex
	cache   map[string]string
}

// New creates an Oracle backed by the configured chat-completions
// service. It fails if the API key is not set.
func New(cfg *config.Config) (gntaxid.Oracle, error) {
	if cfg.Oracle.APIKey == "" {
		return nil, APIKeyMissingError()
	}
	res := &client{
		cfg:             cfg,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		retryDelay:      retryDelay,
		requestInterval: requestInterval,
		cache:           make(map[string]string),
	}
	return res, nil
}

// Convert translates a name between naming conventions. Successful
// conversions are cached, so a name repeated through a batch costs
// one network call.
func (c *client) Convert(
	ctx context.Context,
	name string,
	dir oracle.Direction,
) (string, error) {
	name = record.Clean(name)
	if name == "" {
		return "", fmt.Errorf("cannot convert an empty name")
	}

	key := dir.String() + "|" + name
	c.cacheMu.Lock()
	res, ok := c.cache[key]
	c.cacheMu.Unlock()
	if ok {
		return res, nil
	}

	res, err := c.convert(ctx, name, dir)
	if err != nil {
		return "", err
	}

	c.cacheMu.Lock()
	c.cache[key] = res
	c.cacheMu.Unlock()
	return res, nil
}

// convert runs the retry loop for one name. Transport failures,
// rate limits, service errors and empty completions consume
// attempts; definitive answers ("unrecognizable", ambiguous lists)
// return immediately.
func (c *client) convert(
	ctx context.Context,
	name string,
	dir oracle.Direction,
) (string, error) {
	payload, err := json.Marshal(c.request(name, dir))
	if err != nil {
		return "", RequestError(err)
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			slog.Warn("Retrying name conversion",
				"name", name,
				"direction", dir.String(),
				"attempt", i+1,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(i) * c.retryDelay):
			}
		}

		raw, retriable, err := c.attempt(ctx, payload)
		if err != nil {
			if !retriable {
				return "", err
			}
			lastErr = err
			continue
		}

		var ans string
		ans, err = oracle.Sanitize(raw)
		switch {
		case err == nil:
			return ans, nil
		case errors.Is(err, oracle.ErrEmptyAnswer):
			lastErr = err
		default:
			return "", err
		}
	}

	if errors.Is(lastErr, oracle.ErrEmptyAnswer) {
		return "", AnswerError(name, lastErr)
	}
	return "", ConversionError(name, maxAttempts, lastErr)
}

// attempt performs a single request. The boolean reports whether
// a failure is worth retrying.
func (c *client) attempt(
	ctx context.Context,
	payload []byte,
) (string, bool, error) {
	c.throttle()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.cfg.Oracle.BaseURL+"/chat/completions",
		bytes.NewReader(payload),
	)
	if err != nil {
		return "", false, RequestError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Oracle.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("cannot read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", true, fmt.Errorf("rate limited (429)")
	case resp.StatusCode >= 500:
		return "", true, fmt.Errorf("service error (%d)", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", false, BadStatusError(resp.StatusCode, body)
	}

	var cr chatResponse
	if err = json.Unmarshal(body, &cr); err != nil {
		return "", true, fmt.Errorf("malformed response: %w", err)
	}
	if cr.Error != nil {
		return "", false, ResponseError(cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", true, fmt.Errorf("no completion returned")
	}
	return cr.Choices[0].Message.Content, false, nil
}

// throttle enforces a minimum interval between outgoing requests.
func (c *client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.requestInterval {
		time.Sleep(c.requestInterval - elapsed)
	}
	c.lastRequest = time.Now()
}

func (c *client) request(name string, dir oracle.Direction) chatRequest {
	return chatRequest{
		Model: c.cfg.Oracle.Model,
		Messages: []chatMessage{
			{Role: "user", Content: oracle.Prompt(name, dir)},
		},
		MaxTokens:   c.cfg.Oracle.MaxTokens,
		Temperature: c.cfg.Oracle.Temperature,
		Thinking:    &chatThinking{Type: "disabled"},
	}
}

// chatRequest is the chat-completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
	Thinking    *chatThinking `json:"thinking,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatThinking turns off the model's reasoning mode, it only slows
// down short conversions.
type chatThinking struct {
	Type string `json:"type"`
}

// chatResponse is the chat-completions response body.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
