// Package llm talks to an OpenAI-compatible chat completion endpoint and
// builds the translate and generate-note features on top of it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultEndpoint  = "https://models.github.ai/inference"
	DefaultModel     = "openai/gpt-4.1-mini"
	DefaultTimeout   = 30 * time.Second
	defaultMaxTokens = 2000
)

// ConfigurationError is returned by New when a required setting is
// missing. No request is made.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return e.Setting + " is required"
}

// StatusError is a non-2xx answer from the endpoint.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.StatusCode == http.StatusTooManyRequests {
		return fmt.Sprintf("rate limited (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Config holds the endpoint settings.
type Config struct {
	Token     string
	Endpoint  string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the text of the first choice plus token usage.
type Completion struct {
	Content string
	Usage   *Usage
}

// Options tune a single Complete call.
type Options struct {
	Temperature float64
	TopP        float64
	// MaxRetries is the total number of attempts.
	MaxRetries int
	// BackoffFactor is the base of the wait between attempts: the wait
	// before attempt n+1 is BackoffFactor^(n-1) seconds.
	BackoffFactor float64
}

func DefaultOptions() Options {
	return Options{Temperature: 1.0, TopP: 1.0, MaxRetries: 3, BackoffFactor: 2.0}
}

// Client is safe for concurrent use.
type Client struct {
	cfg   Config
	url   string
	http  *http.Client
	sleep func(ctx context.Context, d time.Duration) error
	log   zerolog.Logger
}

// New validates cfg and returns a client. A missing token yields a
// *ConfigurationError.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, &ConfigurationError{Setting: "GITHUB_TOKEN"}
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	return &Client{
		cfg:   cfg,
		url:   strings.TrimRight(cfg.Endpoint, "/") + "/chat/completions",
		http:  &http.Client{},
		sleep: sleepContext,
		log:   log.With().Str("component", "llm").Logger(),
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends messages and returns the first choice. Rate limiting
// (429) and transport failures are retried with exponential backoff up to
// opts.MaxRetries attempts; other HTTP errors fail immediately. When
// attempts run out the last error is returned unchanged.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (Completion, error) {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 1 {
			wait := backoff(opts.BackoffFactor, attempt-2)
			c.log.Warn().Err(lastErr).Int("attempt", attempt).Dur("wait", wait).Msg("retrying chat completion")
			if err := c.sleep(ctx, wait); err != nil {
				return Completion{}, err
			}
		}

		res, retry, err := c.attempt(ctx, body)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !retry {
			return Completion{}, err
		}
		if ctx.Err() != nil {
			return Completion{}, lastErr
		}
	}

	c.log.Error().Err(lastErr).Int("attempts", opts.MaxRetries).Msg("chat completion failed")
	return Completion{}, lastErr
}

// attempt performs one HTTP round trip. retry reports whether the failure
// is worth another attempt.
func (c *Client) attempt(ctx context.Context, body []byte) (res Completion, retry bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Completion{}, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return Completion{}, true, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, true, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(respBody))
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return Completion{}, resp.StatusCode == http.StatusTooManyRequests,
			&StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Completion{}, false, fmt.Errorf("decoding response: %w", err)
	}
	if len(out.Choices) == 0 {
		return Completion{}, false, errors.New("response has no choices")
	}
	return Completion{Content: out.Choices[0].Message.Content, Usage: out.Usage}, false, nil
}

func backoff(factor float64, exp int) time.Duration {
	return time.Duration(math.Pow(factor, float64(exp)) * float64(time.Second))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
