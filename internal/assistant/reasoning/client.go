// Package reasoning talks to the remote chat-completion service with retries,
// exponential backoff and a local knowledge fallback.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/bu-online/assistant/internal/assistant/knowledge"
	"github.com/bu-online/assistant/internal/assistant/model"
	errx "github.com/bu-online/assistant/internal/core/error"
	logx "github.com/bu-online/assistant/pkg/logger"
)

const maxResponseBytes = 4 << 20

// Source tells where an Answer came from.
type Source string

const (
	SourceLocal    Source = "local"
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
	SourceDegraded Source = "degraded"
)

// Answer is always usable as a reply. Err carries the last failure for diagnostics
// when the remote service was tried and failed.
type Answer struct {
	Text     string
	Source   Source
	Attempts int
	Err      error
}

// Recorder observes attempts and answers. metrics.Recorder implements it.
type Recorder interface {
	ObserveAttempt(outcome string, d time.Duration)
	ObserveAnswer(source string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, time.Duration) {}
func (nopRecorder) ObserveAnswer(string)                 {}

// SleepFunc waits d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Client struct {
	cfg            model.ReasoningConfig
	session        *Session
	knowledge      *knowledge.Table
	fallback       *knowledge.Table
	systemPrompt   string
	completionsURL string
	modelsURL      string
	sleep          SleepFunc
	recorder       Recorder
}

type Option func(*Client)

func WithSleep(fn SleepFunc) Option {
	return func(c *Client) { c.sleep = fn }
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithFallback sets the table consulted after retries are exhausted.
// It defaults to the table checked before the first attempt.
func WithFallback(kb *knowledge.Table) Option {
	return func(c *Client) {
		if kb != nil {
			c.fallback = kb
		}
	}
}

func NewClient(ctx context.Context, cfg model.ReasoningConfig, kb *knowledge.Table, opts ...Option) (*Client, error) {
	system, err := RenderSystemPrompt(ctx, cfg.Persona)
	if err != nil {
		return nil, err
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{
		cfg:            cfg,
		knowledge:      kb,
		fallback:       kb,
		systemPrompt:   system,
		completionsURL: base + "/chat/completions",
		modelsURL:      base + "/models",
		sleep:          sleepContext,
		recorder:       nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.session = NewSession(SessionConfig{
		APIKey:         cfg.APIKey,
		UserAgent:      cfg.UserAgent,
		MaxConns:       cfg.MaxConns,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	return c, nil
}

// Session exposes the owned session for warm-up and inspection.
func (c *Client) Session() *Session {
	return c.session
}

// Ask answers prompt locally when the knowledge base matches, otherwise asks the
// remote service and degrades to the knowledge base or a service-error text.
func (c *Client) Ask(ctx context.Context, prompt string) Answer {
	httpClient := c.session.Ensure()

	if text, ok := c.knowledge.Lookup(prompt); ok {
		logx.Debug().Msg("answered from local knowledge")
		return c.answer(Answer{Text: text, Source: SourceLocal})
	}

	body, err := json.Marshal(c.buildRequest(prompt))
	if err != nil {
		return c.degraded(fmt.Errorf("marshal request: %w", err), 0)
	}

	attempts := c.cfg.Retries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	made := 0
	for attempt := 0; attempt < attempts; attempt++ {
		made++
		started := time.Now()
		text, usage, err := c.send(ctx, httpClient, body)
		if err == nil {
			c.recorder.ObserveAttempt("success", time.Since(started))
			c.logUsage(usage)
			return c.answer(Answer{Text: text, Source: SourceRemote, Attempts: made})
		}
		c.recorder.ObserveAttempt("failure", time.Since(started))

		lastErr = err
		logx.Error().Err(err).Int("attempt", attempt+1).Int("max_attempts", attempts).Msg("reasoning attempt failed")

		if attempt == attempts-1 || ctx.Err() != nil {
			break
		}
		if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
			break
		}
	}

	if text, ok := c.fallback.Lookup(prompt); ok {
		return c.answer(Answer{Text: text, Source: SourceFallback, Attempts: made, Err: lastErr})
	}
	return c.degraded(lastErr, made)
}

func (c *Client) degraded(lastErr error, attempts int) Answer {
	reason := "неизвестная ошибка"
	if lastErr != nil {
		reason = lastErr.Error()
	}
	text := "⚠️ Ошибка сервиса: " + reason
	return c.answer(Answer{
		Text:     text,
		Source:   SourceDegraded,
		Attempts: attempts,
		Err:      errx.New(errx.ServiceDegraded, lastErr, text),
	})
}

func (c *Client) answer(a Answer) Answer {
	c.recorder.ObserveAnswer(string(a.Source))
	return a
}

// backoff is BackoffUnit * BackoffBase^attempt, attempt being zero-based.
func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(c.cfg.BackoffBase, float64(attempt)) * float64(c.cfg.BackoffUnit))
}

func (c *Client) buildRequest(prompt string) completionRequest {
	if limit := c.cfg.MaxPromptRunes; limit > 0 {
		if r := []rune(prompt); len(r) > limit {
			prompt = string(r[:limit])
		}
	}
	msgs := []*schema.Message{
		schema.SystemMessage(c.systemPrompt),
		schema.UserMessage(prompt),
	}
	return completionRequest{
		Model:       c.cfg.Model,
		Messages:    toWireMessages(msgs),
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      false,
	}
}

func (c *Client) send(ctx context.Context, hc *http.Client, body []byte) (string, *schema.TokenUsage, error) {
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionsURL, bytes.NewReader(body))
	if err != nil {
		return "", nil, errx.New(errx.TransportFailure, err, "build request")
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", nil, errx.New(errx.TransportFailure, err, "request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", nil, errx.New(errx.TransportFailure, err, "read response")
	}
	logx.Debug().Int("status", resp.StatusCode).Int("bytes", len(raw)).Msg("reasoning response received")

	var parsed completionResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := "Unknown error"
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", nil, errx.Newf(errx.TransportFailure, "API Error %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", nil, errx.New(errx.TransportFailure, decodeErr, "invalid response body")
	}
	if len(parsed.Choices) == 0 {
		return "", nil, errx.Newf(errx.TransportFailure, "response has no choices")
	}
	return parsed.Choices[0].Message.Content, parsed.Usage.tokenUsage(), nil
}

func (c *Client) logUsage(usage *schema.TokenUsage) {
	if usage == nil {
		return
	}
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(c.cfg.Model))
	logx.Debug().
		Str("model", c.cfg.Model).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

// CheckHealth probes the models endpoint. Any fault reports false.
func (c *Client) CheckHealth(ctx context.Context) bool {
	hc := c.session.Ensure()
	if c.cfg.HealthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.HealthTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelsURL, nil)
	if err != nil {
		logx.Error().Err(err).Msg("connection check failed")
		return false
	}
	resp, err := hc.Do(req)
	if err != nil {
		logx.Error().Err(err).Msg("connection check failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return resp.StatusCode == http.StatusOK
}

// Shutdown releases the session. It is idempotent.
func (c *Client) Shutdown() {
	c.session.Close()
}
