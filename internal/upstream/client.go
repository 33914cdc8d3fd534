package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"LifeCoach/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const bodySnippetLimit = 512

// Client calls a single OpenAI-compatible chat-completion endpoint.
type Client struct {
	cfg        config.Upstream
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
}

// NewClient creates a completion client for the configured endpoint.
func NewClient(cfg config.Upstream, logger *slog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
		tracer:     otel.Tracer("lifecoach/upstream"),
		meter:      otel.Meter("lifecoach/upstream"),
	}
}

// Complete sends one chat-completion request with instruction as the system
// message and message as the user message. The configured timeout is a hard
// wall-clock bound; on expiry the in-flight call is aborted. All failures come
// back as *Error so callers can decide whether to retry.
func (c *Client) Complete(ctx context.Context, message, instruction string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "chat_completion_call")
	defer span.End()

	start := time.Now()

	reqBody := ChatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []ChatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: message},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &Error{Kind: KindMalformed, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &Error{Kind: KindMalformed, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("upstream call timed out", "timeout", c.cfg.Timeout)
			return "", &Error{Kind: KindTimeout, Err: err}
		}
		return "", &Error{Kind: KindUnavailable, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindMalformed, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		c.logger.Warn("upstream unavailable", "status", resp.StatusCode, "body", snippet(body))
		return "", &Error{Kind: KindUnavailable, Status: resp.StatusCode, Body: snippet(body)}
	case resp.StatusCode >= 400:
		c.logger.Warn("upstream rejected request", "status", resp.StatusCode, "body", snippet(body))
		return "", &Error{Kind: KindRejected, Status: resp.StatusCode, Body: snippet(body)}
	}

	var apiResp ChatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		c.logger.Warn("upstream response undecodable", "status", resp.StatusCode, "error", err)
		return "", &Error{Kind: KindMalformed, Status: resp.StatusCode, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	duration := time.Since(start)
	histogram, err := c.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(ctx, float64(duration.Milliseconds()))
	}

	c.recordUsage(ctx, apiResp.Usage)

	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		c.logger.Warn("upstream response missing content", "status", resp.StatusCode)
		return "", &Error{Kind: KindMalformed, Status: resp.StatusCode, Body: snippet(body)}
	}

	return apiResp.Choices[0].Message.Content, nil
}

// recordUsage records OpenTelemetry counters from the upstream usage object
func (c *Client) recordUsage(ctx context.Context, usage map[string]interface{}) {
	if usage == nil {
		return
	}

	for key, value := range usage {
		if intVal, ok := value.(float64); ok {
			counter, err := c.meter.Int64Counter(
				fmt.Sprintf("llm.usage.%s", key),
				metric.WithDescription(fmt.Sprintf("LLM usage metric: %s", key)),
			)
			if err != nil {
				c.logger.Warn("failed to create counter", "key", key, "error", err)
				continue
			}
			counter.Add(ctx, int64(intVal))
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func snippet(body []byte) string {
	if len(body) > bodySnippetLimit {
		body = body[:bodySnippetLimit]
	}
	return string(body)
}
