package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"LifeCoach/internal/config"
	"LifeCoach/internal/upstream"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Completer is the single outbound dependency of the Responder.
type Completer interface {
	Complete(ctx context.Context, message, instruction string) (string, error)
}

// Responder wraps a Completer with the retry policy and the short-message
// fast path. GenerateResponse never fails: every outcome, including exhausted
// retries, is user-displayable text.
type Responder struct {
	client Completer
	cfg    config.Retry
	logger *slog.Logger
	meter  metric.Meter

	// onBackoff is invoked with the computed wait before each retry sleep.
	onBackoff func(wait time.Duration)
}

// NewResponder creates a Responder around client with the given retry policy.
func NewResponder(client Completer, cfg config.Retry, logger *slog.Logger) *Responder {
	return &Responder{
		client: client,
		cfg:    cfg,
		logger: logger,
		meter:  otel.Meter("lifecoach/coach"),
	}
}

// GenerateResponse produces displayable text for one instruction.
//
// Empty input and input shorter than three runes short-circuit without any
// network call. Otherwise the completion client is invoked up to MaxAttempts
// times with exponential backoff; a rejected request stops immediately and
// surfaces its status code in the reply text.
func (r *Responder) GenerateResponse(ctx context.Context, message, instruction string) string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return shareMoreText
	}

	if utf8.RuneCountInString(trimmed) < shortMessageRunes {
		r.count(ctx, "coach.short_message.total")
		if reply, ok := shortReplies[trimmed]; ok {
			return reply
		}
		return tellMoreText
	}

	var text string
	op := func() error {
		out, err := r.client.Complete(ctx, message, instruction)
		if err != nil {
			var ue *upstream.Error
			if errors.As(err, &ue) && !ue.Retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		text = out
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.cfg.BaseDelay
	expo.MaxInterval = r.cfg.MaxDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0

	attempts := r.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	policy := backoff.WithMaxRetries(backoff.WithContext(expo, ctx), uint64(attempts-1))

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		r.logger.Warn("retrying upstream call", "error", err, "wait", wait)
		r.count(ctx, "coach.retry.total")
		if r.onBackoff != nil {
			r.onBackoff(wait)
		}
	})
	if err == nil {
		return text
	}

	var ue *upstream.Error
	if errors.As(err, &ue) && ue.Kind == upstream.KindRejected {
		return fmt.Sprintf(rejectedFormat, ue.Status)
	}

	r.logger.Error("upstream retries exhausted", "attempts", attempts, "error", err)
	return exhaustedText
}

func (r *Responder) count(ctx context.Context, name string) {
	counter, err := r.meter.Int64Counter(name)
	if err != nil {
		return
	}
	counter.Add(ctx, 1)
}
