// Package coach turns one user message into a staged, letter-style reply:
// a fast emotional comfort part answered synchronously and a slower cognitive
// analysis computed in the background and fetched later by session id.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"LifeCoach/internal/config"
	"LifeCoach/internal/session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Reply is the synchronous composite response for one chat message. Cognitive
// holds a placeholder at send time; the real analysis arrives via polling.
type Reply struct {
	Emotional  string
	Transition string
	Cognitive  string
	SessionID  string
}

// Coach orchestrates the two-stage reply. The session store is injected and
// owned by the caller; the Coach only writes finished analyses into it.
type Coach struct {
	responder *Responder
	store     *session.Store
	cfg       config.Coach
	logger    *slog.Logger
	meter     metric.Meter

	bg sync.WaitGroup
}

// New creates a Coach using responder for both instructions and store for the
// deferred cognitive results.
func New(responder *Responder, store *session.Store, cfg config.Coach, logger *slog.Logger) *Coach {
	return &Coach{
		responder: responder,
		store:     store,
		cfg:       cfg,
		logger:    logger,
		meter:     otel.Meter("lifecoach/coach"),
	}
}

// HandleChat answers message. The emotional part is generated within the sync
// budget (falling back to fixed text if it cannot), a fresh session id is
// minted, and the cognitive part is scheduled in the background. HandleChat
// never fails; the caller always gets a complete Reply.
func (c *Coach) HandleChat(ctx context.Context, message string) Reply {
	emotional := c.emotionalReply(ctx, message)
	sessionID := newSessionID()

	c.bg.Add(1)
	go c.runCognitive(sessionID, message)

	return Reply{
		Emotional:  emotional,
		Transition: TransitionLine,
		Cognitive:  CognitivePlaceholder,
		SessionID:  sessionID,
	}
}

// HandlePoll looks up the deferred analysis. ok is false while the background
// job has not finished (or the session expired); the caller should poll again.
func (c *Coach) HandlePoll(sessionID string) (text string, ok bool) {
	stored, ok := c.store.Get(sessionID)
	if !ok {
		return "", false
	}
	if !c.valid(stored) {
		return cognitiveFallbackText, true
	}
	return stored, true
}

// Wait blocks until every scheduled background job has finished.
func (c *Coach) Wait() {
	c.bg.Wait()
}

// emotionalReply runs the emotional completion under the sync budget. The
// budget expiring mid-backoff never surfaces as an error; the caller gets the
// fixed fallback text instead.
func (c *Coach) emotionalReply(ctx context.Context, message string) string {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SyncBudget)
	defer cancel()

	done := make(chan string, 1)
	go func() {
		done <- c.responder.GenerateResponse(ctx, message, InstructionEmotional)
	}()

	select {
	case text := <-done:
		if strings.TrimSpace(text) == "" {
			return emotionalFallbackText
		}
		return text
	case <-ctx.Done():
		c.logger.Warn("emotional reply missed sync budget", "budget", c.cfg.SyncBudget)
		return emotionalFallbackText
	}
}

// runCognitive computes the deep analysis detached from the request
// lifecycle. It runs to completion or exhausts its retries regardless of
// whether anyone is still polling, and the store always ends up holding
// something once it finishes.
func (c *Coach) runCognitive(sessionID, message string) {
	defer c.bg.Done()

	start := time.Now()
	text := c.responder.GenerateResponse(context.Background(), message, InstructionCognitive)
	if !c.valid(text) {
		text = cognitiveFallbackText
	}
	c.store.Put(sessionID, text, c.cfg.SessionTTL)

	c.count("coach.cognitive.completed")
	c.logger.Info("cognitive analysis stored",
		"session_id", sessionID,
		"duration", time.Since(start),
		"runes", utf8.RuneCountInString(text),
	)
}

func (c *Coach) valid(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed != "" && utf8.RuneCountInString(trimmed) >= c.cfg.MinCognitiveRunes
}

func (c *Coach) count(name string) {
	counter, err := c.meter.Int64Counter(name)
	if err != nil {
		return
	}
	counter.Add(context.Background(), 1)
}

// newSessionID mints an opaque token used only as a store key, never as a
// credential.
func newSessionID() string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixNano(), uuid.NewString()[:8])
}
