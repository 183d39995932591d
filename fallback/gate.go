package fallback

import (
	"context"
	"errors"
	"sync"
	"time"

	"casequery-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Default gate timings.
const (
	DefaultCacheTTL     = 300 * time.Second
	DefaultFallbackWait = 20 * time.Second
)

// Request is one question routed to the fallback path.
type Request struct {
	Dataset    *models.Dataset
	Question   string
	Normalized string
}

type ticket struct {
	done      chan struct{}
	answer    models.Answer
	err       error
	createdAt time.Time
}

// Gate answers through the cache first and the coordinator second.
// At most one generation is in flight per cache key; concurrent identical questions share it.
type Gate struct {
	cache          AnswerCache
	coordinator    *Coordinator
	logger         *zap.Logger
	ttl            time.Duration
	wait           time.Duration
	maxPromptChars int

	group   singleflight.Group
	mu      sync.Mutex
	tickets map[string]*ticket
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithCacheTTL sets how long generated answers are reused.
func WithCacheTTL(ttl time.Duration) GateOption {
	return func(g *Gate) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithFallbackWait bounds how long a caller waits before getting a ticket.
func WithFallbackWait(d time.Duration) GateOption {
	return func(g *Gate) {
		if d > 0 {
			g.wait = d
		}
	}
}

// WithMaxPromptChars caps the prompt length.
func WithMaxPromptChars(n int) GateOption {
	return func(g *Gate) {
		if n > 0 {
			g.maxPromptChars = n
		}
	}
}

// WithGateLogger sets the logger.
func WithGateLogger(logger *zap.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// NewGate creates a gate over cache and coordinator.
func NewGate(cache AnswerCache, coordinator *Coordinator, opts ...GateOption) *Gate {
	g := &Gate{
		cache:          cache,
		coordinator:    coordinator,
		logger:         zap.NewNop(),
		ttl:            DefaultCacheTTL,
		wait:           DefaultFallbackWait,
		maxPromptChars: DefaultMaxPromptChars,
		tickets:        make(map[string]*ticket),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Answer returns a cached or freshly generated answer.
// A generation failure yields the apology text with AnswerDegraded and a nil error; it is not cached.
// Budget exhaustion yields AnswerUnavailable together with ErrDailyBudgetExhausted.
// When generation outlasts the wait bound, the answer is AnswerPending with a ticket for Pending.
func (g *Gate) Answer(ctx context.Context, req Request) (models.Answer, error) {
	key := CacheKey(req.Normalized, req.Dataset.Version)

	if cached, err := g.cache.Get(ctx, key); err == nil {
		cached.Source = models.SourceCache
		return cached, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		g.logger.Warn("Answer cache read failed", zap.Error(err))
	}

	// The generation is detached from the caller's cancellation; duplicates and ticket polls share it.
	fillCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (interface{}, error) {
		return g.fill(fillCtx, key, req)
	})

	timer := time.NewTimer(g.wait)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.Val.(models.Answer), res.Err
	case <-timer.C:
		return g.park(ch), nil
	case <-ctx.Done():
		return models.Answer{}, ctx.Err()
	}
}

// fill generates, classifies the outcome and caches successful answers.
func (g *Gate) fill(ctx context.Context, key string, req Request) (models.Answer, error) {
	// A flight that finished between the caller's cache read and this one has already stored its answer.
	if cached, err := g.cache.Get(ctx, key); err == nil {
		cached.Source = models.SourceCache
		return cached, nil
	}

	prompt := BuildPrompt(req.Dataset, req.Question, g.maxPromptChars)

	future, err := g.coordinator.Submit(ctx, prompt)
	if err == nil {
		var text string
		text, err = future.Wait(ctx)
		if err == nil {
			answer := models.NewAnswer(text, nil)
			answer.Source = models.SourceFallback
			if err := g.cache.Set(ctx, key, answer, g.ttl); err != nil {
				g.logger.Warn("Answer cache write failed", zap.Error(err))
			}
			return answer, nil
		}
	}

	if errors.Is(err, ErrDailyBudgetExhausted) {
		g.logger.Warn("Fallback budget exhausted", zap.Error(err))
		answer := models.NewAnswer(UnavailableText, nil)
		answer.Source = models.SourceFallback
		answer.Status = models.AnswerUnavailable
		return answer, err
	}

	g.logger.Error("Fallback generation failed", zap.String("question", req.Question), zap.Error(err))
	answer := models.NewAnswer(ApologyText, nil)
	answer.Source = models.SourceFallback
	answer.Status = models.AnswerDegraded
	return answer, nil
}

// park hands the in-flight result to a new ticket.
func (g *Gate) park(ch <-chan singleflight.Result) models.Answer {
	id := uuid.NewString()
	t := &ticket{done: make(chan struct{}), createdAt: time.Now()}

	g.mu.Lock()
	g.expireTickets(t.createdAt)
	g.tickets[id] = t
	g.mu.Unlock()

	go func() {
		res := <-ch
		t.answer, t.err = res.Val.(models.Answer), res.Err
		close(t.done)
	}()

	return pendingAnswer(id)
}

func pendingAnswer(id string) models.Answer {
	answer := models.NewAnswer(PendingText, nil)
	answer.Source = models.SourceFallback
	answer.Status = models.AnswerPending
	answer.Ticket = id
	return answer
}

// Pending resolves a ticket. A finished ticket is handed out once and then forgotten.
func (g *Gate) Pending(ctx context.Context, id string) (models.Answer, error) {
	g.mu.Lock()
	t, ok := g.tickets[id]
	g.mu.Unlock()
	if !ok {
		return models.Answer{}, ErrTicketNotFound
	}

	select {
	case <-t.done:
		g.mu.Lock()
		delete(g.tickets, id)
		g.mu.Unlock()
		return t.answer, t.err
	default:
		return pendingAnswer(id), nil
	}
}

// expireTickets drops finished tickets nobody collected within the cache TTL. Callers hold g.mu.
func (g *Gate) expireTickets(now time.Time) {
	for id, t := range g.tickets {
		select {
		case <-t.done:
			if now.Sub(t.createdAt) > g.ttl {
				delete(g.tickets, id)
			}
		default:
		}
	}
}

// Purge drops every cached answer, used when the dataset changes.
func (g *Gate) Purge(ctx context.Context) error {
	return PurgeAnswers(ctx, g.cache)
}
