package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"casequery-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	reply   string
	err     error
	release chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	release := g.release
	g.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

var noRetry = RetryConfig{MaxAttempts: 1}

func testDataset() *models.Dataset {
	filing := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	return models.NewDataset("test", models.RequiredColumns, []models.CaseRecord{
		{CaseNumber: "0001", Status: "Ativo", Venue: "São Paulo - SP", FilingDate: &filing, TransitRaw: "-", ClaimTotal: "R$ 1.000,00"},
		{CaseNumber: "0002", Status: "Arquivado", Venue: "Rio de Janeiro - RJ", ClaimTotal: "R$ 2.000,00"},
	})
}

func newTestGate(t *testing.T, gen Generator, limiter *RateLimiter, opts ...GateOption) (*Gate, *MemoryCache) {
	t.Helper()
	coord := NewCoordinator(gen, limiter, WithRetryConfig(noRetry))
	t.Cleanup(coord.Close)
	cache := NewMemoryCache(0)
	return NewGate(cache, coord, opts...), cache
}

func request(ds *models.Dataset, q string) Request {
	return Request{Dataset: ds, Question: q, Normalized: strings.ToLower(q)}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRateLimiter_DailyBudgetFails(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.October, 16, 9, 0, 0, 0, time.UTC)}
	l := NewRateLimiter([]Window{PerDay(2)}, WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, ErrDailyBudgetExhausted)
	assert.Equal(t, []int{0}, l.Remaining())

	clock.Advance(24 * time.Hour)
	assert.NoError(t, l.Acquire(ctx), "window resets lazily once elapsed")
	assert.Equal(t, []int{1}, l.Remaining())
}

func TestRateLimiter_MinuteWindowWaits(t *testing.T) {
	l := NewRateLimiter([]Window{{Size: 60 * time.Millisecond, Quota: 1, Policy: PolicyWait}})
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	start := time.Now()
	require.NoError(t, l.Acquire(ctx))

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond, "second call waits for the window to reset")
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	l := NewRateLimiter([]Window{{Size: time.Hour, Quota: 1, Policy: PolicyWait}})
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)
}

func TestRateLimiter_FailCheckedBeforeWait(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.October, 16, 9, 0, 0, 0, time.UTC)}
	l := NewRateLimiter([]Window{PerMinute(1), PerDay(1)}, WithClock(clock.Now))
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, l.Acquire(ctx), ErrDailyBudgetExhausted, "an exhausted day fails instead of sleeping for the minute")
}

func TestRateLimiter_IgnoresEmptyWindows(t *testing.T) {
	l := NewRateLimiter([]Window{PerMinute(0), PerDay(-1)})
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}
	assert.Empty(t, l.Remaining())
}

func TestRetryDo(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}

	t.Run("retries retryable errors", func(t *testing.T) {
		calls := 0
		err := retryDo(context.Background(), cfg, func() error {
			calls++
			if calls < 3 {
				return NewGenerationError("overloaded", true, nil)
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable errors", func(t *testing.T) {
		calls := 0
		want := NewGenerationError("bad request", false, nil)
		err := retryDo(context.Background(), cfg, func() error {
			calls++
			return want
		})
		assert.Same(t, want, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := retryDo(context.Background(), cfg, func() error {
			calls++
			return errors.New("flaky")
		})
		assert.EqualError(t, err, "flaky")
		assert.Equal(t, 3, calls)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(NewGenerationError("generation timed out", true, context.DeadlineExceeded)))
	assert.False(t, IsRetryable(fmt.Errorf("acquire: %w", ErrDailyBudgetExhausted)))
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", NewGenerationError("auth", false, nil))))
	assert.True(t, IsRetryable(&GenerationError{Message: "quota", Retryable: true, StatusCode: 429}))
	assert.True(t, IsRetryable(errors.New("connection reset")))
}

func TestGenerationError_Message(t *testing.T) {
	err := &GenerationError{Message: "gemini api error", StatusCode: 503, Cause: errors.New("overloaded")}
	assert.Equal(t, "status 503 gemini api error: overloaded", err.Error())
	assert.ErrorContains(t, err, "overloaded")
}

func TestCoordinator_ServesInArrivalOrder(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	coord := NewCoordinator(gen, nil, WithRetryConfig(noRetry))
	defer coord.Close()

	ctx := context.Background()
	var futures []*Future
	for i := 0; i < 5; i++ {
		f, err := coord.Submit(ctx, fmt.Sprintf("p%d", i))
		require.NoError(t, err)
		futures = append(futures, f)
	}
	for _, f := range futures {
		text, err := f.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ok", text)
	}

	gen.mu.Lock()
	defer gen.mu.Unlock()
	assert.Equal(t, []string{"p0", "p1", "p2", "p3", "p4"}, gen.prompts)
}

func TestCoordinator_PropagatesBudgetExhaustion(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	coord := NewCoordinator(gen, NewRateLimiter([]Window{PerDay(1)}), WithRetryConfig(noRetry))
	defer coord.Close()
	ctx := context.Background()

	f, err := coord.Submit(ctx, "first")
	require.NoError(t, err)
	_, err = f.Wait(ctx)
	require.NoError(t, err)

	f, err = coord.Submit(ctx, "second")
	require.NoError(t, err)
	_, err = f.Wait(ctx)
	assert.ErrorIs(t, err, ErrDailyBudgetExhausted)
	assert.Equal(t, 1, gen.Calls())
}

func TestCoordinator_RetriesTakeRateLimitUnits(t *testing.T) {
	quota := &GenerationError{Message: "gemini api error", Retryable: true, StatusCode: 429}
	retry := RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, Multiplier: 1}

	tests := []struct {
		name      string
		windows   []Window
		wantCalls int
	}{
		{"one unit per minute and day", []Window{PerMinute(1), PerDay(1)}, 1},
		{"two units per day", []Window{PerDay(2)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Date(2024, time.October, 16, 9, 0, 0, 0, time.UTC)}
			gen := &fakeGenerator{err: quota}
			coord := NewCoordinator(gen, NewRateLimiter(tt.windows, WithClock(clock.Now)), WithRetryConfig(retry))
			defer coord.Close()
			ctx := context.Background()

			f, err := coord.Submit(ctx, "p")
			require.NoError(t, err)
			_, err = f.Wait(ctx)

			assert.ErrorIs(t, err, ErrDailyBudgetExhausted)
			assert.Equal(t, tt.wantCalls, gen.Calls())
		})
	}
}

func TestCoordinator_AttemptTimeoutIsRetried(t *testing.T) {
	gen := &fakeGenerator{release: make(chan struct{})}
	retry := RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, Multiplier: 1}
	coord := NewCoordinator(gen, nil, WithRetryConfig(retry), WithGenerationTimeout(10*time.Millisecond))
	defer coord.Close()
	ctx := context.Background()

	f, err := coord.Submit(ctx, "hung")
	require.NoError(t, err)
	_, err = f.Wait(ctx)

	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.True(t, gerr.Retryable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, gen.Calls())
}

func TestCoordinator_Close(t *testing.T) {
	gen := &fakeGenerator{reply: "ok", release: make(chan struct{})}
	coord := NewCoordinator(gen, nil, WithRetryConfig(noRetry))
	ctx := context.Background()

	inFlight, err := coord.Submit(ctx, "blocked")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return gen.Calls() == 1 }, time.Second, 5*time.Millisecond)

	coord.Close()

	_, err = inFlight.Wait(ctx)
	assert.Error(t, err)
	_, err = coord.Submit(ctx, "late")
	assert.ErrorIs(t, err, ErrCoordinatorClosed)
}

func TestMemoryCache(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.October, 16, 9, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(2)
	c.now = clock.Now
	ctx := context.Background()

	_, err := c.Get(ctx, "answer:a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "answer:a", models.NewAnswer("A", nil), time.Minute))
	got, err := c.Get(ctx, "answer:a")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Summary)

	clock.Advance(time.Minute)
	_, err = c.Get(ctx, "answer:a")
	assert.ErrorIs(t, err, ErrCacheMiss, "entries expire after their ttl")

	require.NoError(t, c.Set(ctx, "answer:b", models.NewAnswer("B", nil), time.Hour))
	require.NoError(t, c.Set(ctx, "other:c", models.NewAnswer("C", nil), 2*time.Hour))
	assert.Equal(t, 2, c.Len(), "expired entry evicted to make room")

	require.NoError(t, c.DeleteByPrefix(ctx, answerKeyPrefix))
	_, err = c.Get(ctx, "answer:b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "other:c")
	assert.NoError(t, err)
}

func TestCacheKey(t *testing.T) {
	v1, v2 := uuid.New(), uuid.New()

	assert.Equal(t, CacheKey("quantos processos", v1), CacheKey("quantos processos", v1))
	assert.NotEqual(t, CacheKey("quantos processos", v1), CacheKey("quantos processos", v2))
	assert.NotEqual(t, CacheKey("quantos processos", v1), CacheKey("quantos recursos", v1))
	assert.True(t, strings.HasPrefix(CacheKey("x", v1), answerKeyPrefix))
}

func TestBuildPrompt(t *testing.T) {
	ds := testDataset()

	prompt := BuildPrompt(ds, "qual a estratégia?", 0)
	assert.True(t, strings.HasPrefix(prompt, "Os dados a seguir são extraídos de um arquivo Excel:\n"))
	assert.Contains(t, prompt, "Número CNJ | Status")
	assert.Contains(t, prompt, "0001 | Ativo")
	assert.Contains(t, prompt, "04/03/2024")
	assert.Contains(t, prompt, "Pergunta: qual a estratégia?")

	short := BuildPrompt(ds, "qual a estratégia?", 400)
	assert.LessOrEqual(t, len(short), 400)
	assert.Contains(t, short, truncationNote)
	assert.Contains(t, short, "Pergunta: qual a estratégia?", "the question survives truncation")
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "Sã", truncateUTF8("São", 3))
	assert.Equal(t, "S", truncateUTF8("São", 2))
	assert.Equal(t, "São", truncateUTF8("São", 10))
}

func TestGate_ConcurrentIdenticalQuestionsCallOnce(t *testing.T) {
	gen := &fakeGenerator{reply: "Atualmente, há 2 processos.", release: make(chan struct{})}
	gate, _ := newTestGate(t, gen, nil)
	ds := testDataset()

	const callers = 8
	answers := make([]models.Answer, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := gate.Answer(context.Background(), request(ds, "qual a melhor estratégia"))
			assert.NoError(t, err)
			answers[i] = a
		}(i)
	}

	require.Eventually(t, func() bool { return gen.Calls() == 1 }, time.Second, 5*time.Millisecond)
	close(gen.release)
	wg.Wait()

	assert.Equal(t, 1, gen.Calls())
	for _, a := range answers {
		assert.Equal(t, "Atualmente, há 2 processos.", a.Summary)
		assert.Equal(t, models.AnswerOK, a.Status)
	}
}

func TestGate_CachesAnswers(t *testing.T) {
	gen := &fakeGenerator{reply: "resposta"}
	gate, _ := newTestGate(t, gen, nil)
	ds := testDataset()
	ctx := context.Background()

	first, err := gate.Answer(ctx, request(ds, "pergunta livre"))
	require.NoError(t, err)
	assert.Equal(t, models.SourceFallback, first.Source)

	second, err := gate.Answer(ctx, request(ds, "pergunta livre"))
	require.NoError(t, err)
	assert.Equal(t, models.SourceCache, second.Source)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, 1, gen.Calls())

	require.NoError(t, gate.Purge(ctx))
	_, err = gate.Answer(ctx, request(ds, "pergunta livre"))
	require.NoError(t, err)
	assert.Equal(t, 2, gen.Calls(), "purge forces a new generation")
}

func TestGate_NewDatasetVersionMisses(t *testing.T) {
	gen := &fakeGenerator{reply: "resposta"}
	gate, _ := newTestGate(t, gen, nil)
	ctx := context.Background()

	_, err := gate.Answer(ctx, request(testDataset(), "pergunta livre"))
	require.NoError(t, err)
	_, err = gate.Answer(ctx, request(testDataset(), "pergunta livre"))
	require.NoError(t, err)

	assert.Equal(t, 2, gen.Calls())
}

func TestGate_GenerationFailureIsDegradedAndNotCached(t *testing.T) {
	gen := &fakeGenerator{err: NewGenerationError("bad request", false, nil)}
	gate, cache := newTestGate(t, gen, nil)
	ds := testDataset()

	answer, err := gate.Answer(context.Background(), request(ds, "pergunta livre"))
	require.NoError(t, err)
	assert.Equal(t, ApologyText, answer.Summary)
	assert.Equal(t, models.AnswerDegraded, answer.Status)
	assert.Empty(t, answer.Chart)
	assert.Equal(t, 0, cache.Len())
}

func TestGate_BudgetExhausted(t *testing.T) {
	gen := &fakeGenerator{reply: "resposta"}
	gate, _ := newTestGate(t, gen, NewRateLimiter([]Window{PerDay(1)}))
	ds := testDataset()
	ctx := context.Background()

	_, err := gate.Answer(ctx, request(ds, "primeira"))
	require.NoError(t, err)

	answer, err := gate.Answer(ctx, request(ds, "segunda"))
	assert.ErrorIs(t, err, ErrDailyBudgetExhausted)
	assert.Equal(t, models.AnswerUnavailable, answer.Status)
	assert.Equal(t, UnavailableText, answer.Summary)
}

func TestGate_SlowGenerationReturnsTicket(t *testing.T) {
	gen := &fakeGenerator{reply: "resposta tardia", release: make(chan struct{})}
	gate, _ := newTestGate(t, gen, nil, WithFallbackWait(20*time.Millisecond))
	ctx := context.Background()

	answer, err := gate.Answer(ctx, request(testDataset(), "pergunta lenta"))
	require.NoError(t, err)
	assert.Equal(t, models.AnswerPending, answer.Status)
	require.NotEmpty(t, answer.Ticket)

	still, err := gate.Pending(ctx, answer.Ticket)
	require.NoError(t, err)
	assert.Equal(t, models.AnswerPending, still.Status)

	close(gen.release)

	var final models.Answer
	require.Eventually(t, func() bool {
		final, err = gate.Pending(ctx, answer.Ticket)
		return err == nil && final.Status == models.AnswerOK
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "resposta tardia", final.Summary)

	_, err = gate.Pending(ctx, answer.Ticket)
	assert.ErrorIs(t, err, ErrTicketNotFound, "a collected ticket is forgotten")
}

func TestGate_HungGenerationDoesNotStallQueue(t *testing.T) {
	gen := &fakeGenerator{reply: "nunca", release: make(chan struct{})}
	coord := NewCoordinator(gen, nil, WithRetryConfig(noRetry), WithGenerationTimeout(30*time.Millisecond))
	t.Cleanup(coord.Close)
	gate := NewGate(NewMemoryCache(0), coord, WithFallbackWait(10*time.Millisecond))
	ctx := context.Background()
	ds := testDataset()

	first, err := gate.Answer(ctx, request(ds, "primeira pergunta"))
	require.NoError(t, err)
	second, err := gate.Answer(ctx, request(ds, "segunda pergunta"))
	require.NoError(t, err)
	require.Equal(t, models.AnswerPending, first.Status)
	require.Equal(t, models.AnswerPending, second.Status)

	for _, ticket := range []string{first.Ticket, second.Ticket} {
		var final models.Answer
		require.Eventually(t, func() bool {
			final, err = gate.Pending(ctx, ticket)
			return err == nil && final.Status != models.AnswerPending
		}, 2*time.Second, 5*time.Millisecond)
		assert.Equal(t, models.AnswerDegraded, final.Status)
		assert.Equal(t, ApologyText, final.Summary)
	}
	assert.Equal(t, 2, gen.Calls())
}

func TestGate_UnknownTicket(t *testing.T) {
	gate, _ := newTestGate(t, &fakeGenerator{}, nil)

	_, err := gate.Pending(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
