package fallback

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Generator is the outbound call to the generative service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Future is the handle to a queued generation.
type Future struct {
	done    chan struct{}
	stopped <-chan struct{}
	text    string
	err     error
}

func (f *Future) resolve(text string, err error) {
	f.text, f.err = text, err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the generation finishes, ctx ends or the coordinator stops.
func (f *Future) Wait(ctx context.Context) (string, error) {
	select {
	case <-f.done:
		return f.text, f.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-f.stopped:
		select {
		case <-f.done:
			return f.text, f.err
		default:
			return "", ErrCoordinatorClosed
		}
	}
}

type job struct {
	prompt string
	future *Future
}

// DefaultGenerationTimeout bounds a single generator attempt.
const DefaultGenerationTimeout = 90 * time.Second

// Coordinator serializes all generator calls through one consumer goroutine.
// Jobs are served in arrival order; every attempt, retries included, takes a rate-limit unit.
type Coordinator struct {
	generator Generator
	limiter   *RateLimiter
	retry     RetryConfig
	timeout   time.Duration
	logger    *zap.Logger

	queue   chan job
	stopped chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithRetryConfig overrides the generation retry policy.
func WithRetryConfig(cfg RetryConfig) CoordinatorOption {
	return func(c *Coordinator) {
		c.retry = cfg
	}
}

// WithGenerationTimeout bounds each generator attempt. A timed-out attempt counts as retryable.
func WithGenerationTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithQueueSize sets how many jobs may wait before Submit blocks.
func WithQueueSize(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.queue = make(chan job, n)
		}
	}
}

// WithCoordinatorLogger sets the logger.
func WithCoordinatorLogger(logger *zap.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator starts the consumer goroutine. Call Close to stop it.
func NewCoordinator(generator Generator, limiter *RateLimiter, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		generator: generator,
		limiter:   limiter,
		retry:     DefaultRetryConfig(),
		timeout:   DefaultGenerationTimeout,
		logger:    zap.NewNop(),
		queue:     make(chan job, 64),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = NewRateLimiter(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go c.run(ctx)
	return c
}

// Submit enqueues a prompt. It blocks only while the queue is full.
func (c *Coordinator) Submit(ctx context.Context, prompt string) (*Future, error) {
	f := &Future{done: make(chan struct{}), stopped: c.stopped}
	select {
	case <-c.stopped:
		return nil, ErrCoordinatorClosed
	default:
	}

	select {
	case c.queue <- job{prompt: prompt, future: f}:
		return f, nil
	case <-c.stopped:
		return nil, ErrCoordinatorClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the consumer. Queued jobs fail with ErrCoordinatorClosed.
func (c *Coordinator) Close() {
	c.once.Do(func() {
		close(c.stopped)
		c.cancel()
		c.wg.Wait()
	})
}

func (c *Coordinator) run(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			c.drain()
			return
		case j := <-c.queue:
			c.serve(ctx, j)
		}
	}
}

func (c *Coordinator) serve(ctx context.Context, j job) {
	var text string
	err := retryDo(ctx, c.retry, func() error {
		if err := c.limiter.Acquire(ctx); err != nil {
			c.logger.Warn("Fallback call rejected by rate limiter", zap.Error(err))
			return err
		}

		var genErr error
		text, genErr = c.attempt(ctx, j.prompt)
		if genErr != nil {
			c.logger.Warn("Generation attempt failed", zap.Error(genErr), zap.Bool("retryable", IsRetryable(genErr)))
		}
		return genErr
	})
	j.future.resolve(text, err)
}

func (c *Coordinator) attempt(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.generator.Generate(attemptCtx, prompt)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return "", NewGenerationError("generation timed out", true, err)
	}
	return text, err
}

func (c *Coordinator) drain() {
	for {
		select {
		case j := <-c.queue:
			j.future.resolve("", ErrCoordinatorClosed)
		default:
			return
		}
	}
}
