package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"casequery-backend/aggregation"
	"casequery-backend/dataset"
	"casequery-backend/fallback"
	"casequery-backend/intent"
	"casequery-backend/models"
	"casequery-backend/parsing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fallback answers questions no routine covers.
type Fallback interface {
	Answer(ctx context.Context, req fallback.Request) (models.Answer, error)
	Pending(ctx context.Context, ticket string) (models.Answer, error)
	Purge(ctx context.Context) error
}

// QuestionLog persists answered questions.
type QuestionLog interface {
	Record(ctx context.Context, entry models.QuestionLogEntry) error
}

var (
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	ErrEmptyQuestion    = errors.New("question is empty")
	ErrNoDatasetSource  = errors.New("no dataset source configured")
)

// QueryService routes questions to aggregation routines or the fallback gate.
type QueryService struct {
	catalogue   intent.Catalogue
	engine      *aggregation.Engine
	fallback    Fallback
	questionLog QuestionLog
	logger      *zap.Logger
	now         func() time.Time
	location    *time.Location

	dataset  atomic.Pointer[models.Dataset]
	sourceMu sync.Mutex
	source   dataset.Source
}

// QueryServiceOption is a functional option for QueryService
type QueryServiceOption func(*QueryService)

// WithCatalogue replaces the default category catalogue
func WithCatalogue(c intent.Catalogue) QueryServiceOption {
	return func(s *QueryService) {
		s.catalogue = c
	}
}

// WithEngine replaces the default aggregation engine
func WithEngine(e *aggregation.Engine) QueryServiceOption {
	return func(s *QueryService) {
		s.engine = e
	}
}

// WithFallback sets the fallback gate
func WithFallback(f Fallback) QueryServiceOption {
	return func(s *QueryService) {
		s.fallback = f
	}
}

// WithQuestionLog sets where answered questions are recorded
func WithQuestionLog(l QuestionLog) QueryServiceOption {
	return func(s *QueryService) {
		s.questionLog = l
	}
}

// WithDatasetSource sets the source used by Reload
func WithDatasetSource(src dataset.Source) QueryServiceOption {
	return func(s *QueryService) {
		s.source = src
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) QueryServiceOption {
	return func(s *QueryService) {
		s.logger = logger
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) QueryServiceOption {
	return func(s *QueryService) {
		s.now = now
	}
}

// WithLocation sets the time zone used to resolve "hoje", "ontem" and week boundaries
func WithLocation(loc *time.Location) QueryServiceOption {
	return func(s *QueryService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewQueryService creates a query service
func NewQueryService(opts ...QueryServiceOption) *QueryService {
	s := &QueryService{
		catalogue: intent.DefaultCatalogue(),
		engine:    aggregation.NewEngine(),
		logger:    zap.NewNop(),
		now:       time.Now,
		location:  time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AskRequest is one question plus the context returned by the previous answer
type AskRequest struct {
	Question string
	Context  models.ConversationContext
}

// AskResult is the answer and the context to send with the next question
type AskResult struct {
	Answer  models.Answer
	Context models.ConversationContext
}

// Ask answers a question. Data problems are reported inside the answer text; errors are kept
// for the service's sentinel conditions and fallback.ErrDailyBudgetExhausted.
func (s *QueryService) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	ds := s.dataset.Load()
	if ds == nil {
		return nil, ErrDatasetNotLoaded
	}
	normalized := intent.Normalize(req.Question)
	if normalized == "" {
		return nil, ErrEmptyQuestion
	}
	now := s.now().In(s.location)

	id := s.classify(normalized, req.Context, now)
	cat, _ := s.catalogue.Lookup(id)

	var (
		answer models.Answer
		err    error
	)
	computed := false
	if !cat.Fallback {
		answer, computed = s.engine.Run(id, aggregation.Request{
			Dataset:    ds,
			Question:   req.Question,
			Normalized: normalized,
			Now:        now,
		})
	}
	if !computed {
		answer, err = s.askFallback(ctx, ds, req.Question, normalized)
		if id != intent.Unclassified {
			answer.Category = string(id)
		}
		if cat.Disclaimer != "" && answer.Status == models.AnswerOK {
			answer.Summary += "\n\n" + cat.Disclaimer
		}
	}

	s.record(ctx, req.Question, normalized, answer)

	next := models.ConversationContext{}
	if id != intent.Unclassified {
		next.LastCategory = string(id)
	}
	return &AskResult{Answer: answer, Context: next}, err
}

// classify applies the catalogue; an unclassified follow-up that only names a period
// ("e no mês anterior?") reuses the previous temporal category.
func (s *QueryService) classify(normalized string, conv models.ConversationContext, now time.Time) intent.CategoryID {
	id := s.catalogue.Classify(normalized)
	if id != intent.Unclassified || conv.LastCategory == "" {
		return id
	}
	last := intent.CategoryID(conv.LastCategory)
	if !s.catalogue.IsTemporal(last) {
		return id
	}
	if _, ok := parsing.ResolveWindow(normalized, now); !ok {
		return id
	}
	return last
}

func (s *QueryService) askFallback(ctx context.Context, ds *models.Dataset, question, normalized string) (models.Answer, error) {
	if s.fallback == nil {
		answer := models.NewAnswer(fallback.UnavailableText, nil)
		answer.Source = models.SourceFallback
		answer.Status = models.AnswerUnavailable
		return answer, nil
	}
	return s.fallback.Answer(ctx, fallback.Request{Dataset: ds, Question: question, Normalized: normalized})
}

// record writes the question log entry. Failures are logged and never reach the caller.
func (s *QueryService) record(ctx context.Context, question, normalized string, answer models.Answer) {
	s.logger.Info("Question answered",
		zap.String("category", answer.Category),
		zap.String("source", string(answer.Source)),
		zap.String("status", string(answer.Status)))

	if s.questionLog == nil {
		return
	}
	category := answer.Category
	if category == "" {
		category = string(intent.Unclassified)
	}
	entry := models.QuestionLogEntry{
		ID:         uuid.New(),
		Question:   question,
		Normalized: normalized,
		Category:   category,
		Source:     answer.Source,
		Status:     answer.Status,
		CreatedAt:  s.now(),
	}
	if err := s.questionLog.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("Failed to record question", zap.Error(err))
	}
}

// Pending resolves a ticket handed out for a slow fallback answer.
func (s *QueryService) Pending(ctx context.Context, ticket string) (models.Answer, error) {
	if s.fallback == nil {
		return models.Answer{}, fallback.ErrTicketNotFound
	}
	return s.fallback.Pending(ctx, ticket)
}
