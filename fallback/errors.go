// Package fallback answers questions no aggregation routine covers by asking an external
// generative service. Calls are cached and de-duplicated per question, then serialized through
// one queue throttled by per-minute and per-day budgets.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDailyBudgetExhausted = errors.New("daily fallback budget exhausted")
	ErrCoordinatorClosed    = errors.New("fallback coordinator closed")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrCacheMiss            = errors.New("cache miss")
)

// Texts returned to callers instead of generated content.
const (
	ApologyText     = "Desculpe, ocorreu um erro ao processar sua solicitação. Tente novamente mais tarde."
	UnavailableText = "O serviço de respostas está temporariamente indisponível. Tente novamente mais tarde."
	PendingText     = "Sua pergunta ainda está sendo processada. Consulte novamente em instantes."
)

// GenerationError classifies a generator failure.
type GenerationError struct {
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var parts []string
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status %d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// NewGenerationError wraps cause with a classification.
func NewGenerationError(message string, retryable bool, cause error) *GenerationError {
	return &GenerationError{Message: message, Retryable: retryable, Cause: cause}
}

// IsRetryable reports whether a failed generation may be attempted again.
// Budget exhaustion is never retried. A classified error decides for itself, so an attempt
// timeout wrapped as retryable is retried while a bare context error is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDailyBudgetExhausted) || errors.Is(err, ErrCoordinatorClosed) {
		return false
	}
	var gerr *GenerationError
	if errors.As(err, &gerr) {
		return gerr.Retryable
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
