package models

import (
	"time"

	"github.com/google/uuid"
)

// Chart is the chart-ready payload: series name to a scalar or a category→value mapping.
// Key names are stable per category because dashboards read them directly.
type Chart map[string]any

// AnswerSource tells where an answer came from.
type AnswerSource string

const (
	SourceComputed AnswerSource = "computed"
	SourceFallback AnswerSource = "fallback"
	SourceCache    AnswerSource = "cache"
)

// AnswerStatus distinguishes normal answers from degraded or deferred ones.
type AnswerStatus string

const (
	AnswerOK          AnswerStatus = "ok"
	AnswerPending     AnswerStatus = "pending"
	AnswerDegraded    AnswerStatus = "degraded"
	AnswerUnavailable AnswerStatus = "unavailable"
)

// Answer is what every caller receives: a summary sentence plus chart data.
type Answer struct {
	Summary  string       `json:"resposta"`
	Chart    Chart        `json:"grafico"`
	Category string       `json:"categoria,omitempty"`
	Source   AnswerSource `json:"origem,omitempty"`
	Status   AnswerStatus `json:"status"`
	Ticket   string       `json:"ticket,omitempty"`
}

// NewAnswer builds a computed answer. A nil chart becomes an empty one.
func NewAnswer(summary string, chart Chart) Answer {
	if chart == nil {
		chart = Chart{}
	}
	return Answer{
		Summary: summary,
		Chart:   chart,
		Source:  SourceComputed,
		Status:  AnswerOK,
	}
}

// ConversationContext is the single-slot memory threaded through successive questions.
type ConversationContext struct {
	LastCategory string `json:"ultima_categoria,omitempty"`
}

// QuestionLogEntry records one answered question.
type QuestionLogEntry struct {
	ID         uuid.UUID    `json:"id"`
	Question   string       `json:"question"`
	Normalized string       `json:"normalized"`
	Category   string       `json:"category"`
	Source     AnswerSource `json:"source"`
	Status     AnswerStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}
