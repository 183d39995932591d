package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"casequery-backend/fallback"
	"casequery-backend/models"
	"casequery-backend/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Messages shown to users for the request errors they can fix.
const (
	msgDatasetNotLoaded = "Nenhum arquivo carregado!"
	msgEmptyQuestion    = "Pergunta não fornecida!"
)

// QueryHandler handles HTTP requests for questions
type QueryHandler struct {
	queryService *service.QueryService
	logger       *zap.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(queryService *service.QueryService, logger *zap.Logger) *QueryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryHandler{queryService: queryService, logger: logger}
}

// AskRequest represents the request body for a question
type AskRequest struct {
	Question string                     `json:"pergunta"`
	Context  models.ConversationContext `json:"contexto"`
}

// AskResponse is the answer plus the context for the next question
type AskResponse struct {
	models.Answer
	Context models.ConversationContext `json:"contexto"`
}

// Ask handles POST /api/perguntas
func (h *QueryHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(c, http.StatusBadRequest, "EMPTY_QUESTION", msgEmptyQuestion)
		return
	}

	result, err := h.queryService.Ask(c.Request.Context(), service.AskRequest{
		Question: req.Question,
		Context:  req.Context,
	})
	if err != nil {
		h.askError(c, err)
		return
	}

	status := http.StatusOK
	if result.Answer.Status == models.AnswerPending {
		status = http.StatusAccepted
	}
	respondData(c, status, AskResponse{Answer: result.Answer, Context: result.Context})
}

func (h *QueryHandler) askError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDatasetNotLoaded):
		respondError(c, http.StatusBadRequest, "DATASET_NOT_LOADED", msgDatasetNotLoaded)
	case errors.Is(err, service.ErrEmptyQuestion):
		respondError(c, http.StatusBadRequest, "EMPTY_QUESTION", msgEmptyQuestion)
	case errors.Is(err, fallback.ErrDailyBudgetExhausted):
		respondError(c, http.StatusServiceUnavailable, "FALLBACK_UNAVAILABLE", fallback.UnavailableText)
	case errors.Is(err, context.Canceled):
		// client closed the request
		c.Status(499)
	default:
		h.logger.Error("Failed to answer question", zap.Error(err))
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "ASK_FAILED", fallback.ApologyText)
	}
}

// GetAnswer handles GET /api/respostas/:ticket
func (h *QueryHandler) GetAnswer(c *gin.Context) {
	answer, err := h.queryService.Pending(c.Request.Context(), c.Param("ticket"))
	if err != nil {
		if errors.Is(err, fallback.ErrTicketNotFound) {
			respondError(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Resposta não encontrada ou já entregue")
			return
		}
		h.askError(c, err)
		return
	}

	status := http.StatusOK
	if answer.Status == models.AnswerPending {
		status = http.StatusAccepted
	}
	respondData(c, status, answer)
}

// Health handles GET /health
func (h *QueryHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"dataset": h.queryService.Info(),
	})
}
