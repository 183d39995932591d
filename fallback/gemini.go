package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-1.5-pro"

// GeminiGenerator calls a Gemini model through the genai client.
type GeminiGenerator struct {
	model     *genai.GenerativeModel
	modelName string
	logger    *zap.Logger
}

// NewGeminiGenerator binds a model of client. Temperature is kept low for short factual answers.
func NewGeminiGenerator(client *genai.Client, modelName string, logger *zap.Logger) *GeminiGenerator {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)

	return &GeminiGenerator{model: model, modelName: modelName, logger: logger}
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.logger.Debug("Calling Gemini",
		zap.String("model", g.modelName),
		zap.Int("prompt_words", len(strings.Fields(prompt))))

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", NewGenerationError(fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason), false, nil)
	}

	var b strings.Builder
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonUnspecified && cand.FinishReason != genai.FinishReasonStop {
			g.logger.Warn("Candidate finished early", zap.Int("candidate", i), zap.String("reason", cand.FinishReason.String()))
		}
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
		if b.Len() > 0 {
			break
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", NewGenerationError("empty response", true, nil)
	}

	g.logger.Debug("Gemini answered", zap.Int("response_words", len(strings.Fields(text))))
	return text, nil
}

// classifyGeminiError marks quota, overload and timeout failures as retryable.
// Bad requests, auth and missing models are not.
func classifyGeminiError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		retryable := apiErr.Code == 429 || apiErr.Code >= 500
		return &GenerationError{Message: "gemini api error", Retryable: retryable, StatusCode: apiErr.Code, Cause: err}
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted:
			return NewGenerationError("gemini rpc error", true, err)
		case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated, codes.NotFound, codes.FailedPrecondition:
			return NewGenerationError("gemini rpc error", false, err)
		}
	}
	return NewGenerationError("gemini generate error", true, err)
}
