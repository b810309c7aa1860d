// Package advisor asks an LLM for a one-line quip to append to the
// tweet. Entirely optional: any failure degrades to no quip, and the
// publish decision never depends on it.
package advisor

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

type QuipService struct {
	tracer trace.Tracer
	llm    LLMClient
	model  string
}

func NewQuipService(tracer trace.Tracer, llm LLMClient, model string) *QuipService {
	return &QuipService{tracer: tracer, llm: llm, model: model}
}

// Quip returns a one-line remark about the cycle's numbers, or ""
// when the LLM is unavailable or returns something unusable.
func (s *QuipService) Quip(ctx context.Context, summary string) string {
	ctx, span := s.tracer.Start(ctx, "advisor.quip")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", s.model))

	completion, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(quipPersona),
			openai.UserMessage(summary),
		},
	})
	if err != nil {
		log.Printf("quip unavailable: %v", err)
		span.RecordError(err)
		return ""
	}
	if len(completion.Choices) == 0 {
		log.Println("quip unavailable: no choices in LLM response")
		return ""
	}

	quip := sanitizeQuip(completion.Choices[0].Message.Content)
	span.SetAttributes(attribute.Int("llm.quip_length", len(quip)))
	return quip
}

// sanitizeQuip flattens the reply to a single trimmed line and drops
// anything too long to ever fit in a tweet.
func sanitizeQuip(reply string) string {
	line := strings.TrimSpace(reply)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	line = strings.Trim(line, `"`)
	if line == "" || utf8.RuneCountInString(line) > maxQuipRunes {
		return ""
	}
	return line
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
