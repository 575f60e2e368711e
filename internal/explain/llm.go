package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/antoniostano/caissa/internal/cache"
	"github.com/antoniostano/caissa/internal/observability"
)

const (
	maxCompletionTokens = 500
	systemPrompt        = "You are an expert chess tutor. Be concise, educational and encouraging."
)

// LLM generates commentary through an OpenAI-compatible chat endpoint
// (Ollama serves one). Responses are memoized in the cache by purpose and
// prompt hash.
type LLM struct {
	client  *openai.Client
	model   string
	cache   cache.Cache
	ttl     time.Duration
	metrics *observability.Metrics
}

func NewLLM(baseURL, apiKey, model string, c cache.Cache, ttl time.Duration, metrics *observability.Metrics) *LLM {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	return &LLM{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		cache:   c,
		ttl:     ttl,
		metrics: metrics,
	}
}

func (l *LLM) Explain(ctx context.Context, fen, move string) (string, error) {
	prompt := fmt.Sprintf(`Explain the move %s in the position %s.

Focus on:
1. The tactical or strategic purpose of the move
2. What threats it creates or prevents
3. How it improves the position
4. Any potential alternatives and why this move is better

Keep the explanation beginner-friendly but insightful.`, move, fen)
	return l.generate(ctx, "explain", prompt)
}

func (l *LLM) SuggestImprovement(ctx context.Context, fen, userMove, bestMove string) (string, error) {
	prompt := fmt.Sprintf(`The user played %s in position %s, but the best move was %s.

Explain:
1. Why the user's move is not optimal
2. The advantages of the best move
3. What the user should look for in similar positions

Be encouraging and constructive in your feedback.`, userMove, fen, bestMove)
	return l.generate(ctx, "improve", prompt)
}

func (l *LLM) generate(ctx context.Context, purpose, prompt string) (string, error) {
	key := cache.Key(purpose, prompt)
	if l.cache != nil {
		if cached, ok := l.cache.Get(ctx, key); ok {
			l.countCache("hit")
			return string(cached), nil
		}
		l.countCache("miss")
	}

	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxCompletionTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)

	if l.cache != nil && text != "" {
		if err := l.cache.Set(ctx, key, []byte(text), l.ttl); err != nil {
			// Memoization only; the response is still good.
			return text, nil
		}
	}
	return text, nil
}

func (l *LLM) countCache(result string) {
	if l.metrics != nil {
		l.metrics.ExplanationCache.WithLabelValues(result).Inc()
	}
}
