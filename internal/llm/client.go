// Package llm answers free-form questions through an OpenAI-compatible chat
// completion endpoint, with the regional node directory folded into the
// system prompt as grounding context.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Request carries one question plus the bounded context assembled for it.
type Request struct {
	Question string
	// NodeContext holds one compact line per directory node, already capped
	// by the caller.
	NodeContext []string
	// PriorResponse is the bot's last answer to this sender when the
	// question is a follow-up.
	PriorResponse string
	// History holds the sender's recent message texts, oldest first.
	History []string
	// Signal describes reception metadata of the triggering message.
	Signal string
}

// Backend is the answering side of the free-form path. Implementations must
// honor ctx and return an error rather than an empty string on failure.
type Backend interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client talks to an OpenAI-compatible chat completion API. The underlying
// client is built once; Complete only supplies per-call parameters.
type Client struct {
	client openaigo.Client
	apiKey string
	model  string
}

func NewClient(baseURL, apiKey, model string) *Client {
	b := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if b == "" {
		b = DefaultBaseURL
	}
	m := strings.TrimSpace(model)
	if m == "" {
		m = DefaultModel
	}
	key := strings.TrimSpace(apiKey)
	return &Client{
		client: openaigo.NewClient(
			option.WithBaseURL(b),
			option.WithAPIKey(key),
			option.WithHTTPClient(&http.Client{Timeout: DefaultRequestTimeout}),
			option.WithMaxRetries(MaxRetries),
			option.WithRequestTimeout(DefaultRequestTimeout),
		),
		apiKey: key,
		model:  m,
	}
}

// Complete runs one chat completion for the request. Retries are handled by
// the underlying client; the per-request timeout bounds the whole call.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("llm config incomplete: api key is required")
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}

	resp, err := c.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model:       openaigo.ChatModel(c.model),
		Messages:    buildMessages(req, question),
		MaxTokens:   openaigo.Int(maxCompletionTokens),
		Temperature: openaigo.Float(completionTemp),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}
	return out, nil
}

// buildMessages folds the node context into the system prompt and replays
// the sender's recent exchange so follow-ups resolve pronouns correctly.
func buildMessages(req Request, question string) []openaigo.ChatCompletionMessageParamUnion {
	var system strings.Builder
	system.WriteString(systemPrompt)
	if len(req.NodeContext) > 0 {
		system.WriteString("\n\nActive nodes (name(type,freq,sf,lat,lon)):\n")
		system.WriteString(strings.Join(req.NodeContext, "\n"))
	}
	if s := strings.TrimSpace(req.Signal); s != "" {
		system.WriteString("\n\nReception of the current message: ")
		system.WriteString(s)
	}

	messages := make([]openaigo.ChatCompletionMessageParamUnion, 0, len(req.History)+3)
	messages = append(messages, openaigo.SystemMessage(system.String()))
	for _, h := range req.History {
		if h = strings.TrimSpace(h); h != "" {
			messages = append(messages, openaigo.UserMessage(h))
		}
	}
	if prior := strings.TrimSpace(req.PriorResponse); prior != "" {
		messages = append(messages, openaigo.AssistantMessage(prior))
	}
	messages = append(messages, openaigo.UserMessage(question))
	return messages
}
