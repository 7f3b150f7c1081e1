// Package openai implements llm.Client on the OpenAI Chat Completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-matcher/internal/llm"
	"resume-matcher/internal/prompt"
	"resume-matcher/internal/shared/telemetry"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	schemaName   = "resume_match_result"
	systemPrompt = "You are a resume analysis engine. Respond with JSON only. Output must match the schema exactly."
)

// Client implements llm.Client using OpenAI Chat Completions with a strict JSON schema.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	schema     map[string]any
}

// NewClient constructs a new OpenAI client. Per-call deadlines come from the context.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		schema:     llm.ResultSchema.JSONSchema(),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the prompt and returns the message content. Models that reject a
// fixed temperature are retried once without it.
func (c *Client) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	withTemp := !isGPT5(c.model)
	out, err := c.completeOnce(ctx, p, withTemp)
	if err != nil && withTemp && isUnsupportedTemperature(err) {
		telemetry.Warn("llm temperature unsupported, retrying without", map[string]any{"model": c.model})
		out, err = c.completeOnce(ctx, p, false)
	}
	return out, err
}

func (c *Client) completeOnce(ctx context.Context, p prompt.Prompt, withTemp bool) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: p.Text},
		},
		ResponseFormat: responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Name: schemaName, Strict: true, Schema: c.schema},
		},
	}
	if withTemp {
		temp := float32(0)
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai read body: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 300 {
			return "", &llm.StatusError{Provider: "openai", Code: resp.StatusCode}
		}
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		code := resp.StatusCode
		if code < 300 {
			code = http.StatusBadRequest
		}
		return "", &llm.StatusError{Provider: "openai", Code: code, Message: parsed.Error.Message + " (" + parsed.Error.Type + ")"}
	}
	if resp.StatusCode >= 300 {
		return "", &llm.StatusError{Provider: "openai", Code: resp.StatusCode}
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	logUsage(c.model, p, parsed.Usage)

	msg := parsed.Choices[0].Message
	if msg.Refusal != "" {
		return "", &llm.StatusError{Provider: "openai", Code: http.StatusUnprocessableEntity, Message: "refusal: " + msg.Refusal}
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", fmt.Errorf("openai: %w", llm.ErrEmptyResponse)
	}
	return content, nil
}

func logUsage(model string, p prompt.Prompt, usage *struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}) {
	fields := map[string]any{
		"provider":      "openai",
		"model":         model,
		"promptVersion": p.Version,
		"promptHash":    p.Hash,
	}
	if usage != nil {
		fields["promptTokens"] = usage.PromptTokens
		fields["completionTokens"] = usage.CompletionTokens
		fields["totalTokens"] = usage.TotalTokens
	}
	telemetry.Debug("llm usage", fields)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func isUnsupportedTemperature(err error) bool {
	var statusErr *llm.StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	msg := strings.ToLower(statusErr.Message)
	return strings.Contains(msg, "temperature") && strings.Contains(msg, "unsupported")
}

var _ llm.Client = (*Client)(nil)
