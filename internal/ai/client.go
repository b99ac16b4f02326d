package ai

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

	"healthsummary/apps/backend/internal/config"
)

const (
	defaultModel          = "gpt-4o-mini"
	defaultTimeoutSeconds = 15
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
}

type ChatResponse struct {
	Answer string
	Model  string
	Usage  Usage
}

type Client interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai chat completions error (%d): %s", e.StatusCode, e.Body)
}

type OpenAIChatClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

func NewOpenAIChatClient(cfg config.Config) *OpenAIChatClient {
	timeoutSeconds := cfg.AITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}
	return &OpenAIChatClient{
		apiKey:      strings.TrimSpace(cfg.OpenAIAPIKey),
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.OpenAIBaseURL), "/"),
		model:       strings.TrimSpace(cfg.OpenAIModel),
		temperature: cfg.AITemperature,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

func (c *OpenAIChatClient) Complete(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if c.apiKey == "" {
		return ChatResponse{}, errors.New("OPENAI_API_KEY is not configured")
	}
	if c.baseURL == "" {
		return ChatResponse{}, errors.New("OPENAI_BASE_URL is not configured")
	}
	requestModel := strings.TrimSpace(req.Model)
	if requestModel == "" {
		requestModel = c.model
	}
	if requestModel == "" {
		requestModel = defaultModel
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	messages := make([]ChatMessage, 0, 2)
	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: system})
	}
	if user := strings.TrimSpace(req.UserPrompt); user != "" {
		messages = append(messages, ChatMessage{Role: "user", Content: user})
	}
	if len(messages) == 0 {
		return ChatResponse{}, errors.New("AI request input is empty")
	}

	bodyRaw, err := json.Marshal(map[string]any{
		"model":       requestModel,
		"messages":    messages,
		"temperature": temperature,
	})
	if err != nil {
		return ChatResponse{}, err
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(bodyRaw),
	)
	if err != nil {
		return ChatResponse{}, err
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return ChatResponse{}, err
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return ChatResponse{}, err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return ChatResponse{}, &StatusError{
			StatusCode: response.StatusCode,
			Body:       truncateForLog(string(responseBody), 600),
		}
	}

	var parsed chatCompletion
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return ChatResponse{}, fmt.Errorf("decode chat completion: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return ChatResponse{}, errors.New("openai response has no choices")
	}
	answer := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if answer == "" {
		return ChatResponse{}, errors.New("openai response answer is empty")
	}

	modelName := strings.TrimSpace(parsed.Model)
	if modelName == "" {
		modelName = requestModel
	}
	return ChatResponse{
		Answer: answer,
		Model:  modelName,
		Usage:  parsed.Usage,
	}, nil
}

type chatCompletion struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

func truncateForLog(value string, limit int) string {
	trimmed := strings.TrimSpace(value)
	if limit <= 0 || len(trimmed) <= limit {
		return trimmed
	}
	return trimmed[:limit] + "...(truncated)"
}
