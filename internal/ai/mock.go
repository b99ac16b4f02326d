package ai

import (
	"context"
	"strings"
)

// MockClient answers without network access. It is meant for local runs
// where no API key is available.
type MockClient struct {
	Model string
}

func (m MockClient) Complete(_ context.Context, req ChatRequest) (ChatResponse, error) {
	prompt := strings.ToLower(req.UserPrompt)

	answer := "This week's entries were recorded and the summary reflects them as provided."
	switch {
	case strings.Contains(prompt, "status: improving"):
		answer = "The week moved in the direction of the stated goal. Day-to-day readings vary, so the trend matters more than any single entry."
	case strings.Contains(prompt, "status: regressing"):
		answer = "The week moved slightly away from the stated goal. Short windows are noisy, and one week rarely tells the whole story."
	case strings.Contains(prompt, "status: stable"):
		answer = "Readings stayed close to where they started this week. Steady weeks are a normal part of any longer trend."
	}
	if strings.Contains(prompt, "data quality: low") {
		answer += " Several days were missing, so this picture is less certain."
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = strings.TrimSpace(m.Model)
	}
	if model == "" {
		model = defaultModel
	}
	return ChatResponse{
		Answer: answer,
		Model:  model,
		Usage: Usage{
			PromptTokens:     120,
			CompletionTokens: 40,
			TotalTokens:      160,
		},
	}, nil
}
