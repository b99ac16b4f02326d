package health

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"healthsummary/apps/backend/internal/ai"
)

const (
	narrativeTemperature    = 0.3
	defaultNarrativeTimeout = 15 * time.Second
)

// Narrator produces an optional short text for a computed summary. goal is
// the label as the user stored it. A nil result means no narrative;
// implementations never fail the caller.
type Narrator interface {
	Narrate(ctx context.Context, summary WeeklySummary, goal string) *string
}

// NoNarrator always returns no narrative.
type NoNarrator struct{}

func (NoNarrator) Narrate(context.Context, WeeklySummary, string) *string { return nil }

const narrativeSystemPrompt = `You are a calm, supportive health reflection assistant.

You do NOT:
- calculate metrics
- contradict provided status
- give medical advice
- give step-by-step plans
- use urgency, guilt, or motivational language

You DO:
- explain patterns in simple language
- acknowledge uncertainty
- reduce anxiety
- focus on consistency, not optimisation

Your tone is:
- neutral
- reassuring
- observant
- non-judgemental

If data quality or confidence is low, say so calmly.
If progress is unclear, normalise it.
If progress exists, acknowledge it without celebration.`

const narrativeUserTemplate = `Here is a weekly health summary for a user.

Context:
- The goal is: %s
- This summary is already calculated and correct
- You must not reinterpret or override it

Weekly summary:
- Status: %s
- Weight change (kg): %s
- Body fat change (%%): %s
- Average sleep (hours): %s
- Sleep consistency: %s
- Data quality: %s
- Confidence score (0–1): %s

Task:
Write a short narrative (2–4 sentences) that:
1. Explains what likely happened this week
2. Acknowledges uncertainty if present
3. Highlights one thing that mattered most
4. Avoids advice phrasing ("you should", "try to")

Rules:
- Do not repeat raw numbers unless necessary
- Do not mention the word "AI"
- Do not sound motivational or instructional
- Do not exceed 80 words
- Be calm and factual`

// NarrativePrompt renders the user instruction for a summary. Missing
// values render as empty strings.
func NarrativePrompt(summary WeeklySummary, goal string) string {
	return fmt.Sprintf(
		narrativeUserTemplate,
		goal,
		summary.Status,
		formatOptional(summary.WeightChangeKg),
		formatOptional(summary.BodyFatChangePercent),
		formatOptional(summary.AverageSleepHours),
		summary.SleepConsistency,
		summary.DataQuality,
		strconv.FormatFloat(summary.Confidence, 'f', -1, 64),
	)
}

func formatOptional(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

// AINarrator asks a chat-completion backend for the weekly narrative with
// a single bounded attempt.
type AINarrator struct {
	client      ai.Client
	model       string
	temperature float64
	timeout     time.Duration
	logger      *log.Logger
}

// NewAINarrator builds a narrator. A negative temperature or non-positive
// timeout falls back to 0.3 and 15s.
func NewAINarrator(client ai.Client, model string, temperature float64, timeout time.Duration, logger *log.Logger) *AINarrator {
	if temperature < 0 {
		temperature = narrativeTemperature
	}
	if timeout <= 0 {
		timeout = defaultNarrativeTimeout
	}
	return &AINarrator{
		client:      client,
		model:       strings.TrimSpace(model),
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

func (n *AINarrator) Narrate(ctx context.Context, summary WeeklySummary, goal string) *string {
	if n == nil || n.client == nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	resp, err := n.client.Complete(callCtx, ai.ChatRequest{
		Model:        n.model,
		SystemPrompt: narrativeSystemPrompt,
		UserPrompt:   NarrativePrompt(summary, goal),
		Temperature:  n.temperature,
	})
	if err != nil {
		if n.logger != nil {
			n.logger.Warn("weekly narrative unavailable", "goal", goal, "error", err)
		}
		return nil
	}
	text := strings.TrimSpace(resp.Answer)
	if text == "" {
		return nil
	}
	return &text
}
