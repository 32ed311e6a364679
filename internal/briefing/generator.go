// Package briefing composes a short AI-written daily training briefing
// from the athlete's current form and the local ride conditions.
package briefing

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"velo/internal/analysis"
	"velo/internal/weather"
)

// Timeout bounds one briefing generation.
const Timeout = 20 * time.Second

// Briefing is the generated text plus the inputs it was built from, so the
// presentation layer can show what the advice was based on.
type Briefing struct {
	Text      string
	Fitness   float64
	Fatigue   float64
	Form      float64
	Generated time.Time
}

// completer is the slice of the OpenAI client the generator needs.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator produces briefings through an OpenAI-compatible API.
type Generator struct {
	client completer
	model  string
}

// NewGenerator returns a generator using the given API key.
func NewGenerator(apiKey string) *Generator {
	return &Generator{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
	}
}

// NewGeneratorWithClient is NewGenerator with an injected client, for tests.
func NewGeneratorWithClient(c completer, model string) *Generator {
	return &Generator{client: c, model: model}
}

const systemPrompt = "You are a concise cycling coach. In at most three " +
	"sentences, advise the athlete on today's training given their fitness " +
	"numbers and the weather. No greetings, no markdown."

// Generate builds today's briefing from the current PMC point and an
// optional forecast.
func (g *Generator) Generate(ctx context.Context, pmc analysis.Point, forecast *weather.Forecast) (*Briefing, error) {
	prompt := fmt.Sprintf(
		"Fitness (CTL) %.1f, fatigue (ATL) %.1f, form (TSB) %.1f (%s).",
		pmc.Fitness, pmc.Fatigue, pmc.Form, analysis.FormDescription(pmc.Form),
	)
	if forecast != nil {
		prompt += fmt.Sprintf(
			" Conditions: %.0f°C (feels %.0f), wind %.0f km/h, %.0f%% precipitation chance.",
			forecast.TemperatureC, forecast.ApparentTempC, forecast.WindSpeedKmh, forecast.PrecipProbPct,
		)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: 160,
	})
	if err != nil {
		return nil, fmt.Errorf("generating briefing: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("briefing response had no choices")
	}

	return &Briefing{
		Text:      resp.Choices[0].Message.Content,
		Fitness:   pmc.Fitness,
		Fatigue:   pmc.Fatigue,
		Form:      pmc.Form,
		Generated: time.Now(),
	}, nil
}
