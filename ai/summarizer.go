// Package ai turns a check-in's structured answers into a natural-language
// coaching message via an OpenAI-compatible chat-completions endpoint.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wisesobriety/wisesober/models"
	"github.com/wisesobriety/wisesober/utils"
)

// FallbackSummary is returned on any generation failure. The record store
// also uses it to recognize records still awaiting a real summary.
const FallbackSummary = "Unable to generate AI summary at this time. Please try again later."

const systemPrompt = "You are an expert sobriety coach with deep knowledge of recovery psychology and addiction science. You provide highly specific, actionable guidance with concrete steps that users can implement immediately. You give detailed strategies, specific time-based suggestions, and practical tools. You acknowledge progress with specific examples, address triggers with multiple coping options, suggest new techniques, provide exact support steps, boost motivation with specific encouragement, and give clear next actions. Your advice should feel like having a personal coach who knows them well and gives them specific, implementable guidance."

// Options configures the upstream endpoint. Zero values fall back to the
// settings the original client used.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	// Timeout bounds the whole request. The original client had none and a
	// hung endpoint hung the save; the bound here is an enhancement.
	Timeout time.Duration
}

// Summarizer generates coaching summaries. Generate never returns an error:
// every failure path yields FallbackSummary so record creation can never
// fail solely because summary generation failed.
type Summarizer struct {
	apiKey      string
	url         string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

func NewSummarizer(opts Options) *Summarizer {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	model := opts.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 350
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Summarizer{
		apiKey:      opts.APIKey,
		url:         base + "/chat/completions",
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

// Fallback returns the fixed fallback string.
func (s *Summarizer) Fallback() string { return FallbackSummary }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate builds the coaching prompt from the record and submits it
// upstream. The result is trimmed of surrounding whitespace.
func (s *Summarizer) Generate(ctx context.Context, rec *models.CheckInRecord) string {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(rec)},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return s.fail("encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return s.fail("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return s.fail("call endpoint", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return s.fail("read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return s.fail("endpoint status", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return s.fail("decode response", err)
	}
	if parsed.Error != nil {
		return s.fail("endpoint error", fmt.Errorf("%s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return s.fail("empty completion", fmt.Errorf("no choices in response"))
	}

	utils.SummaryGenerations.WithLabelValues("ok").Inc()
	return strings.TrimSpace(parsed.Choices[0].Message.Content)
}

func (s *Summarizer) fail(step string, err error) string {
	if utils.Sugar != nil {
		utils.Sugar.Warnf("summary generation failed (%s): %v", step, err)
	}
	utils.SummaryGenerations.WithLabelValues("fallback").Inc()
	return FallbackSummary
}

// BuildPrompt renders the fixed coaching template for one record. Triggers
// and strategies are flattened to comma-joined text regardless of which
// stored shape they carry.
func BuildPrompt(rec *models.CheckInRecord) string {
	return fmt.Sprintf(`You are an expert sobriety coach with deep knowledge of recovery psychology. Based on this daily check-in, provide highly specific, actionable advice with concrete steps (4-5 sentences):

Emotional State: %s
Alcohol Consumption: %s
Craving Triggers: %s
Coping Strategies: %s
Proud Of: %s
Motivation Rating: %d/5
Support Need: %s

Provide detailed, step-by-step guidance like a personal coach would:

1. **Acknowledge Progress**: Specifically mention what they're doing well based on their answers
2. **Address Triggers**: Give 2-3 specific, practical strategies for their specific triggers
3. **Enhance Coping**: Suggest 1-2 new coping techniques they haven't tried yet
4. **Support Strategy**: Provide concrete steps for their support needs (e.g., "Call your sponsor at 3pm", "Join the 7pm online meeting")
5. **Motivation Boost**: Give specific encouragement based on their motivation level
6. **Next Steps**: Suggest 1-2 specific actions they can take today/tomorrow

Be warm, supportive, and give them exact tools and steps they can implement immediately. Make it feel like having a personal coach who knows them well and gives them specific, actionable guidance.`,
		rec.EmotionalState,
		rec.AlcoholConsumption,
		rec.CravingTriggers.JoinedText(),
		rec.CopingStrategies.JoinedText(),
		rec.ProudOf,
		rec.MotivationRating,
		rec.SupportNeed,
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
