package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisesobriety/wisesober/models"
)

func sampleRecord() *models.CheckInRecord {
	return &models.CheckInRecord{
		ID:                 "1",
		UserID:             "alice",
		EmotionalState:     "hopeful",
		AlcoholConsumption: "none",
		CravingTriggers:    models.SelectionList{Options: []string{"Stress", "Boredom"}},
		CopingStrategies: models.SelectionList{
			Structured:     true,
			Options:        []string{"Exercise"},
			AdditionalText: "long walk",
		},
		ProudOf:          "stayed home",
		MotivationRating: 4,
		SupportNeed:      "evening meeting",
	}
}

func completionServer(t *testing.T, content string, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGenerateSuccessTrimsWhitespace(t *testing.T) {
	var captured chatRequest
	srv := completionServer(t, "  Great work staying sober today.\n", &captured)
	defer srv.Close()

	s := NewSummarizer(Options{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	got := s.Generate(context.Background(), sampleRecord())
	assert.Equal(t, "Great work staying sober today.", got)

	assert.Equal(t, "gpt-3.5-turbo", captured.Model)
	assert.Equal(t, 350, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 0.001)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Contains(t, captured.Messages[1].Content, "Emotional State: hopeful")
}

func TestGenerateFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSummarizer(Options{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	assert.Equal(t, FallbackSummary, s.Generate(context.Background(), sampleRecord()))
}

func TestGenerateFallbackOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	s := NewSummarizer(Options{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	assert.Equal(t, FallbackSummary, s.Generate(context.Background(), sampleRecord()))
}

func TestGenerateFallbackOnEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	s := NewSummarizer(Options{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	assert.Equal(t, FallbackSummary, s.Generate(context.Background(), sampleRecord()))
}

func TestGenerateFallbackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	s := NewSummarizer(Options{APIKey: "bad", BaseURL: srv.URL + "/v1"})
	assert.Equal(t, FallbackSummary, s.Generate(context.Background(), sampleRecord()))
}

func TestGenerateFallbackOnUnreachableEndpoint(t *testing.T) {
	s := NewSummarizer(Options{APIKey: "test-key", BaseURL: "http://127.0.0.1:1/v1"})
	assert.Equal(t, FallbackSummary, s.Generate(context.Background(), sampleRecord()))
}

func TestNewSummarizerDefaults(t *testing.T) {
	s := NewSummarizer(Options{})
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", s.url)
	assert.Equal(t, "gpt-3.5-turbo", s.model)
	assert.Equal(t, 350, s.maxTokens)
	assert.InDelta(t, 0.7, s.temperature, 0.001)
	assert.Equal(t, float64(30), s.client.Timeout.Seconds())
}

func TestBuildPromptFlattensBothShapes(t *testing.T) {
	prompt := BuildPrompt(sampleRecord())

	assert.Contains(t, prompt, "Emotional State: hopeful")
	assert.Contains(t, prompt, "Alcohol Consumption: none")
	assert.Contains(t, prompt, "Craving Triggers: Stress, Boredom")
	assert.Contains(t, prompt, "Coping Strategies: Exercise, long walk")
	assert.Contains(t, prompt, "Proud Of: stayed home")
	assert.Contains(t, prompt, "Motivation Rating: 4/5")
	assert.Contains(t, prompt, "Support Need: evening meeting")
	assert.True(t, strings.HasPrefix(prompt, "You are an expert sobriety coach"))
}
