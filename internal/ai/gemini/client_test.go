package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/spigell/jobboard-assistant/internal/ai"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu    sync.Mutex
	calls []modelsCall
	resp  *genai.GenerateContentResponse
	err   error
}

type modelsCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, modelsCall{model: model, contents: contents, config: config})
	return f.resp, f.err
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: parts},
		}},
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	_, err := NewGenerator(context.Background(), Options{APIKey: "   "})
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestGeneratorAppliesDefaults(t *testing.T) {
	models := &fakeModels{resp: textResponse("ok")}
	g := newGenerator(models, Options{})

	if _, err := g.GenerateContent(context.Background(), "hello"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}

	call := models.calls[0]
	if call.model != DefaultModel {
		t.Fatalf("unexpected model: %q", call.model)
	}

	cfg := call.config
	if cfg == nil || cfg.Temperature == nil || cfg.TopP == nil || cfg.TopK == nil {
		t.Fatalf("expected sampling parameters to be set: %+v", cfg)
	}
	if *cfg.Temperature != DefaultTemperature || *cfg.TopP != DefaultTopP || *cfg.TopK != DefaultTopK {
		t.Fatalf("unexpected sampling parameters: %v %v %v", *cfg.Temperature, *cfg.TopP, *cfg.TopK)
	}
	if cfg.MaxOutputTokens != DefaultMaxOutputTokens {
		t.Fatalf("unexpected max output tokens: %d", cfg.MaxOutputTokens)
	}

	if len(call.contents) != 1 || len(call.contents[0].Parts) != 1 || call.contents[0].Parts[0].Text != "hello" {
		t.Fatalf("unexpected contents: %+v", call.contents)
	}
}

func TestGeneratorHonoursOptions(t *testing.T) {
	models := &fakeModels{resp: textResponse("ok")}
	g := newGenerator(models, Options{Model: "gemini-pro", Temperature: genai.Ptr[float32](0.2), TopK: genai.Ptr[float32](8), MaxOutputTokens: 512})

	if _, err := g.GenerateContent(context.Background(), "hello"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	call := models.calls[0]
	if call.model != "gemini-pro" || g.Model() != "gemini-pro" {
		t.Fatalf("unexpected model: %q", call.model)
	}
	if *call.config.Temperature != 0.2 || *call.config.TopK != 8 || call.config.MaxOutputTokens != 512 {
		t.Fatalf("options not applied: %+v", call.config)
	}
}

func TestGeneratorKeepsExplicitZeroSampling(t *testing.T) {
	models := &fakeModels{resp: textResponse("ok")}
	zero := float32(0)
	g := newGenerator(models, Options{Temperature: &zero, TopP: &zero})

	if _, err := g.GenerateContent(context.Background(), "hello"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	cfg := models.calls[0].config
	if *cfg.Temperature != 0 || *cfg.TopP != 0 {
		t.Fatalf("explicit zero replaced: temperature %v, topP %v", *cfg.Temperature, *cfg.TopP)
	}
	if *cfg.TopK != DefaultTopK {
		t.Fatalf("unset topK should use the default, got %v", *cfg.TopK)
	}
}

func TestGeneratorReturnsFirstTextPart(t *testing.T) {
	models := &fakeModels{resp: textResponse("{\"a\":1}", "ignored")}
	g := newGenerator(models, Options{})

	out, err := g.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "{\"a\":1}" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestGeneratorWrapsFailures(t *testing.T) {
	tests := []struct {
		name   string
		models *fakeModels
	}{
		{
			name:   "api error",
			models: &fakeModels{err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}},
		},
		{
			name:   "no candidates",
			models: &fakeModels{resp: &genai.GenerateContentResponse{}},
		},
		{
			name:   "blank text",
			models: &fakeModels{resp: textResponse("  ")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.WarnLevel)
			g := newGenerator(tt.models, Options{Logger: zap.New(core)})

			_, err := g.GenerateContent(context.Background(), "prompt")

			var upstream *ai.UpstreamError
			if !errors.As(err, &upstream) {
				t.Fatalf("expected upstream error, got %v", err)
			}

			if observed.Len() != 1 {
				t.Fatalf("expected 1 warn entry, got %d", observed.Len())
			}
			if got := observed.All()[0].ContextMap()["ai_provider"]; got != providerName {
				t.Fatalf("expected provider field, got %v", got)
			}
		})
	}
}

func TestGeneratorKeepsAPIErrorReachable(t *testing.T) {
	models := &fakeModels{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}}
	g := newGenerator(models, Options{})

	_, err := g.GenerateContent(context.Background(), "prompt")

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected api error to be reachable, got %v", err)
	}
}

func TestNilGeneratorIsNotConfigured(t *testing.T) {
	var g *Generator
	if _, err := g.GenerateContent(context.Background(), "prompt"); !errors.Is(err, ai.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
