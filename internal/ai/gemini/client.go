package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spigell/jobboard-assistant/internal/ai"
	"github.com/spigell/jobboard-assistant/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	providerName = "gemini"

	DefaultModel           = "gemini-2.5-flash"
	DefaultTemperature     = 0.7
	DefaultTopP            = 0.95
	DefaultTopK            = 40
	DefaultMaxOutputTokens = 2048
)

// contentModels is the subset of genai.Models used by the generator.
type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Generator. Nil sampling values fall back to the
// defaults; an explicit zero is kept. A non-positive MaxOutputTokens uses the default.
type Options struct {
	APIKey          string
	Model           string
	Temperature     *float32
	TopP            *float32
	TopK            *float32
	MaxOutputTokens int32
	HTTPClient      *http.Client
	Logger          *zap.Logger
}

// Generator sends single prompts to Gemini and returns the generated text.
type Generator struct {
	models    contentModels
	modelName string
	config    *genai.GenerateContentConfig
	logger    *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, opts Options) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, opts), nil
}

func newGenerator(models contentModels, opts Options) *Generator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	temperature := orDefault(opts.Temperature, DefaultTemperature)
	topP := orDefault(opts.TopP, DefaultTopP)
	topK := orDefault(opts.TopK, DefaultTopK)
	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}

	return &Generator{
		models:    models,
		modelName: model,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(temperature),
			TopP:            genai.Ptr(topP),
			TopK:            genai.Ptr(topK),
			MaxOutputTokens: maxTokens,
		},
		logger: logger.WithCommonFields(opts.Logger, providerName, model),
	}
}

func orDefault(value *float32, fallback float32) float32 {
	if value == nil {
		return fallback
	}
	return *value
}

// GenerateContent sends the prompt to Gemini and returns the first text part of the first candidate.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", ai.ErrNotConfigured
	}

	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), g.config)
	if err != nil {
		g.logFailure("generate content request failed", err)
		return "", &ai.UpstreamError{Op: "generate content", Err: err}
	}

	text, ok := firstText(resp)
	if !ok {
		err := errors.New("response contains no text")
		g.logFailure("generate content returned no text", err)
		return "", &ai.UpstreamError{Op: "generate content", Err: err}
	}

	return text, nil
}

func (g *Generator) logFailure(msg string, err error) {
	fields := []zap.Field{zap.Error(err)}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields,
			zap.Int("status_code", apiErr.Code),
			zap.String("status", apiErr.Status),
		)
	}

	g.logger.Warn(msg, fields...)
}

func firstText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", false
	}

	part := candidate.Content.Parts[0]
	if part == nil || strings.TrimSpace(part.Text) == "" {
		return "", false
	}

	return part.Text, true
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
