package gemini

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/spigell/jobboard-assistant/internal/ai"
	"github.com/spigell/jobboard-assistant/internal/extract"
	"github.com/spigell/jobboard-assistant/internal/utils"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Assistant implements ai.Assistant on top of a text generator.
type Assistant struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Assistant = (*Assistant)(nil)

const defaultMaxLogLength = 200

func NewAssistant(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Assistant {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Assistant{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Assistant) ParseResume(ctx context.Context, resumeText string) (*ai.ParsedResume, error) {
	raw, err := a.generate(ctx, ai.FeatureParseResume, buildParseResumePrompt(resumeText))
	if err != nil {
		return nil, failed(ai.FeatureParseResume, err)
	}

	var resume ai.ParsedResume
	if err := extract.Decode(raw, &resume); err != nil {
		return nil, failed(ai.FeatureParseResume, err)
	}

	normalizeResume(&resume)
	return &resume, nil
}

func (a *Assistant) MatchJob(ctx context.Context, candidate ai.CandidateProfile, job ai.JobRequirements) (*ai.JobMatchResult, error) {
	raw, err := a.generate(ctx, ai.FeatureMatchJob, buildMatchJobPrompt(candidate, job))
	if err != nil {
		return nil, failed(ai.FeatureMatchJob, err)
	}

	var result ai.JobMatchResult
	if err := extract.Decode(raw, &result); err != nil {
		return nil, failed(ai.FeatureMatchJob, err)
	}

	result.MatchScore = clampScore(result.MatchScore)
	result.SkillsMatch = cleanList(result.SkillsMatch)
	result.MissingSkills = cleanList(result.MissingSkills)
	result.Strengths = cleanList(result.Strengths)
	result.Gaps = cleanList(result.Gaps)
	result.Recommendation = strings.TrimSpace(result.Recommendation)

	return &result, nil
}

func (a *Assistant) GenerateJobDescription(ctx context.Context, info ai.JobInfo) (*ai.GeneratedJobDescription, error) {
	raw, err := a.generate(ctx, ai.FeatureGenerateJobDescription, buildJobDescriptionPrompt(info))
	if err != nil {
		return nil, failed(ai.FeatureGenerateJobDescription, err)
	}

	var description ai.GeneratedJobDescription
	if err := extract.Decode(raw, &description); err != nil {
		return nil, failed(ai.FeatureGenerateJobDescription, err)
	}

	description.Title = strings.TrimSpace(description.Title)
	if description.Title == "" {
		description.Title = strings.TrimSpace(info.Title)
	}
	description.Summary = strings.TrimSpace(description.Summary)
	description.Responsibilities = cleanList(description.Responsibilities)
	description.Requirements = cleanList(description.Requirements)
	description.NiceToHave = cleanList(description.NiceToHave)
	description.Benefits = cleanList(description.Benefits)

	return &description, nil
}

// ParseSearch falls back to plain keyword filters when the model answers without JSON.
func (a *Assistant) ParseSearch(ctx context.Context, query string) (*ai.SearchFilters, error) {
	raw, err := a.generate(ctx, ai.FeatureParseSearch, buildParseSearchPrompt(query))
	if err != nil {
		return nil, failed(ai.FeatureParseSearch, err)
	}

	var filters ai.SearchFilters
	if err := extract.Decode(raw, &filters); err != nil {
		var extractionErr *extract.ExtractionError
		if errors.As(err, &extractionErr) {
			a.logger.Info("search query answer has no json, using keyword fallback",
				zap.String("feature", ai.FeatureParseSearch),
				zap.String("query", utils.TruncateForLog(query, a.maxLogLen)),
			)
			return KeywordFilters(query), nil
		}
		return nil, failed(ai.FeatureParseSearch, err)
	}

	normalizeFilters(&filters)
	return &filters, nil
}

// GenerateInterviewQuestions returns an empty list when the model answers without JSON.
func (a *Assistant) GenerateInterviewQuestions(ctx context.Context, role string, skills []string, experienceLevel string) ([]ai.InterviewQuestion, error) {
	raw, err := a.generate(ctx, ai.FeatureGenerateInterviewQuestions, buildInterviewQuestionsPrompt(role, skills, experienceLevel))
	if err != nil {
		return nil, failed(ai.FeatureGenerateInterviewQuestions, err)
	}

	value, err := extract.Parse(raw)
	if err != nil {
		var extractionErr *extract.ExtractionError
		if errors.As(err, &extractionErr) {
			a.logger.Info("interview questions answer has no json, returning none",
				zap.String("feature", ai.FeatureGenerateInterviewQuestions),
			)
			return []ai.InterviewQuestion{}, nil
		}
		return nil, failed(ai.FeatureGenerateInterviewQuestions, err)
	}

	// Some answers wrap the list as {"questions": [...]}.
	if wrapper, ok := value.(map[string]any); ok {
		if inner, ok := wrapper["questions"]; ok {
			value = inner
		}
	}

	var questions []ai.InterviewQuestion
	if err := extract.Into(value, &questions); err != nil {
		return nil, failed(ai.FeatureGenerateInterviewQuestions, err)
	}

	result := make([]ai.InterviewQuestion, 0, len(questions))
	for _, q := range questions {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			continue
		}
		q.Type = strings.ToLower(strings.TrimSpace(q.Type))
		q.Difficulty = strings.ToLower(strings.TrimSpace(q.Difficulty))
		q.Tips = strings.TrimSpace(q.Tips)
		result = append(result, q)
	}

	return result, nil
}

func (a *Assistant) GetSalaryInsights(ctx context.Context, role, location, experienceLevel string) (*ai.SalaryInsight, error) {
	raw, err := a.generate(ctx, ai.FeatureGetSalaryInsights, buildSalaryInsightsPrompt(role, location, experienceLevel))
	if err != nil {
		return nil, failed(ai.FeatureGetSalaryInsights, err)
	}

	var insight ai.SalaryInsight
	if err := extract.Decode(raw, &insight); err != nil {
		return nil, failed(ai.FeatureGetSalaryInsights, err)
	}

	insight.Role = strings.TrimSpace(insight.Role)
	insight.Location = strings.TrimSpace(insight.Location)
	insight.Currency = strings.ToUpper(strings.TrimSpace(insight.Currency))
	insight.Factors = cleanList(insight.Factors)
	insight.MarketTrend = strings.ToLower(strings.TrimSpace(insight.MarketTrend))
	insight.DemandLevel = strings.ToLower(strings.TrimSpace(insight.DemandLevel))

	return &insight, nil
}

func (a *Assistant) generate(ctx context.Context, feature, prompt string) (string, error) {
	if a == nil || a.generator == nil {
		return "", ai.ErrNotConfigured
	}

	a.logger.Debug("gemini generate content request",
		zap.String("feature", feature),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	a.logger.Debug("gemini generate content response",
		zap.String("feature", feature),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	return raw, nil
}

// KeywordFilters builds the filters used when a query cannot be parsed by the model.
func KeywordFilters(query string) *ai.SearchFilters {
	return &ai.SearchFilters{
		Keywords: strings.Fields(query),
		Skills:   []string{},
	}
}

func failed(feature string, err error) error {
	return &ai.GenerationError{Feature: feature, Err: err}
}

func normalizeResume(resume *ai.ParsedResume) {
	resume.Name = strings.TrimSpace(resume.Name)
	resume.Email = strings.TrimSpace(resume.Email)
	resume.Phone = strings.TrimSpace(resume.Phone)
	resume.Location = strings.TrimSpace(resume.Location)
	resume.Headline = strings.TrimSpace(resume.Headline)
	resume.Summary = strings.TrimSpace(resume.Summary)
	resume.Skills = cleanList(resume.Skills)

	if resume.Experience == nil {
		resume.Experience = []ai.Experience{}
	}
	for i := range resume.Experience {
		e := &resume.Experience[i]
		e.Company = strings.TrimSpace(e.Company)
		e.Role = strings.TrimSpace(e.Role)
		e.StartDate = strings.TrimSpace(e.StartDate)
		e.EndDate = strings.TrimSpace(e.EndDate)
		e.Description = strings.TrimSpace(e.Description)
	}

	if resume.Education == nil {
		resume.Education = []ai.Education{}
	}
	for i := range resume.Education {
		e := &resume.Education[i]
		e.Institution = strings.TrimSpace(e.Institution)
		e.Degree = strings.TrimSpace(e.Degree)
		e.Field = strings.TrimSpace(e.Field)
		e.Year = strings.TrimSpace(e.Year)
	}
}

func normalizeFilters(filters *ai.SearchFilters) {
	filters.Keywords = cleanList(filters.Keywords)
	filters.Skills = cleanList(filters.Skills)
	filters.Location = optionalString(filters.Location, false)
	filters.JobType = optionalString(filters.JobType, true)
	filters.ExperienceLevel = optionalString(filters.ExperienceLevel, true)
}

// optionalString drops blank and literal "null" answers.
func optionalString(value *string, lower bool) *string {
	if value == nil {
		return nil
	}

	v := strings.TrimSpace(*value)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	if lower {
		v = strings.ToLower(strings.ReplaceAll(v, "-", "_"))
	}

	return &v
}

func cleanList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		result = append(result, v)
	}
	return result
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
