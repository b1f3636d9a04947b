package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/jobboard-assistant/internal/ai"
	"github.com/spigell/jobboard-assistant/internal/extract"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func TestParseSearchFallsBackToKeywords(t *testing.T) {
	stub := &stubGenerator{response: "Sorry, I can only help with job searches in plain words."}
	assistant := NewAssistant(stub, zap.NewNop(), 0)

	filters, err := assistant.ParseSearch(context.Background(), "Remote React jobs in Lagos")
	if err != nil {
		t.Fatalf("expected fallback without error, got %v", err)
	}

	encoded, err := json.Marshal(filters)
	if err != nil {
		t.Fatalf("marshal filters: %v", err)
	}

	expected := `{"keywords":["Remote","React","jobs","in","Lagos"],"location":null,"jobType":null,"experienceLevel":null,"salaryMin":null,"salaryMax":null,"skills":[]}`
	if string(encoded) != expected {
		t.Fatalf("unexpected fallback filters:\n got %s\nwant %s", encoded, expected)
	}

	if len(stub.prompts) != 1 || !strings.Contains(stub.prompts[0], "Remote React jobs in Lagos") {
		t.Fatalf("expected exactly one prompt embedding the query, got %v", stub.prompts)
	}
}

func TestParseSearchDecodesFilters(t *testing.T) {
	stub := &stubGenerator{response: "```json\n" + `{
  "keywords": ["react", " "],
  "location": "Lagos",
  "jobType": "Full-Time",
  "experienceLevel": "null",
  "salaryMin": "50000",
  "salaryMax": null,
  "skills": null
}` + "\n```"}
	assistant := NewAssistant(stub, zap.NewNop(), 0)

	filters, err := assistant.ParseSearch(context.Background(), "react jobs in lagos")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(filters.Keywords) != 1 || filters.Keywords[0] != "react" {
		t.Fatalf("unexpected keywords: %v", filters.Keywords)
	}
	if filters.Location == nil || *filters.Location != "Lagos" {
		t.Fatalf("unexpected location: %v", filters.Location)
	}
	if filters.JobType == nil || *filters.JobType != "full_time" {
		t.Fatalf("unexpected job type: %v", filters.JobType)
	}
	if filters.ExperienceLevel != nil {
		t.Fatalf("expected experience level to be nil, got %q", *filters.ExperienceLevel)
	}
	if filters.SalaryMin == nil || *filters.SalaryMin != 50000 {
		t.Fatalf("unexpected salary min: %v", filters.SalaryMin)
	}
	if filters.SalaryMax != nil {
		t.Fatalf("expected salary max to be nil")
	}
	if filters.Skills == nil || len(filters.Skills) != 0 {
		t.Fatalf("expected empty skills, got %#v", filters.Skills)
	}
}

func TestParseSearchPropagatesMalformedJSON(t *testing.T) {
	stub := &stubGenerator{response: `{"keywords": ["react",}`}
	assistant := NewAssistant(stub, zap.NewNop(), 0)

	_, err := assistant.ParseSearch(context.Background(), "react")

	var malformed *extract.MalformedJSONError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected malformed json error, got %v", err)
	}

	var genErr *ai.GenerationError
	if !errors.As(err, &genErr) || genErr.Feature != ai.FeatureParseSearch {
		t.Fatalf("expected generation error for parseSearch, got %v", err)
	}
}

func TestInterviewQuestionsEmptyOnExtractionFailure(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	stub := &stubGenerator{response: "Here are some great questions: tell me about yourself."}
	assistant := NewAssistant(stub, zap.New(core), 0)

	questions, err := assistant.GenerateInterviewQuestions(context.Background(), "Go Developer", []string{"Go"}, "mid")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if questions == nil || len(questions) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", questions)
	}
	if observed.FilterMessageSnippet("returning none").Len() != 1 {
		t.Fatalf("expected fallback to be logged")
	}
}

func TestInterviewQuestionsDecodesArrayAndWrapper(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{
			name:     "array",
			response: `[{"question":" Explain goroutines ","type":"Technical","difficulty":"MEDIUM","tips":"scheduler"},{"question":""}]`,
		},
		{
			name:     "wrapped",
			response: `{"questions":[{"question":"Explain goroutines","type":"technical","difficulty":"medium","tips":"scheduler"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assistant := NewAssistant(&stubGenerator{response: tt.response}, zap.NewNop(), 0)

			questions, err := assistant.GenerateInterviewQuestions(context.Background(), "Go Developer", []string{"Go"}, "mid")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(questions) != 1 {
				t.Fatalf("expected 1 question, got %d", len(questions))
			}

			q := questions[0]
			if q.Question != "Explain goroutines" || q.Type != "technical" || q.Difficulty != "medium" || q.Tips != "scheduler" {
				t.Fatalf("unexpected question: %+v", q)
			}
		})
	}
}

func TestMatchJobFailsOnExtractionError(t *testing.T) {
	stub := &stubGenerator{response: "The candidate looks like a strong fit."}
	assistant := NewAssistant(stub, zap.NewNop(), 0)

	result, err := assistant.MatchJob(context.Background(), ai.CandidateProfile{Skills: []string{"Go"}}, ai.JobRequirements{Skills: []string{"Go"}})
	if err == nil {
		t.Fatalf("expected error, got result %+v", result)
	}
	if result != nil {
		t.Fatalf("expected nil result on failure")
	}

	var extractionErr *extract.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected extraction error to be reachable, got %v", err)
	}

	var genErr *ai.GenerationError
	if !errors.As(err, &genErr) || genErr.Feature != ai.FeatureMatchJob {
		t.Fatalf("expected generation error for matchJob, got %v", err)
	}
}

func TestMatchJobCoercesScore(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected int
	}{
		{name: "string score", response: `{"matchScore":"85"}`, expected: 85},
		{name: "float score", response: `{"matchScore":85.6}`, expected: 86},
		{name: "above range", response: `{"matchScore":140}`, expected: 100},
		{name: "huge score", response: `{"matchScore":1e30}`, expected: 100},
		{name: "huge score string", response: `{"matchScore":"1e30"}`, expected: 100},
		{name: "huge negative score", response: `{"matchScore":-1e30}`, expected: 0},
		{name: "below range", response: `{"matchScore":-3}`, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assistant := NewAssistant(&stubGenerator{response: tt.response}, zap.NewNop(), 0)

			result, err := assistant.MatchJob(context.Background(), ai.CandidateProfile{}, ai.JobRequirements{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.MatchScore != tt.expected {
				t.Fatalf("expected score %d, got %d", tt.expected, result.MatchScore)
			}
			if result.SkillsMatch == nil || result.MissingSkills == nil || result.Strengths == nil || result.Gaps == nil {
				t.Fatalf("expected empty slices instead of nil: %+v", result)
			}
		})
	}
}

func TestUpstreamErrorPropagates(t *testing.T) {
	upstream := &ai.UpstreamError{Op: "generate content", Err: errors.New("503")}
	assistant := NewAssistant(&stubGenerator{err: upstream}, zap.NewNop(), 0)

	calls := map[string]func() error{
		ai.FeatureParseResume: func() error {
			_, err := assistant.ParseResume(context.Background(), "resume")
			return err
		},
		ai.FeatureParseSearch: func() error {
			_, err := assistant.ParseSearch(context.Background(), "query")
			return err
		},
		ai.FeatureGenerateInterviewQuestions: func() error {
			_, err := assistant.GenerateInterviewQuestions(context.Background(), "role", nil, "mid")
			return err
		},
		ai.FeatureGetSalaryInsights: func() error {
			_, err := assistant.GetSalaryInsights(context.Background(), "role", "Lagos", "mid")
			return err
		},
		ai.FeatureGenerateJobDescription: func() error {
			_, err := assistant.GenerateJobDescription(context.Background(), ai.JobInfo{Title: "SRE"})
			return err
		},
	}

	for feature, call := range calls {
		t.Run(feature, func(t *testing.T) {
			err := call()

			var target *ai.UpstreamError
			if !errors.As(err, &target) {
				t.Fatalf("expected upstream error, got %v", err)
			}

			var genErr *ai.GenerationError
			if !errors.As(err, &genErr) || genErr.Feature != feature {
				t.Fatalf("expected generation error for %s, got %v", feature, err)
			}
		})
	}
}

func TestParseResumeNormalizes(t *testing.T) {
	response := `Here is the data:
{
  "name": " Ada Lovelace ",
  "email": "ada@example.com",
  "skills": ["Math", "  ", "Engines"],
  "experience": [{"company": "Analytical Co", "role": "Programmer", "startDate": 1842}],
  "education": null
}`
	assistant := NewAssistant(&stubGenerator{response: response}, zap.NewNop(), 0)

	resume, err := assistant.ParseResume(context.Background(), "Ada Lovelace ...")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resume.Name != "Ada Lovelace" {
		t.Fatalf("unexpected name: %q", resume.Name)
	}
	if len(resume.Skills) != 2 {
		t.Fatalf("unexpected skills: %v", resume.Skills)
	}
	if len(resume.Experience) != 1 || resume.Experience[0].StartDate != "1842" {
		t.Fatalf("unexpected experience: %+v", resume.Experience)
	}
	if resume.Education == nil {
		t.Fatalf("expected empty education slice")
	}
}

func TestGetSalaryInsightsDecodesRange(t *testing.T) {
	response := `{"role":"Designer","location":"Nairobi","currency":"kes","salaryRange":{"min":"1,200,000","median":1800000,"max":2400000.4},"factors":["portfolio"],"marketTrend":"Growing","demandLevel":"HIGH"}`
	assistant := NewAssistant(&stubGenerator{response: response}, zap.NewNop(), 0)

	insight, err := assistant.GetSalaryInsights(context.Background(), "Designer", "Nairobi", "mid")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if insight.SalaryRange.Min != 1200000 || insight.SalaryRange.Median != 1800000 {
		t.Fatalf("unexpected salary range: %+v", insight.SalaryRange)
	}
	if insight.Currency != "KES" || insight.MarketTrend != "growing" || insight.DemandLevel != "high" {
		t.Fatalf("unexpected normalization: %+v", insight)
	}
}

func TestGenerateJobDescriptionKeepsTitle(t *testing.T) {
	response := `{"summary":"Run our platform.","responsibilities":["on-call"],"benefits":"Remote work"}`
	assistant := NewAssistant(&stubGenerator{response: response}, zap.NewNop(), 0)

	description, err := assistant.GenerateJobDescription(context.Background(), ai.JobInfo{Title: "SRE", Company: "Acme"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if description.Title != "SRE" {
		t.Fatalf("expected title to fall back to input, got %q", description.Title)
	}
	if len(description.Benefits) != 1 || description.Benefits[0] != "Remote work" {
		t.Fatalf("unexpected benefits: %v", description.Benefits)
	}
	if description.Requirements == nil || description.NiceToHave == nil {
		t.Fatalf("expected empty slices instead of nil")
	}
}

func TestAssistantWithoutGenerator(t *testing.T) {
	assistant := NewAssistant(nil, nil, 0)

	_, err := assistant.ParseResume(context.Background(), "resume")
	if !errors.Is(err, ai.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestAssistantLogsPreviews(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	stub := &stubGenerator{response: `{"matchScore": 50}`}
	assistant := NewAssistant(stub, zap.New(core), 5)

	if _, err := assistant.MatchJob(context.Background(), ai.CandidateProfile{}, ai.JobRequirements{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	entries := observed.FilterMessage("gemini generate content response").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 response entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["response_preview"] != `{"mat...` {
		t.Fatalf("unexpected preview: %v", ctx["response_preview"])
	}
	if ctx["feature"] != ai.FeatureMatchJob {
		t.Fatalf("unexpected feature field: %v", ctx["feature"])
	}
}
