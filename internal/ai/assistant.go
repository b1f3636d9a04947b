package ai

import (
	"context"
)

// Feature names used in logs, errors and the action surface.
const (
	FeatureParseResume                = "parseResume"
	FeatureMatchJob                   = "matchJob"
	FeatureGenerateJobDescription     = "generateJobDescription"
	FeatureParseSearch                = "parseSearch"
	FeatureGenerateInterviewQuestions = "generateInterviewQuestions"
	FeatureGetSalaryInsights          = "getSalaryInsights"
)

// Assistant turns free-form text into structured job-board data using a generative model.
type Assistant interface {
	ParseResume(ctx context.Context, resumeText string) (*ParsedResume, error)
	MatchJob(ctx context.Context, candidate CandidateProfile, job JobRequirements) (*JobMatchResult, error)
	GenerateJobDescription(ctx context.Context, info JobInfo) (*GeneratedJobDescription, error)
	ParseSearch(ctx context.Context, query string) (*SearchFilters, error)
	GenerateInterviewQuestions(ctx context.Context, role string, skills []string, experienceLevel string) ([]InterviewQuestion, error)
	GetSalaryInsights(ctx context.Context, role, location, experienceLevel string) (*SalaryInsight, error)
}

type ParsedResume struct {
	Name       string       `json:"name" mapstructure:"name"`
	Email      string       `json:"email" mapstructure:"email"`
	Phone      string       `json:"phone" mapstructure:"phone"`
	Location   string       `json:"location" mapstructure:"location"`
	Headline   string       `json:"headline" mapstructure:"headline"`
	Summary    string       `json:"summary" mapstructure:"summary"`
	Skills     []string     `json:"skills" mapstructure:"skills"`
	Experience []Experience `json:"experience" mapstructure:"experience"`
	Education  []Education  `json:"education" mapstructure:"education"`
}

type Experience struct {
	Company     string `json:"company" mapstructure:"company"`
	Role        string `json:"role" mapstructure:"role"`
	StartDate   string `json:"startDate" mapstructure:"startDate"`
	EndDate     string `json:"endDate" mapstructure:"endDate"`
	Description string `json:"description" mapstructure:"description"`
}

type Education struct {
	Institution string `json:"institution" mapstructure:"institution"`
	Degree      string `json:"degree" mapstructure:"degree"`
	Field       string `json:"field" mapstructure:"field"`
	Year        string `json:"year" mapstructure:"year"`
}

type CandidateProfile struct {
	Skills          []string `json:"skills"`
	YearsExperience float64  `json:"yearsExperience" validate:"gte=0"`
	Location        string   `json:"location"`
	DesiredSalary   string   `json:"desiredSalary"`
}

type JobRequirements struct {
	Title           string   `json:"title"`
	Skills          []string `json:"skills"`
	ExperienceLevel string   `json:"experienceLevel"`
	Location        string   `json:"location"`
	SalaryRange     string   `json:"salaryRange"`
}

// JobMatchResult is the model's assessment of a candidate against a job.
// MatchScore is advisory and is not checked against SkillsMatch.
type JobMatchResult struct {
	MatchScore     int      `json:"matchScore" mapstructure:"matchScore"`
	SkillsMatch    []string `json:"skillsMatch" mapstructure:"skillsMatch"`
	MissingSkills  []string `json:"missingSkills" mapstructure:"missingSkills"`
	Strengths      []string `json:"strengths" mapstructure:"strengths"`
	Gaps           []string `json:"gaps" mapstructure:"gaps"`
	Recommendation string   `json:"recommendation" mapstructure:"recommendation"`
}

type JobInfo struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	Type         string   `json:"type"`
	Requirements []string `json:"requirements"`
}

type GeneratedJobDescription struct {
	Title            string   `json:"title" mapstructure:"title"`
	Summary          string   `json:"summary" mapstructure:"summary"`
	Responsibilities []string `json:"responsibilities" mapstructure:"responsibilities"`
	Requirements     []string `json:"requirements" mapstructure:"requirements"`
	NiceToHave       []string `json:"niceToHave" mapstructure:"niceToHave"`
	Benefits         []string `json:"benefits" mapstructure:"benefits"`
}

// SearchFilters is the structured form of a free-text job search.
// Nil pointers mean the query did not constrain that dimension.
type SearchFilters struct {
	Keywords        []string `json:"keywords" mapstructure:"keywords"`
	Location        *string  `json:"location" mapstructure:"location"`
	JobType         *string  `json:"jobType" mapstructure:"jobType"`
	ExperienceLevel *string  `json:"experienceLevel" mapstructure:"experienceLevel"`
	SalaryMin       *float64 `json:"salaryMin" mapstructure:"salaryMin"`
	SalaryMax       *float64 `json:"salaryMax" mapstructure:"salaryMax"`
	Skills          []string `json:"skills" mapstructure:"skills"`
}

type InterviewQuestion struct {
	Question   string `json:"question" mapstructure:"question"`
	Type       string `json:"type" mapstructure:"type"`
	Difficulty string `json:"difficulty" mapstructure:"difficulty"`
	Tips       string `json:"tips" mapstructure:"tips"`
}

type SalaryInsight struct {
	Role        string      `json:"role" mapstructure:"role"`
	Location    string      `json:"location" mapstructure:"location"`
	Currency    string      `json:"currency" mapstructure:"currency"`
	SalaryRange SalaryRange `json:"salaryRange" mapstructure:"salaryRange"`
	Factors     []string    `json:"factors" mapstructure:"factors"`
	MarketTrend string      `json:"marketTrend" mapstructure:"marketTrend"`
	DemandLevel string      `json:"demandLevel" mapstructure:"demandLevel"`
}

// SalaryRange is expected to satisfy Min <= Median <= Max; the order is not enforced.
type SalaryRange struct {
	Min    float64 `json:"min" mapstructure:"min"`
	Median float64 `json:"median" mapstructure:"median"`
	Max    float64 `json:"max" mapstructure:"max"`
}
