package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobboard-assistant/internal/jobs"
	"github.com/spigell/jobboard-assistant/internal/matching"
)

var fillerWords = map[string]struct{}{
	"in": {}, "jobs": {}, "job": {}, "for": {}, "at": {}, "the": {}, "a": {},
	"an": {}, "and": {}, "or": {}, "with": {}, "near": {},
}

type keywordsFilter struct {
	toggle
	keywords []string
}

// NewKeywords creates a filter that keeps postings mentioning at least one search keyword.
func NewKeywords() Filter {
	return &keywordsFilter{}
}

func (f *keywordsFilter) Name() string { return "keywords" }

// Validate drops filler words and the words already handled by the structured
// filters, so "remote react jobs in lagos" with location lagos only needs "react".
func (f *keywordsFilter) Validate(cfg *Config) error {
	consumed := make(map[string]struct{})
	consume := func(values ...string) {
		for _, value := range values {
			for _, word := range strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(lower(value))) {
				consumed[word] = struct{}{}
			}
		}
	}

	filters := cfg.Filters
	if filters.Location != nil {
		consume(*filters.Location)
	}
	if filters.JobType != nil {
		consume(*filters.JobType)
	}
	if filters.ExperienceLevel != nil {
		consume(*filters.ExperienceLevel)
	}
	consume(filters.Skills...)

	f.keywords = nil
	seen := make(map[string]struct{})
	for _, keyword := range filters.Keywords {
		keyword = lower(keyword)
		if keyword == "" {
			continue
		}
		if _, ok := fillerWords[keyword]; ok {
			continue
		}
		if _, ok := consumed[keyword]; ok {
			continue
		}
		if _, ok := seen[keyword]; ok {
			continue
		}
		seen[keyword] = struct{}{}
		f.keywords = append(f.keywords, keyword)
	}

	if len(f.keywords) == 0 {
		f.Disable("no keywords left")
	}
	return nil
}

func (f *keywordsFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()

	dropped := p.Keep(func(posting *jobs.Posting) bool {
		haystack := lower(strings.Join([]string{
			posting.Title,
			posting.Company,
			posting.Location,
			posting.Type,
			posting.Description,
			strings.Join(posting.Skills, " "),
		}, " "))

		for _, keyword := range f.keywords {
			if strings.Contains(haystack, keyword) {
				return true
			}
		}
		return false
	})
	logDropped(deps, "excluding postings without keywords", dropped, p, zap.Strings("keywords", f.keywords))

	return p, stepResult(initial, p), nil
}

func (f *keywordsFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"keywords": strings.Join(f.keywords, ",")},
	}
}

type locationFilter struct {
	toggle
	location string
}

// NewLocation creates a filter that keeps postings in the requested location.
func NewLocation() Filter {
	return &locationFilter{}
}

func (f *locationFilter) Name() string { return "location" }

func (f *locationFilter) Validate(cfg *Config) error {
	f.location = ""
	if cfg.Filters.Location != nil {
		f.location = lower(*cfg.Filters.Location)
	}
	if f.location == "" {
		f.Disable("no location requested")
	}
	return nil
}

func (f *locationFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()

	dropped := p.Keep(func(posting *jobs.Posting) bool {
		if strings.Contains(lower(posting.Location), f.location) {
			return true
		}
		return f.location == "remote" && normalizeKind(posting.Type) == "remote"
	})
	logDropped(deps, "excluding postings by location", dropped, p, zap.String("location", f.location))

	return p, stepResult(initial, p), nil
}

type jobTypeFilter struct {
	toggle
	jobType string
}

// NewJobType creates a filter that keeps postings of the requested employment type.
// Postings that do not declare a type are kept, except for remote searches.
func NewJobType() Filter {
	return &jobTypeFilter{}
}

func (f *jobTypeFilter) Name() string { return "job_type" }

func (f *jobTypeFilter) Validate(cfg *Config) error {
	f.jobType = ""
	if cfg.Filters.JobType != nil {
		f.jobType = normalizeKind(*cfg.Filters.JobType)
	}
	if f.jobType == "" {
		f.Disable("no job type requested")
	}
	return nil
}

func (f *jobTypeFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()

	dropped := p.Keep(func(posting *jobs.Posting) bool {
		kind := normalizeKind(posting.Type)
		if f.jobType == "remote" {
			return kind == "remote" || strings.Contains(lower(posting.Location), "remote")
		}
		return kind == "" || kind == f.jobType
	})
	logDropped(deps, "excluding postings by job type", dropped, p, zap.String("job_type", f.jobType))

	return p, stepResult(initial, p), nil
}

type experienceLevelFilter struct {
	toggle
	level string
}

// NewExperienceLevel creates a filter that keeps postings of the requested level.
// Postings that do not declare a level are kept.
func NewExperienceLevel() Filter {
	return &experienceLevelFilter{}
}

func (f *experienceLevelFilter) Name() string { return "experience_level" }

func (f *experienceLevelFilter) Validate(cfg *Config) error {
	f.level = ""
	if cfg.Filters.ExperienceLevel != nil {
		f.level = normalizeKind(*cfg.Filters.ExperienceLevel)
	}
	if f.level == "" {
		f.Disable("no experience level requested")
	}
	return nil
}

func (f *experienceLevelFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()

	dropped := p.Keep(func(posting *jobs.Posting) bool {
		level := normalizeKind(posting.ExperienceLevel)
		return level == "" || level == f.level
	})
	logDropped(deps, "excluding postings by experience level", dropped, p, zap.String("experience_level", f.level))

	return p, stepResult(initial, p), nil
}

type salaryFilter struct {
	toggle
	min *float64
	max *float64
}

// NewSalary creates a filter that keeps postings whose salary range overlaps the requested one.
// Postings without salary data are kept.
func NewSalary() Filter {
	return &salaryFilter{}
}

func (f *salaryFilter) Name() string { return "salary" }

func (f *salaryFilter) Validate(cfg *Config) error {
	f.min, f.max = cfg.Filters.SalaryMin, cfg.Filters.SalaryMax
	if f.min == nil && f.max == nil {
		f.Disable("no salary range requested")
	}
	return nil
}

func (f *salaryFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()

	dropped := p.Keep(func(posting *jobs.Posting) bool {
		if f.max != nil && posting.SalaryMin != nil && *posting.SalaryMin > *f.max {
			return false
		}
		if f.min != nil && posting.SalaryMax != nil && *posting.SalaryMax < *f.min {
			return false
		}
		return true
	})
	logDropped(deps, "excluding postings by salary", dropped, p)

	return p, stepResult(initial, p), nil
}

func (f *salaryFilter) Status() Status {
	details := map[string]string{}
	if f.min != nil {
		details["min"] = strconv.FormatFloat(*f.min, 'f', -1, 64)
	}
	if f.max != nil {
		details["max"] = strconv.FormatFloat(*f.max, 'f', -1, 64)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type skillsFilter struct {
	toggle
	skills []string
}

// NewSkills creates a filter that keeps postings sharing at least one skill with the search.
func NewSkills() Filter {
	return &skillsFilter{}
}

func (f *skillsFilter) Name() string { return "skills" }

func (f *skillsFilter) Validate(cfg *Config) error {
	f.skills = append([]string(nil), cfg.Filters.Skills...)
	if len(f.skills) == 0 {
		f.Disable("no skills requested")
	}
	return nil
}

func (f *skillsFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()

	dropped := p.Keep(func(posting *jobs.Posting) bool {
		return matching.Estimate(f.skills, posting.Skills) > 0
	})
	logDropped(deps, "excluding postings by skills", dropped, p, zap.Strings("skills", f.skills))

	return p, stepResult(initial, p), nil
}

type minScoreFilter struct {
	toggle
	threshold int
	skills    []string
}

// NewMinScore creates a filter that drops postings whose estimate against the
// candidate skills is below the configured threshold.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.threshold = cfg.MinimumMatchScore
	f.skills = append([]string(nil), cfg.CandidateSkills...)
	if f.threshold > 100 {
		return fmt.Errorf("minimum match score %d is above 100", f.threshold)
	}
	switch {
	case f.threshold <= 0:
		f.Disable("minimum match score is not set")
	case len(f.skills) == 0:
		f.Disable("no candidate skills")
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()

	dropped := p.Keep(func(posting *jobs.Posting) bool {
		return matching.Estimate(f.skills, posting.Skills) >= f.threshold
	})
	logDropped(deps, "excluding postings by match score", dropped, p, zap.Int("threshold", f.threshold))

	return p, stepResult(initial, p), nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum_match_score": strconv.Itoa(f.threshold)},
	}
}
