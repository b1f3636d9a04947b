package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobboard-assistant/internal/ai"
	"github.com/spigell/jobboard-assistant/internal/jobs"
)

// Filter represents a single filtering step applied to postings.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains the search being applied.
type Config struct {
	Filters           *ai.SearchFilters
	CandidateSkills   []string
	MinimumMatchScore int
	ExcludeCompanies  []string
	ExcludeFile       string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// toggle carries the enabled state shared by all steps.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) Reason() string { return t.reason }

// DefaultSteps returns the search steps in the order they are applied.
func DefaultSteps() []Filter {
	return []Filter{
		NewExcludeFile(),
		NewCompanies(),
		NewKeywords(),
		NewLocation(),
		NewJobType(),
		NewExperienceLevel(),
		NewSalary(),
		NewSkills(),
		NewMinScore(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially, returning the remaining postings.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, p *jobs.Postings) (*jobs.Postings, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Filters == nil {
		cfg.Filters = &ai.SearchFilters{}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		p = next
	}

	return p, nil
}

// Search applies the steps, or the default ones when steps is nil, and ranks
// what is left. Ranking uses the candidate skills, or the skills from the query
// when no candidate is given.
func Search(ctx context.Context, cfg *Config, logger *zap.Logger, steps []Filter, p *jobs.Postings) ([]jobs.RankedPosting, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if steps == nil {
		steps = DefaultSteps()
	}

	left, err := Run(ctx, cfg, Deps{Logger: logger}, steps, p)
	if err != nil {
		return nil, err
	}

	skills := cfg.CandidateSkills
	if len(skills) == 0 {
		skills = cfg.Filters.Skills
	}

	return left.Rank(skills), nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		status := Status{Name: step.Name(), Enabled: step.IsEnabled()}
		if r, ok := step.(interface{ Reason() string }); ok {
			status.Reason = r.Reason()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func stepResult(initial int, p *jobs.Postings) Step {
	return Step{Initial: initial, Dropped: initial - p.Len(), Left: p.Len()}
}

func logDropped(deps Deps, msg string, dropped []string, p *jobs.Postings, fields ...zap.Field) {
	if deps.Logger == nil || len(dropped) == 0 {
		return
	}

	fields = append(fields,
		zap.Strings("excluded_postings", dropped),
		zap.Int("postings_left", p.Len()),
	)
	deps.Logger.Debug(msg, fields...)
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeKind maps "Full-Time", "full time" and "full_time" to the same value.
func normalizeKind(s string) string {
	s = lower(s)
	s = strings.ReplaceAll(s, "-", "_")
	return strings.Join(strings.Fields(s), "_")
}
