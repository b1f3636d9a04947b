package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/jobboard-assistant/internal/ai"
	"github.com/spigell/jobboard-assistant/internal/ai/gemini"
	"github.com/spigell/jobboard-assistant/internal/filtering"
	"github.com/spigell/jobboard-assistant/internal/jobs"
	"github.com/spigell/jobboard-assistant/internal/logger"
	"github.com/spigell/jobboard-assistant/internal/matching"
)

const (
	ActionEstimateMatch = "estimateMatch"
	ActionSearchJobs    = "searchJobs"
)

type actionRequest struct {
	Action  string          `json:"action" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

type action func(ctx context.Context, payload json.RawMessage, log *zap.Logger) (any, error)

type parseResumePayload struct {
	ResumeText string `json:"resumeText"`
}

type matchJobPayload struct {
	CandidateProfile ai.CandidateProfile `json:"candidateProfile"`
	JobRequirements  ai.JobRequirements  `json:"jobRequirements"`
}

type jobDescriptionPayload struct {
	JobInfo ai.JobInfo `json:"jobInfo"`
}

type parseSearchPayload struct {
	Query string `json:"query"`
}

type interviewQuestionsPayload struct {
	Role            string   `json:"role"`
	Skills          []string `json:"skills"`
	ExperienceLevel string   `json:"experienceLevel"`
}

type salaryInsightsPayload struct {
	Role            string `json:"role"`
	Location        string `json:"location"`
	ExperienceLevel string `json:"experienceLevel"`
}

type estimateMatchPayload struct {
	CandidateSkills []string `json:"candidateSkills"`
	JobSkills       []string `json:"jobSkills"`
}

// EstimateResult is the local, model-free match estimate.
type EstimateResult struct {
	MatchScore    int      `json:"matchScore"`
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
}

type searchJobsPayload struct {
	Query           string   `json:"query"`
	Jobs            []any    `json:"jobs"`
	CandidateSkills []string `json:"candidateSkills"`
}

// SearchResult is the answer of the searchJobs action.
type SearchResult struct {
	Filters *ai.SearchFilters    `json:"filters"`
	Jobs    []jobs.RankedPosting `json:"jobs"`
}

// Actions lists the action names accepted by the AI endpoint.
func Actions() []string {
	return []string{
		ai.FeatureParseResume,
		ai.FeatureMatchJob,
		ai.FeatureGenerateJobDescription,
		ai.FeatureParseSearch,
		ai.FeatureGenerateInterviewQuestions,
		ai.FeatureGetSalaryInsights,
		ActionEstimateMatch,
		ActionSearchJobs,
	}
}

func (s *Server) registerActions() map[string]action {
	return map[string]action{
		ai.FeatureParseResume: func(ctx context.Context, raw json.RawMessage, _ *zap.Logger) (any, error) {
			var p parseResumePayload
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			if s.assistant == nil {
				return nil, ai.ErrNotConfigured
			}
			return s.assistant.ParseResume(ctx, p.ResumeText)
		},
		ai.FeatureMatchJob: func(ctx context.Context, raw json.RawMessage, _ *zap.Logger) (any, error) {
			var p matchJobPayload
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			if s.assistant == nil {
				return nil, ai.ErrNotConfigured
			}
			return s.assistant.MatchJob(ctx, p.CandidateProfile, p.JobRequirements)
		},
		ai.FeatureGenerateJobDescription: func(ctx context.Context, raw json.RawMessage, _ *zap.Logger) (any, error) {
			var p jobDescriptionPayload
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			if s.assistant == nil {
				return nil, ai.ErrNotConfigured
			}
			return s.assistant.GenerateJobDescription(ctx, p.JobInfo)
		},
		ai.FeatureParseSearch: func(ctx context.Context, raw json.RawMessage, _ *zap.Logger) (any, error) {
			var p parseSearchPayload
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			if s.assistant == nil {
				return nil, ai.ErrNotConfigured
			}
			return s.assistant.ParseSearch(ctx, p.Query)
		},
		ai.FeatureGenerateInterviewQuestions: func(ctx context.Context, raw json.RawMessage, _ *zap.Logger) (any, error) {
			var p interviewQuestionsPayload
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			if s.assistant == nil {
				return nil, ai.ErrNotConfigured
			}
			return s.assistant.GenerateInterviewQuestions(ctx, p.Role, p.Skills, p.ExperienceLevel)
		},
		ai.FeatureGetSalaryInsights: func(ctx context.Context, raw json.RawMessage, _ *zap.Logger) (any, error) {
			var p salaryInsightsPayload
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			if s.assistant == nil {
				return nil, ai.ErrNotConfigured
			}
			return s.assistant.GetSalaryInsights(ctx, p.Role, p.Location, p.ExperienceLevel)
		},
		ActionEstimateMatch: func(_ context.Context, raw json.RawMessage, _ *zap.Logger) (any, error) {
			var p estimateMatchPayload
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			matched, missing := matching.Overlap(p.CandidateSkills, p.JobSkills)
			return &EstimateResult{
				MatchScore:    matching.Estimate(p.CandidateSkills, p.JobSkills),
				MatchedSkills: matched,
				MissingSkills: missing,
			}, nil
		},
		ActionSearchJobs: s.searchJobs,
	}
}

func (s *Server) searchJobs(ctx context.Context, raw json.RawMessage, log *zap.Logger) (any, error) {
	var p searchJobsPayload
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	postings, err := jobs.FromValue(p.Jobs)
	if err != nil {
		return nil, &payloadError{err: err}
	}

	filters, err := s.parseQuery(ctx, p.Query)
	if err != nil {
		return nil, err
	}

	ranked, err := filtering.Search(ctx, &filtering.Config{
		Filters:           filters,
		CandidateSkills:   p.CandidateSkills,
		MinimumMatchScore: s.cfg.MinimumMatchScore,
	}, log, nil, postings)
	if err != nil {
		return nil, err
	}

	return &SearchResult{Filters: filters, Jobs: ranked}, nil
}

// parseQuery uses the model when it is configured and plain keywords otherwise.
func (s *Server) parseQuery(ctx context.Context, query string) (*ai.SearchFilters, error) {
	if s.assistant == nil {
		return gemini.KeywordFilters(query), nil
	}
	return s.assistant.ParseSearch(ctx, query)
}

// ErrUnknownAction is returned by Do for names missing from Actions.
var ErrUnknownAction = errors.New("unknown action")

// Do validates the payload of the named action and runs it.
func (s *Server) Do(ctx context.Context, name string, payload json.RawMessage, log *zap.Logger) (any, error) {
	if log == nil {
		log = s.logger
	}

	handler, ok := s.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}

	if err := s.schemas.validate(name, payload); err != nil {
		return nil, err
	}

	return handler(ctx, payload, log)
}

// IsPayloadError reports whether err was caused by the request payload.
func IsPayloadError(err error) bool {
	var validationErr *ValidationError
	var payloadErr *payloadError
	return errors.As(err, &validationErr) || errors.As(err, &payloadErr)
}

func (s *Server) handleAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.requestLogger(c).Debug("invalid action envelope", zap.Error(err))
		fail(c, http.StatusBadRequest, invalidPayload)
		return
	}

	log := logger.WithRequest(s.requestLogger(c), "", req.Action)

	data, err := s.Do(c.Request.Context(), req.Action, req.Payload, log)
	switch {
	case err == nil:
		succeed(c, data)
	case errors.Is(err, ErrUnknownAction):
		log.Info("unknown action requested")
		fail(c, http.StatusBadRequest, fmt.Sprintf("unknown action: %s", req.Action))
	case IsPayloadError(err):
		log.Info("action payload rejected", zap.Error(err))
		fail(c, http.StatusBadRequest, invalidPayload)
	default:
		log.Error("action failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, genericFailure)
	}
}

// payloadError marks a payload that passed the schema but still could not be decoded.
type payloadError struct {
	err error
}

func (e *payloadError) Error() string { return fmt.Sprintf("decode payload: %v", e.err) }

func (e *payloadError) Unwrap() error { return e.err }

func decode(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &payloadError{err: err}
	}
	return nil
}
