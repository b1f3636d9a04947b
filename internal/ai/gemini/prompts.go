package gemini

import (
	"strconv"
	"strings"

	_ "embed"

	"github.com/spigell/jobboard-assistant/internal/ai"
)

var (
	//go:embed prompts/parse_resume.md
	parseResumeTemplate string
	//go:embed prompts/match_job.md
	matchJobTemplate string
	//go:embed prompts/job_description.md
	jobDescriptionTemplate string
	//go:embed prompts/parse_search.md
	parseSearchTemplate string
	//go:embed prompts/interview_questions.md
	interviewQuestionsTemplate string
	//go:embed prompts/salary_insights.md
	salaryInsightsTemplate string
)

// Caller values are embedded as is. The model is trusted to treat them as data.

func buildParseResumePrompt(resumeText string) string {
	return fill(parseResumeTemplate, "{{RESUME_TEXT}}", resumeText)
}

func buildMatchJobPrompt(candidate ai.CandidateProfile, job ai.JobRequirements) string {
	return fill(matchJobTemplate,
		"{{CANDIDATE_SKILLS}}", joinList(candidate.Skills),
		"{{CANDIDATE_YEARS}}", strconv.FormatFloat(candidate.YearsExperience, 'f', -1, 64),
		"{{CANDIDATE_LOCATION}}", candidate.Location,
		"{{CANDIDATE_SALARY}}", candidate.DesiredSalary,
		"{{JOB_TITLE}}", job.Title,
		"{{JOB_SKILLS}}", joinList(job.Skills),
		"{{JOB_LEVEL}}", job.ExperienceLevel,
		"{{JOB_LOCATION}}", job.Location,
		"{{JOB_SALARY}}", job.SalaryRange,
	)
}

func buildJobDescriptionPrompt(info ai.JobInfo) string {
	return fill(jobDescriptionTemplate,
		"{{TITLE}}", info.Title,
		"{{COMPANY}}", info.Company,
		"{{LOCATION}}", info.Location,
		"{{TYPE}}", info.Type,
		"{{REQUIREMENTS}}", joinList(info.Requirements),
	)
}

func buildParseSearchPrompt(query string) string {
	return fill(parseSearchTemplate, "{{QUERY}}", query)
}

func buildInterviewQuestionsPrompt(role string, skills []string, level string) string {
	return fill(interviewQuestionsTemplate,
		"{{ROLE}}", role,
		"{{SKILLS}}", joinList(skills),
		"{{LEVEL}}", level,
	)
}

func buildSalaryInsightsPrompt(role, location, level string) string {
	return fill(salaryInsightsTemplate,
		"{{ROLE}}", role,
		"{{LOCATION}}", location,
		"{{LEVEL}}", level,
	)
}

// fill replaces each marker with its value in a single pass, so values
// containing marker-like text are never substituted again.
func fill(template string, pairs ...string) string {
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template))
}

func joinList(values []string) string {
	return strings.Join(values, ", ")
}
