// Package jobs holds the job postings a search runs over.
package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spigell/jobboard-assistant/internal/extract"
	"github.com/spigell/jobboard-assistant/internal/matching"
)

const (
	PostingIDField      = "ID"
	PostingCompanyField = "Company"
)

type Postings struct {
	Items []*Posting `json:"items" mapstructure:"items" validate:"dive,required"`
}

type Posting struct {
	ID              string   `json:"id" mapstructure:"id" validate:"required"`
	Title           string   `json:"title" mapstructure:"title" validate:"required"`
	Company         string   `json:"company" mapstructure:"company"`
	Location        string   `json:"location" mapstructure:"location"`
	Type            string   `json:"type" mapstructure:"type"`
	ExperienceLevel string   `json:"experienceLevel" mapstructure:"experienceLevel"`
	SalaryMin       *float64 `json:"salaryMin" mapstructure:"salaryMin"`
	SalaryMax       *float64 `json:"salaryMax" mapstructure:"salaryMax"`
	Skills          []string `json:"skills" mapstructure:"skills"`
	Description     string   `json:"description" mapstructure:"description"`
	URL             string   `json:"url" mapstructure:"url"`
}

// RankedPosting is a posting annotated with the local skill estimate.
type RankedPosting struct {
	*Posting
	MatchScore    int      `json:"matchScore"`
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
}

var validate = validator.New()

// FromValue decodes postings from parsed JSON, either a bare list or an object with an items list.
func FromValue(value any) (*Postings, error) {
	if list, ok := value.([]any); ok {
		value = map[string]any{"items": list}
	}

	var postings Postings
	if err := extract.Into(value, &postings); err != nil {
		return nil, fmt.Errorf("decode postings: %w", err)
	}

	if err := validate.Struct(&postings); err != nil {
		return nil, fmt.Errorf("validate postings: %w", err)
	}

	return &postings, nil
}

func LoadFromFile(path string) (*Postings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(string(data)) == "" {
		return &Postings{}, nil
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("parse postings file %q: %w", path, err)
	}

	return FromValue(value)
}

// DumpToTmpFile writes v as indented JSON into a new temporary file and returns its path.
func DumpToTmpFile(v any) (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (po *Posting) GetStringField(name string) string {
	switch name {
	case PostingIDField:
		return po.ID
	case PostingCompanyField:
		return po.Company
	default:
		return ""
	}
}

// ReportByCompany groups postings by company for display.
func (p *Postings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		key := posting.Company
		if key == "" {
			key = "unknown company"
		}
		report[key] = append(report[key], map[string]string{
			"title":    posting.Title,
			"url":      posting.URL,
			"location": posting.Location,
			"type":     posting.Type,
			"salary":   formatSalary(posting.SalaryMin, posting.SalaryMax),
			"skills":   strings.Join(posting.Skills, ", "),
		})
	}
	return report
}

func (p *Postings) Len() int {
	return len(p.Items)
}

// Keep retains the postings accepted by keep, preserving order, and returns the ids of the dropped ones.
func (p *Postings) Keep(keep func(*Posting) bool) []string {
	var dropped []string
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if keep(posting) {
			kept = append(kept, posting)
			continue
		}
		dropped = append(dropped, posting.ID)
	}

	for i := len(kept); i < len(p.Items); i++ {
		p.Items[i] = nil
	}
	p.Items = kept

	return dropped
}

// Exclude removes postings whose field equals one of the targets.
func (p *Postings) Exclude(name string, targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}

	return p.Keep(func(posting *Posting) bool {
		_, found := set[strings.ToLower(posting.GetStringField(name))]
		return !found
	})
}

// Rank scores every posting against the candidate skills and orders them by
// score, keeping the original order for equal scores.
func (p *Postings) Rank(candidateSkills []string) []RankedPosting {
	ranked := make([]RankedPosting, 0, len(p.Items))
	for _, posting := range p.Items {
		matched, missing := matching.Overlap(candidateSkills, posting.Skills)
		ranked = append(ranked, RankedPosting{
			Posting:       posting,
			MatchScore:    matching.Estimate(candidateSkills, posting.Skills),
			MatchedSkills: matched,
			MissingSkills: missing,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MatchScore > ranked[j].MatchScore
	})

	return ranked
}

func formatSalary(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%.0f-%.0f", *min, *max)
	case min != nil:
		return fmt.Sprintf("from %.0f", *min)
	case max != nil:
		return fmt.Sprintf("up to %.0f", *max)
	default:
		return "not specified"
	}
}
