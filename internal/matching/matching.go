// Package matching estimates how well a set of candidate skills covers a job
// without calling a model.
package matching

import (
	"math"
	"strings"
)

// Estimate returns the share of job skills covered by the candidate as a
// percentage in [0, 100]. A candidate skill matches a job skill when either
// contains the other, ignoring case. Each distinct candidate skill counts once.
func Estimate(candidateSkills, jobSkills []string) int {
	jobs := normalize(jobSkills)

	matched := 0
	seen := make(map[string]struct{}, len(candidateSkills))
	for _, skill := range candidateSkills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}

		if matchesAny(skill, jobs) {
			matched++
		}
	}

	denominator := len(jobSkills)
	if denominator < 1 {
		denominator = 1
	}

	score := int(math.Round(float64(matched) / float64(denominator) * 100))
	if score > 100 {
		return 100
	}
	return score
}

// Overlap splits job skills into the ones covered by the candidate and the
// ones missing, keeping the job's spelling and order.
func Overlap(candidateSkills, jobSkills []string) (matched, missing []string) {
	candidates := normalize(candidateSkills)

	matched = []string{}
	missing = []string{}
	for _, skill := range jobSkills {
		key := strings.ToLower(strings.TrimSpace(skill))
		if key == "" {
			continue
		}
		if matchesAny(key, candidates) {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}

	return matched, missing
}

func matchesAny(skill string, others []string) bool {
	for _, other := range others {
		if strings.Contains(skill, other) || strings.Contains(other, skill) {
			return true
		}
	}
	return false
}

func normalize(skills []string) []string {
	result := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		result = append(result, skill)
	}
	return result
}
