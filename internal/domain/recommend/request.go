// Package recommend defines the recommendation domain: requests, raw and
// merged candidates, and the fused response.
package recommend

import "fmt"

// SkillLevel is the requester's self-declared proficiency.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// Ordinal maps a skill level to its numeric rank (beginner=1 .. advanced=3).
// Returns 0 for an unknown level.
func (s SkillLevel) Ordinal() int {
	switch s {
	case SkillBeginner:
		return 1
	case SkillIntermediate:
		return 2
	case SkillAdvanced:
		return 3
	}
	return 0
}

// Valid reports whether s is one of the three known levels.
func (s SkillLevel) Valid() bool {
	return s.Ordinal() != 0
}

// Request describes one recommendation query. A Request is constructed once
// per call and never mutated; its canonical hash keys the response cache.
type Request struct {
	Query              string     `json:"query"`
	SkillLevel         SkillLevel `json:"skill_level"`
	Budget             float64    `json:"budget"`
	Workspace          string     `json:"workspace"`
	ProjectType        string     `json:"project_type"`
	SafetyRequirements []string   `json:"safety_requirements,omitempty"`
	PreferredBrands    []string   `json:"preferred_brands,omitempty"`
	ExistingTools      []string   `json:"existing_tools,omitempty"`
	Timeline           string     `json:"timeline,omitempty"`
}

// Validate checks the request and returns a *ValidationError carrying every
// violation found, not just the first. Returns nil when the request is valid.
func (r *Request) Validate() error {
	var violations []string

	if r.Query == "" {
		violations = append(violations, "query must not be empty")
	}
	if !r.SkillLevel.Valid() {
		violations = append(violations,
			fmt.Sprintf("skill_level %q is invalid: must be beginner, intermediate, or advanced", r.SkillLevel))
	}
	if r.Budget < 0 {
		violations = append(violations, "budget must not be negative")
	}
	if r.Workspace == "" {
		violations = append(violations, "workspace must not be empty")
	}
	if r.ProjectType == "" {
		violations = append(violations, "project_type must not be empty")
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
