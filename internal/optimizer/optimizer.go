package optimizer

import (
	"context"
	"errors"
	"strings"

	"resume-builder/internal/resumes"
)

// ErrUnavailable means the optimizer could not produce a usable suggestion.
// Callers fall back to Fallback and never surface it.
var ErrUnavailable = errors.New("optimizer unavailable")

// Suggestion is the partial resume an optimizer proposes. Empty groups are left untouched on merge.
type Suggestion struct {
	Summary         string               `json:"summary,omitempty"`
	Skills          []resumes.Skill      `json:"skills,omitempty"`
	Experience      []resumes.Experience `json:"experience,omitempty"`
	Recommendations string               `json:"recommendations,omitempty"`
}

// Optimizer rewrites resume content for a job description.
type Optimizer interface {
	Optimize(ctx context.Context, fields resumes.Fields, jobDescription string) (Suggestion, error)
}

const (
	fallbackSummaryNote     = "Optimized for the job description with relevant keywords and skills."
	fallbackRecommendations = "Consider adding more specific achievements and metrics to your experience descriptions."
)

var fallbackSkills = []resumes.Skill{
	{Name: "Communication", Level: 4},
	{Name: "Problem Solving", Level: 5},
}

// Fallback is the deterministic local suggestion used when the remote optimizer fails.
// It always yields a non-empty summary and skills list.
func Fallback(fields resumes.Fields) Suggestion {
	summary := strings.TrimSpace(fields.PersonalInfo.Summary + " " + fallbackSummaryNote)

	skills := make([]resumes.Skill, 0, len(fields.Skills)+len(fallbackSkills))
	skills = append(skills, fields.Skills...)
	for _, extra := range fallbackSkills {
		if !hasSkill(skills, extra.Name) {
			skills = append(skills, extra)
		}
	}
	return Suggestion{
		Summary:         summary,
		Skills:          skills,
		Recommendations: fallbackRecommendations,
	}
}

// Merge applies s onto fields without aliasing either.
// Suggested experience only rewrites description and highlights of entries that already exist.
func Merge(fields resumes.Fields, s Suggestion) resumes.Fields {
	out := fields.Clone()
	if summary := strings.TrimSpace(s.Summary); summary != "" {
		out.PersonalInfo.Summary = summary
	}
	if len(s.Skills) > 0 {
		skills := make([]resumes.Skill, 0, len(s.Skills))
		for _, skill := range s.Skills {
			skill.Name = strings.TrimSpace(skill.Name)
			if skill.Name == "" || hasSkill(skills, skill.Name) {
				continue
			}
			skill.Level = clampLevel(skill.Level)
			skills = append(skills, skill)
		}
		if len(skills) > 0 {
			out.Skills = skills
		}
	}
	for i, suggested := range s.Experience {
		idx := matchExperience(out.Experience, suggested, i)
		if idx < 0 {
			continue
		}
		if d := strings.TrimSpace(suggested.Description); d != "" {
			out.Experience[idx].Description = d
		}
		if len(suggested.Highlights) > 0 {
			out.Experience[idx].Highlights = append([]string(nil), suggested.Highlights...)
		}
	}
	return out
}

func matchExperience(existing []resumes.Experience, suggested resumes.Experience, pos int) int {
	for i, e := range existing {
		if strings.EqualFold(strings.TrimSpace(e.Company), strings.TrimSpace(suggested.Company)) &&
			strings.EqualFold(strings.TrimSpace(e.Position), strings.TrimSpace(suggested.Position)) {
			return i
		}
	}
	if suggested.Company == "" && suggested.Position == "" && pos < len(existing) {
		return pos
	}
	return -1
}

func hasSkill(skills []resumes.Skill, name string) bool {
	for _, s := range skills {
		if strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

func clampLevel(level int) int {
	switch {
	case level < 0:
		return 0
	case level > 5:
		return 5
	default:
		return level
	}
}
