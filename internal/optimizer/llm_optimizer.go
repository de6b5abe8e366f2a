package optimizer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"resume-builder/internal/llm"
	"resume-builder/internal/resumes"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
)

//go:embed schema.json
var responseSchema string

var schemaLoader = gojsonschema.NewStringLoader(responseSchema)

// LLMOptimizer asks a language model for a rewrite and validates its JSON answer.
type LLMOptimizer struct {
	Completer llm.Completer
}

// NewLLMOptimizer wraps c with a single transient retry.
func NewLLMOptimizer(c llm.Completer) *LLMOptimizer {
	return &LLMOptimizer{Completer: llm.WithRetry(c)}
}

type llmResponse struct {
	PersonalInfo struct {
		Summary string `json:"summary"`
	} `json:"personalInfo"`
	Skills          []resumes.Skill      `json:"skills"`
	Experience      []resumes.Experience `json:"experience"`
	Recommendations string               `json:"recommendations"`
	Suggestions     string               `json:"suggestions"`
}

// Optimize returns ErrUnavailable wrapped with the cause on any failure.
func (o *LLMOptimizer) Optimize(ctx context.Context, fields resumes.Fields, jobDescription string) (Suggestion, error) {
	if o == nil || o.Completer == nil {
		return Suggestion{}, fmt.Errorf("%w: no completer", ErrUnavailable)
	}
	start := time.Now()
	raw, err := o.Completer.Complete(ctx, BuildPrompt(fields, jobDescription))
	metrics.ObserveOptimizerDurationMs(metrics.SinceMillis(start))
	if err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	doc, ok := ExtractJSON(raw)
	if !ok {
		return Suggestion{}, fmt.Errorf("%w: no JSON object in response", ErrUnavailable)
	}
	if err := validateResponse(doc); err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var parsed llmResponse
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return Suggestion{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	s := Suggestion{
		Summary:         strings.TrimSpace(parsed.PersonalInfo.Summary),
		Skills:          parsed.Skills,
		Experience:      parsed.Experience,
		Recommendations: strings.TrimSpace(parsed.Recommendations),
	}
	if s.Recommendations == "" {
		s.Recommendations = strings.TrimSpace(parsed.Suggestions)
	}
	if s.Summary == "" && len(s.Skills) == 0 && len(s.Experience) == 0 {
		return Suggestion{}, fmt.Errorf("%w: empty suggestion", ErrUnavailable)
	}
	telemetry.Debug("optimizer.suggestion", map[string]any{
		"skills":     len(s.Skills),
		"experience": len(s.Experience),
	})
	return s, nil
}

func validateResponse(doc string) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(doc))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

var fenced = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n\\s*```")

// ExtractJSON finds the JSON object in a model response: a fenced block first, then the outermost braces.
func ExtractJSON(text string) (string, bool) {
	if m := fenced.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}

// BuildPrompt renders the optimization request for the model.
func BuildPrompt(fields resumes.Fields, jobDescription string) string {
	var b strings.Builder
	b.WriteString("You are a professional resume optimizer. Optimize the resume below for Applicant Tracking Systems and the job description.\n\n")
	b.WriteString("JOB DESCRIPTION:\n")
	b.WriteString(strings.TrimSpace(jobDescription))
	b.WriteString("\n\nMY CURRENT RESUME:\n")
	fmt.Fprintf(&b, "Name: %s\n", orNotProvided(fields.PersonalInfo.FullName))
	fmt.Fprintf(&b, "Job Title: %s\n", orNotProvided(fields.PersonalInfo.JobTitle))
	fmt.Fprintf(&b, "Summary: %s\n", orNotProvided(fields.PersonalInfo.Summary))

	names := make([]string, 0, len(fields.Skills))
	for _, s := range fields.Skills {
		names = append(names, s.Name)
	}
	skills := strings.Join(names, ", ")
	if skills == "" {
		skills = "None provided"
	}
	fmt.Fprintf(&b, "Skills: %s\n", skills)

	b.WriteString("Experience:\n")
	if len(fields.Experience) == 0 {
		b.WriteString("None provided\n")
	}
	for _, e := range fields.Experience {
		end := e.EndDate
		if e.Current {
			end = "Present"
		}
		fmt.Fprintf(&b, "- %s at %s (%s - %s): %s\n", e.Position, e.Company, e.StartDate, end, e.Description)
		for _, h := range e.Highlights {
			fmt.Fprintf(&b, "  * %s\n", h)
		}
	}

	b.WriteString(`
Please provide:
1. An improved professional summary that highlights my relevant skills and experience for this job
2. A list of 5-8 skills that are most relevant to this job based on my experience and the job description
3. Improved descriptions and highlights for my existing experience entries, keeping position and company unchanged
4. Any additional recommendations

Respond with JSON only, using this structure:
{
  "personalInfo": {"summary": "improved summary"},
  "skills": [{"name": "Skill", "level": 4}],
  "experience": [{"position": "same as original", "company": "same as original", "description": "optimized description", "highlights": ["optimized highlight"]}],
  "recommendations": "additional recommendations"
}
`)
	return b.String()
}

func orNotProvided(v string) string {
	if strings.TrimSpace(v) == "" {
		return "Not provided"
	}
	return v
}

var _ Optimizer = (*LLMOptimizer)(nil)
