package optimizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"resume-builder/internal/resumes"
)

type fakeCompleter struct {
	out    string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

func sampleFields() resumes.Fields {
	return resumes.Fields{
		Name:     "Backend",
		Template: resumes.TemplateModern,
		PersonalInfo: resumes.PersonalInfo{
			FullName: "Ada Lovelace",
			JobTitle: "Engineer",
			Summary:  "Builds systems.",
		},
		Skills: []resumes.Skill{{Name: "Go", Level: 5}, {Name: "communication", Level: 3}},
		Experience: []resumes.Experience{
			{Company: "Acme", Position: "Engineer", StartDate: "2020-01", Current: true, Description: "Did things", Highlights: []string{"shipped"}},
		},
	}
}

func TestFallbackIsDeterministicAndNonEmpty(t *testing.T) {
	fields := sampleFields()
	s := Fallback(fields)

	if s.Summary != "Builds systems. Optimized for the job description with relevant keywords and skills." {
		t.Fatalf("unexpected summary %q", s.Summary)
	}
	if len(s.Skills) != 3 || s.Skills[2].Name != "Problem Solving" || s.Skills[2].Level != 5 {
		t.Fatalf("unexpected skills %+v", s.Skills)
	}
	if s.Recommendations == "" {
		t.Fatalf("expected recommendations")
	}

	empty := Fallback(resumes.Fields{})
	if empty.Summary != fallbackSummaryNote || len(empty.Skills) != 2 {
		t.Fatalf("unexpected fallback for empty fields: %+v", empty)
	}
	if again := Fallback(fields); again.Summary != s.Summary || len(again.Skills) != len(s.Skills) {
		t.Fatalf("fallback not deterministic")
	}
}

func TestMergeRewritesMatchingExperienceOnly(t *testing.T) {
	fields := sampleFields()
	merged := Merge(fields, Suggestion{
		Summary: " Sharper summary ",
		Skills:  []resumes.Skill{{Name: "Go", Level: 9}, {Name: "go", Level: 1}, {Name: " "}},
		Experience: []resumes.Experience{
			{Company: "acme", Position: "engineer", Description: "Led platform work", Highlights: []string{"cut latency"}},
			{Company: "Invented", Position: "CTO", Description: "never happened"},
		},
	})

	if merged.PersonalInfo.Summary != "Sharper summary" {
		t.Fatalf("unexpected summary %q", merged.PersonalInfo.Summary)
	}
	if len(merged.Skills) != 1 || merged.Skills[0].Level != 5 {
		t.Fatalf("unexpected skills %+v", merged.Skills)
	}
	if len(merged.Experience) != 1 || merged.Experience[0].Description != "Led platform work" || merged.Experience[0].StartDate != "2020-01" {
		t.Fatalf("unexpected experience %+v", merged.Experience)
	}
	if fields.Experience[0].Description != "Did things" || fields.PersonalInfo.Summary != "Builds systems." {
		t.Fatalf("merge mutated input: %+v", fields)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "fenced", in: "Here you go:\n```json\n{\"a\":1}\n```\nthanks", want: `{"a":1}`, ok: true},
		{name: "bare fence", in: "```\n{\"a\":2}\n```", want: `{"a":2}`, ok: true},
		{name: "braces", in: "result: {\"a\":{\"b\":3}} done", want: `{"a":{"b":3}}`, ok: true},
		{name: "none", in: "sorry, I cannot help", ok: false},
		{name: "broken", in: "{\"a\": }", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("ExtractJSON(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLLMOptimizerParsesValidResponse(t *testing.T) {
	fc := &fakeCompleter{out: "```json\n" + `{
  "personalInfo": {"summary": "Go engineer focused on reliability."},
  "skills": [{"name": "Go", "level": 5}, {"name": "Kubernetes", "level": 4}],
  "experience": [{"position": "Engineer", "company": "Acme", "description": "Ran the platform"}],
  "suggestions": "Quantify impact."
}` + "\n```"}
	o := &LLMOptimizer{Completer: fc}

	s, err := o.Optimize(context.Background(), sampleFields(), "Senior Go role")
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if s.Summary != "Go engineer focused on reliability." || len(s.Skills) != 2 || s.Recommendations != "Quantify impact." {
		t.Fatalf("unexpected suggestion %+v", s)
	}
	for _, want := range []string{"Senior Go role", "Name: Ada Lovelace", "Skills: Go, communication", "Engineer at Acme (2020-01 - Present)"} {
		if !strings.Contains(fc.prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, fc.prompt)
		}
	}
}

func TestLLMOptimizerFailuresAreUnavailable(t *testing.T) {
	tests := []struct {
		name string
		fc   *fakeCompleter
	}{
		{name: "transport", fc: &fakeCompleter{err: errors.New("boom")}},
		{name: "not json", fc: &fakeCompleter{out: "I can't do that"}},
		{name: "schema", fc: &fakeCompleter{out: `{"skills":[{"level":3}]}`}},
		{name: "level out of range", fc: &fakeCompleter{out: `{"skills":[{"name":"Go","level":11}]}`}},
		{name: "empty", fc: &fakeCompleter{out: `{"personalInfo":{"summary":" "}}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &LLMOptimizer{Completer: tt.fc}
			if _, err := o.Optimize(context.Background(), sampleFields(), "jd"); !errors.Is(err, ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}
