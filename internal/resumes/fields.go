package resumes

import (
	"fmt"
	"strings"
)

// Clone returns a deep copy of f. Snapshots and the aggregate never share slices.
func (f Fields) Clone() Fields {
	out := f
	out.Education = cloneSlice(f.Education)
	out.Experience = cloneExperience(f.Experience)
	out.Skills = cloneSlice(f.Skills)
	out.Projects = cloneProjects(f.Projects)
	out.Certifications = cloneSlice(f.Certifications)
	out.Languages = cloneSlice(f.Languages)
	out.Interests = cloneSlice(f.Interests)
	out.References = cloneSlice(f.References)
	out.CustomSections = cloneSlice(f.CustomSections)
	return out
}

// Normalize trims the name and applies the default template.
func (f Fields) Normalize() Fields {
	f.Name = strings.TrimSpace(f.Name)
	f.Template = strings.ToLower(strings.TrimSpace(f.Template))
	if f.Template == "" {
		f.Template = TemplateModern
	}
	return f
}

// Validate checks the invariants every committed state must satisfy.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFields)
	}
	if !ValidTemplate(f.Template) {
		return fmt.Errorf("%w: unknown template %q", ErrInvalidFields, f.Template)
	}
	for i, s := range f.Skills {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: skills[%d].name is required", ErrInvalidFields, i)
		}
		if s.Level < 0 || s.Level > 5 {
			return fmt.Errorf("%w: skills[%d].level must be between 0 and 5", ErrInvalidFields, i)
		}
	}
	for i, s := range f.CustomSections {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("%w: customSections[%d].title is required", ErrInvalidFields, i)
		}
	}
	return nil
}

// Patch replaces whole field groups. A nil member leaves that group untouched.
type Patch struct {
	Name           *string          `json:"name,omitempty"`
	Template       *string          `json:"template,omitempty"`
	PersonalInfo   *PersonalInfo    `json:"personalInfo,omitempty"`
	Education      *[]Education     `json:"education,omitempty"`
	Experience     *[]Experience    `json:"experience,omitempty"`
	Skills         *[]Skill         `json:"skills,omitempty"`
	Projects       *[]Project       `json:"projects,omitempty"`
	Certifications *[]Certification `json:"certifications,omitempty"`
	Languages      *[]Language      `json:"languages,omitempty"`
	Interests      *[]string        `json:"interests,omitempty"`
	References     *[]Reference     `json:"references,omitempty"`
	SocialLinks    *SocialLinks     `json:"socialLinks,omitempty"`
	CustomSections *[]CustomSection `json:"customSections,omitempty"`
	IsPublic       *bool            `json:"isPublic,omitempty"`
}

// Empty reports whether the patch names no group.
func (p Patch) Empty() bool {
	return len(p.Groups()) == 0
}

// Groups lists the field groups the patch replaces.
func (p Patch) Groups() []string {
	var out []string
	add := func(present bool, name string) {
		if present {
			out = append(out, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Template != nil, "template")
	add(p.PersonalInfo != nil, "personalInfo")
	add(p.Education != nil, "education")
	add(p.Experience != nil, "experience")
	add(p.Skills != nil, "skills")
	add(p.Projects != nil, "projects")
	add(p.Certifications != nil, "certifications")
	add(p.Languages != nil, "languages")
	add(p.Interests != nil, "interests")
	add(p.References != nil, "references")
	add(p.SocialLinks != nil, "socialLinks")
	add(p.CustomSections != nil, "customSections")
	add(p.IsPublic != nil, "isPublic")
	return out
}

// Apply returns base with every present group replaced. Neither base nor p is aliased by the result.
func (p Patch) Apply(base Fields) Fields {
	out := base.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Template != nil {
		out.Template = *p.Template
	}
	if p.PersonalInfo != nil {
		out.PersonalInfo = *p.PersonalInfo
	}
	if p.Education != nil {
		out.Education = cloneSlice(nonNil(*p.Education))
	}
	if p.Experience != nil {
		out.Experience = cloneExperience(nonNil(*p.Experience))
	}
	if p.Skills != nil {
		out.Skills = cloneSlice(nonNil(*p.Skills))
	}
	if p.Projects != nil {
		out.Projects = cloneProjects(nonNil(*p.Projects))
	}
	if p.Certifications != nil {
		out.Certifications = cloneSlice(nonNil(*p.Certifications))
	}
	if p.Languages != nil {
		out.Languages = cloneSlice(nonNil(*p.Languages))
	}
	if p.Interests != nil {
		out.Interests = cloneSlice(nonNil(*p.Interests))
	}
	if p.References != nil {
		out.References = cloneSlice(nonNil(*p.References))
	}
	if p.SocialLinks != nil {
		out.SocialLinks = *p.SocialLinks
	}
	if p.CustomSections != nil {
		out.CustomSections = cloneSlice(nonNil(*p.CustomSections))
	}
	if p.IsPublic != nil {
		out.IsPublic = *p.IsPublic
	}
	return out
}

func cloneExperience(in []Experience) []Experience {
	out := cloneSlice(in)
	for i := range out {
		out[i].Highlights = cloneSlice(out[i].Highlights)
	}
	return out
}

func cloneProjects(in []Project) []Project {
	out := cloneSlice(in)
	for i := range out {
		out[i].Technologies = cloneSlice(out[i].Technologies)
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
