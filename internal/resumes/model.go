package resumes

import "time"

// Template ids accepted for rendering.
const (
	TemplateModern       = "modern"
	TemplateClassic      = "classic"
	TemplateCreative     = "creative"
	TemplateProfessional = "professional"
	TemplateMinimal      = "minimal"
)

var templates = map[string]struct{}{
	TemplateModern:       {},
	TemplateClassic:      {},
	TemplateCreative:     {},
	TemplateProfessional: {},
	TemplateMinimal:      {},
}

// ValidTemplate reports whether id names a known template.
func ValidTemplate(id string) bool {
	_, ok := templates[id]
	return ok
}

// Resume is the mutable current state of a resume.
type Resume struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"ownerId"`
	CurrentVersion int       `json:"currentVersion"`
	Fields         Fields    `json:"fields"`
	HasPortfolio   bool      `json:"hasPortfolio"`
	PortfolioRef   string    `json:"portfolioRef,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Clone returns a copy sharing no mutable state with r.
func (r Resume) Clone() Resume {
	r.Fields = r.Fields.Clone()
	return r
}

// Fields is the resume content, grouped the way the editor presents it.
type Fields struct {
	Name           string          `json:"name"`
	Template       string          `json:"template"`
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	Education      []Education     `json:"education"`
	Experience     []Experience    `json:"experience"`
	Skills         []Skill         `json:"skills"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	Languages      []Language      `json:"languages"`
	Interests      []string        `json:"interests"`
	References     []Reference     `json:"references"`
	SocialLinks    SocialLinks     `json:"socialLinks"`
	CustomSections []CustomSection `json:"customSections"`
	IsPublic       bool            `json:"isPublic"`
}

type PersonalInfo struct {
	FullName string `json:"fullName"`
	JobTitle string `json:"jobTitle"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Website  string `json:"website"`
	Summary  string `json:"summary"`
}

type Education struct {
	Institution  string `json:"institution"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	Location     string `json:"location"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

type Experience struct {
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	Location    string   `json:"location"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	Current     bool     `json:"current"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
}

// Skill level ranges 0..5.
type Skill struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type Project struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Link         string   `json:"link"`
	Image        string   `json:"image"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	Current      bool     `json:"current"`
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date,omitempty"`
	Link   string `json:"link"`
}

type Language struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency"`
}

type Reference struct {
	Name      string `json:"name"`
	Position  string `json:"position"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Reference string `json:"reference"`
}

type SocialLinks struct {
	GitHub    string `json:"github"`
	LinkedIn  string `json:"linkedin"`
	Twitter   string `json:"twitter"`
	Portfolio string `json:"portfolio"`
	Blog      string `json:"blog"`
}

type CustomSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
