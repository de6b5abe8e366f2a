package portfolios

import (
	"time"

	"resume-builder/internal/resumes"
)

// Themes accepted for portfolios.
const (
	ThemeProfessional = "professional"
	ThemeCreative     = "creative"
	ThemeMinimal      = "minimal"
	ThemeDark         = "dark"
	ThemeColorful     = "colorful"
)

var themes = map[string]struct{}{
	ThemeProfessional: {},
	ThemeCreative:     {},
	ThemeMinimal:      {},
	ThemeDark:         {},
	ThemeColorful:     {},
}

// ValidTheme reports whether theme names a known portfolio theme.
func ValidTheme(theme string) bool {
	_, ok := themes[theme]
	return ok
}

// Portfolio is a published projection of a resume. Content is a copy of the
// resume fields taken at conversion time.
type Portfolio struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"ownerId"`
	ResumeID       string          `json:"resumeId"`
	Theme          string          `json:"theme"`
	Sections       Sections        `json:"sections"`
	CustomSections []CustomSection `json:"customSections"`
	SEO            SEO             `json:"seo"`
	Analytics      Analytics       `json:"analytics"`
	Social         Social          `json:"social"`
	Content        resumes.Fields  `json:"content"`
	SourceVersion  int             `json:"sourceVersion"`
	IsPublished    bool            `json:"isPublished"`
	ViewCount      int64           `json:"viewCount"`
	LastPublished  *time.Time      `json:"lastPublished,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Clone returns a copy sharing no mutable state with p.
func (p Portfolio) Clone() Portfolio {
	p.Content = p.Content.Clone()
	p.CustomSections = append([]CustomSection(nil), p.CustomSections...)
	p.SEO.Keywords = append([]string(nil), p.SEO.Keywords...)
	if p.LastPublished != nil {
		t := *p.LastPublished
		p.LastPublished = &t
	}
	return p
}

type Section struct {
	Enabled bool   `json:"enabled"`
	Title   string `json:"title"`
}

type ContactSection struct {
	Section
	ShowEmail   bool `json:"showEmail"`
	ShowPhone   bool `json:"showPhone"`
	ContactForm bool `json:"contactForm"`
}

type Sections struct {
	About          Section        `json:"about"`
	Experience     Section        `json:"experience"`
	Education      Section        `json:"education"`
	Skills         Section        `json:"skills"`
	Projects       Section        `json:"projects"`
	Certifications Section        `json:"certifications"`
	Contact        ContactSection `json:"contact"`
}

// DefaultSections is the layout a new portfolio starts with.
func DefaultSections() Sections {
	return Sections{
		About:          Section{Enabled: true, Title: "About Me"},
		Experience:     Section{Enabled: true, Title: "Work Experience"},
		Education:      Section{Enabled: true, Title: "Education"},
		Skills:         Section{Enabled: true, Title: "Skills"},
		Projects:       Section{Enabled: true, Title: "Projects"},
		Certifications: Section{Enabled: true, Title: "Certifications"},
		Contact: ContactSection{
			Section:     Section{Enabled: true, Title: "Contact Me"},
			ShowEmail:   true,
			ContactForm: true,
		},
	}
}

type CustomSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

type SEO struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

type Analytics struct {
	GoogleAnalyticsID string `json:"googleAnalyticsId,omitempty"`
}

type Social struct {
	ShowIcons bool `json:"showIcons"`
}

// Settings is a presentation change. Nil fields are left unchanged.
type Settings struct {
	Theme          *string          `json:"theme,omitempty"`
	Sections       *Sections        `json:"sections,omitempty"`
	CustomSections *[]CustomSection `json:"customSections,omitempty"`
	SEO            *SEO             `json:"seo,omitempty"`
	Analytics      *Analytics       `json:"analytics,omitempty"`
	Social         *Social          `json:"social,omitempty"`
	IsPublished    *bool            `json:"isPublished,omitempty"`
}

// Stats summarizes a portfolio's reach.
type Stats struct {
	ViewCount     int64      `json:"viewCount"`
	LastPublished *time.Time `json:"lastPublished,omitempty"`
	IsPublished   bool       `json:"isPublished"`
}

// Owner is the public part of the portfolio owner's profile.
type Owner struct {
	Username   string `json:"username"`
	FullName   string `json:"fullName,omitempty"`
	PictureURL string `json:"pictureUrl,omitempty"`
}

// View is what a public visitor receives.
type View struct {
	Portfolio
	Owner Owner `json:"owner"`
}
