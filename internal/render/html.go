package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"resume-builder/internal/resumes"
)

//go:embed templates/resume.html templates/styles/*.css
var assets embed.FS

// ErrUnknownTemplate is returned for template ids without a stylesheet.
var ErrUnknownTemplate = errors.New("unknown template")

var layout = template.Must(template.New("resume.html").Funcs(template.FuncMap{
	"join":      strings.Join,
	"dateRange": dateRange,
	"stars":     stars,
}).ParseFS(assets, "templates/resume.html"))

type document struct {
	Template string
	Style    template.CSS
	Fields   resumes.Fields
}

// HTML renders fields as a standalone HTML document styled for templateID.
// An empty templateID falls back to the template stored on the fields.
func HTML(fields resumes.Fields, templateID string) ([]byte, error) {
	if templateID == "" {
		templateID = fields.Template
	}
	if !resumes.ValidTemplate(templateID) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, templateID)
	}
	css, err := assets.ReadFile("templates/styles/" + templateID + ".css")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, templateID)
	}
	var buf bytes.Buffer
	err = layout.Execute(&buf, document{
		Template: templateID,
		Style:    template.CSS(css),
		Fields:   fields,
	})
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func dateRange(start, end string, current bool) string {
	switch {
	case current && start != "":
		return start + " – Present"
	case current:
		return "Present"
	case start != "" && end != "":
		return start + " – " + end
	case start != "":
		return start
	default:
		return end
	}
}

func stars(level int) string {
	if level < 0 {
		level = 0
	}
	if level > 5 {
		level = 5
	}
	return strings.Repeat("●", level) + strings.Repeat("○", 5-level)
}
