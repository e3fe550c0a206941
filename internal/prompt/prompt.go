package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/amishk599/atsexpert/internal/model"
)

//go:embed templates/*.md
var templateFS embed.FS

// templates holds one parsed template per mode. Parsed once at package init;
// reused on every Build call.
var templates = mustLoadTemplates()

func mustLoadTemplates() map[model.Mode]*template.Template {
	shared := template.Must(template.ParseFS(templateFS, "templates/job_description.md"))

	out := make(map[model.Mode]*template.Template, len(model.AllModes))
	for _, m := range model.AllModes {
		body, err := templateFS.ReadFile("templates/" + string(m) + ".md")
		if err != nil {
			panic(fmt.Sprintf("prompt template for mode %q: %v", m, err))
		}
		t := template.Must(shared.Clone())
		out[m] = template.Must(t.New(string(m)).Parse(string(body) + `{{template "job_description" .}}`))
	}
	return out
}

// Build renders the prompt for mode with the job description substituted in.
// An empty job description yields an explicit "not provided" section.
func Build(mode model.Mode, jobDescription string) (string, error) {
	if mode == "" {
		return "", &model.ConfigurationError{Field: "mode", Reason: "no analysis mode selected"}
	}
	t, ok := templates[mode]
	if !ok {
		return "", &model.ConfigurationError{Field: "mode", Reason: fmt.Sprintf("unknown analysis mode %q", mode)}
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ JobDescription string }{
		JobDescription: strings.TrimSpace(jobDescription),
	}); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", mode, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

// Modes lists the supported modes in display order.
func Modes() []model.Mode {
	out := make([]model.Mode, len(model.AllModes))
	copy(out, model.AllModes)
	return out
}
