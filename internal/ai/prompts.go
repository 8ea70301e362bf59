package ai

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/enrichment.md
var enrichmentPromptRaw string

// EnrichmentTemplate is the parsed prompt template for attribute extraction.
// Parsed once at package init; reused on every call.
var EnrichmentTemplate = template.Must(template.New("enrichment").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(enrichmentPromptRaw))

type promptData struct {
	Taxonomy    []Category
	Description string
}

// RenderPrompt fills tmpl with the taxonomy and one description.
func RenderPrompt(tmpl *template.Template, description string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Taxonomy: Taxonomy, Description: description}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
