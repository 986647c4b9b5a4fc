// Package prompt builds the chat messages sent to the language model.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/samirrijal/geoquery/internal/core/loctypes"
	"github.com/samirrijal/geoquery/internal/core/ports"
	"github.com/samirrijal/geoquery/internal/core/relations"
)

const systemTemplate = `You are a geographic query parser. Extract the reference location and the spatial relation from a natural-language location query written in any language, and return them through the provided function.

Rules:
- reference_location.name is the place as written by the user, without the relation words ("Lake Geneva", not "near Lake Geneva").
- reference_location.type is a type hint such as "lake", "city" or a category such as "water"; leave it out when the text gives no hint.
- spatial_relation.relation MUST be one of the relation names listed below. Use "in" when the query only names a place.
- spatial_relation.explicit_distance is set only when the user states a distance; convert it to meters.
- buffer_config may be omitted; defaults are applied after parsing.
- confidence_breakdown.overall reflects how sure you are about the whole interpretation (0 to 1). Explain doubts in confidence_breakdown.reasoning.
- original_query repeats the user's text verbatim.

SPATIAL RELATIONS:
{{.Relations}}

LOCATION TYPES:
Categories: {{join .Categories ", "}}
Types: {{join .Types ", "}}
{{if .Examples}}
EXAMPLES:
{{range .Examples}}
Query: {{.Query}}
Result: relation={{.Relation}} location={{printf "%q" .Location}}{{if .Type}} type={{.Type}}{{end}}{{if .Distance}} explicit_distance={{.Distance}}{{end}}
{{end}}{{end}}`

// Example is one few-shot example.
type Example struct {
	Query    string
	Relation string
	Location string
	Type     string
	Distance string
}

// DefaultExamples covers each relation family plus multilingual input.
var DefaultExamples = []Example{
	{Query: "restaurants in Lausanne", Relation: "in", Location: "Lausanne", Type: "city"},
	{Query: "hotels near Lake Geneva", Relation: "near", Location: "Lake Geneva", Type: "lake"},
	{Query: "within 2km of Bern train station", Relation: "near", Location: "Bern train station", Type: "train_station", Distance: "2000"},
	{Query: "villages on the shores of Lac Léman", Relation: "on_shores_of", Location: "Lac Léman", Type: "lake"},
	{Query: "hiking trails north of Interlaken", Relation: "north_of", Location: "Interlaken", Type: "town"},
	{Query: "cafés au cœur de Genève", Relation: "in_the_heart_of", Location: "Genève", Type: "city"},
	{Query: "Wanderwege entlang der Aare", Relation: "along", Location: "Aare", Type: "river"},
}

// Builder renders prompts from the relation registry.
type Builder struct {
	registry        *relations.Registry
	includeExamples bool
	tmpl            *template.Template
}

// NewBuilder creates a Builder.
func NewBuilder(reg *relations.Registry, includeExamples bool) *Builder {
	tmpl := template.Must(template.New("system").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(systemTemplate))
	return &Builder{registry: reg, includeExamples: includeExamples, tmpl: tmpl}
}

// System renders the system message.
func (b *Builder) System() (string, error) {
	data := struct {
		Relations  string
		Categories []string
		Types      []string
		Examples   []Example
	}{
		Relations:  strings.TrimPrefix(b.registry.DescribeAll(), "\n"),
		Categories: loctypes.AllCategories(),
		Types:      loctypes.AllTypes(),
	}
	if b.includeExamples {
		data.Examples = DefaultExamples
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return buf.String(), nil
}

// Messages returns the system and user messages for query.
func (b *Builder) Messages(query string) ([]ports.Message, error) {
	system, err := b.System()
	if err != nil {
		return nil, err
	}
	return []ports.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: query},
	}, nil
}
