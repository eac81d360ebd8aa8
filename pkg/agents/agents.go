// Package agents describes the four content agents and the runtime apps that host them.
package agents

import (
	"fmt"

	"github.com/harun/kspar/pkg/product"
)

// Role identifies an agent's job in the pipeline.
type Role string

const (
	Parser       Role = "Parser"
	Descriptor   Role = "Descriptor"
	FAQGenerator Role = "FAQGenerator"
	Comparator   Role = "Comparator"
)

// DefaultModel is the hosted model every agent app is deployed with.
const DefaultModel = "gemini-2.5-flash"

// Definition is one schema-constrained prompt deployed as an app on the agent runtime.
type Definition struct {
	Role        Role
	AppName     string
	Model       string
	Description string
	Instruction string
	InputKind   product.Kind
	OutputKind  product.Kind
}

// Registry is the ordered set of agent definitions. Order is pipeline order.
type Registry struct {
	defs []Definition
}

// DefaultRegistry returns the four agents with their default app names.
func DefaultRegistry() *Registry {
	return &Registry{defs: []Definition{
		{
			Role:        Parser,
			AppName:     "Parser",
			Model:       DefaultModel,
			Description: "Transforms raw product data into a structured JSON model for content generation.",
			Instruction: parserInstruction,
			InputKind:   product.KindRaw,
			OutputKind:  product.KindStructured,
		},
		{
			Role:        Descriptor,
			AppName:     "descript",
			Model:       DefaultModel,
			Description: "Generates product descriptions and marketing copy from structured data.",
			Instruction: descriptorInstruction,
			InputKind:   product.KindStructured,
			OutputKind:  product.KindDescription,
		},
		{
			Role:        FAQGenerator,
			AppName:     "faqgen",
			Model:       DefaultModel,
			Description: "Generates FAQs based on product usage, ingredients and side effects.",
			Instruction: faqInstruction,
			InputKind:   product.KindStructured,
			OutputKind:  product.KindFAQ,
		},
		{
			Role:        Comparator,
			AppName:     "comparator",
			Model:       DefaultModel,
			Description: "Generates key points for comparing the product against rivals.",
			Instruction: comparatorInstruction,
			InputKind:   product.KindStructured,
			OutputKind:  product.KindComparison,
		},
	}}
}

// All returns every definition in pipeline order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Get returns the definition for role.
func (r *Registry) Get(role Role) (Definition, error) {
	for _, d := range r.defs {
		if d.Role == role {
			return d, nil
		}
	}
	return Definition{}, fmt.Errorf("unknown agent role: %s", role)
}

// Generators returns the agents that consume the Parser's structured output.
func (r *Registry) Generators() []Definition {
	var out []Definition
	for _, d := range r.defs {
		if d.Role != Parser {
			out = append(out, d)
		}
	}
	return out
}

// WithAppNames returns a copy with app names replaced for the given roles.
// Empty names keep the default.
func (r *Registry) WithAppNames(names map[Role]string) *Registry {
	out := &Registry{defs: r.All()}
	for i, d := range out.defs {
		if name := names[d.Role]; name != "" {
			out.defs[i].AppName = name
		}
	}
	return out
}

// WithModel returns a copy with every agent using model. An empty model is a no-op.
func (r *Registry) WithModel(model string) *Registry {
	out := &Registry{defs: r.All()}
	if model == "" {
		return out
	}
	for i := range out.defs {
		out.defs[i].Model = model
	}
	return out
}

// ByAppName finds the definition deployed as app.
func (r *Registry) ByAppName(app string) (Definition, bool) {
	for _, d := range r.defs {
		if d.AppName == app {
			return d, true
		}
	}
	return Definition{}, false
}
