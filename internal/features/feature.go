package features

import (
	"errors"
	"fmt"
	"sort"
)

// TTLClass groups features by how long their cached responses stay valid.
type TTLClass int

const (
	// TTLShort is for direct lookups (translations, vocabulary).
	TTLShort TTLClass = iota
	// TTLLong is for expensive multi-step analyses (grammar, review grading).
	TTLLong
)

// PromptSpec is the fully rendered input for one provider call. It is derived
// deterministically from a feature request and never persisted.
type PromptSpec struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
}

// Feature describes one named AI operation: its parameter contract, prompt
// builder, output schema and generation defaults.
type Feature struct {
	Name        string
	Params      []ParamField
	Output      Schema
	TTLClass    TTLClass
	Model       string
	Temperature float64

	// buildPrompt renders the system and user prompts from normalized params.
	buildPrompt func(params map[string]any) (system, prompt string)

	// summarize produces a short human-readable summary for audit records.
	summarize func(params map[string]any) string
}

// ErrUnknownFeature is returned when a request names an unregistered feature.
var ErrUnknownFeature = errors.New("unknown feature")

// Catalog is the static feature registry. It is pure: building a PromptSpec
// performs no I/O and the same input always yields the same output.
type Catalog struct {
	features map[string]*Feature
}

// NewCatalog returns a catalog with all built-in features registered.
func NewCatalog() *Catalog {
	c := &Catalog{features: make(map[string]*Feature)}
	for _, f := range builtinFeatures() {
		c.features[f.Name] = f
	}
	return c
}

// Get returns a feature definition by name.
func (c *Catalog) Get(name string) (*Feature, bool) {
	f, ok := c.features[name]
	return f, ok
}

// Names returns the registered feature names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.features))
	for name := range c.features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateRequest checks an inbound envelope against the feature's parameter
// contract and returns a normalized copy of the params (trimmed strings,
// case-folded where the contract declares it). No I/O.
func (c *Catalog) ValidateRequest(name string, params map[string]any) (map[string]any, error) {
	f, ok := c.features[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	normalized, err := validateParams(f.Params, params)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", name, err)
	}
	return normalized, nil
}

// Build renders the PromptSpec for a feature from normalized params.
func (c *Catalog) Build(name string, params map[string]any) (*PromptSpec, error) {
	f, ok := c.features[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	system, prompt := f.buildPrompt(params)
	return &PromptSpec{
		System:      system,
		Prompt:      prompt,
		Model:       f.Model,
		Temperature: f.Temperature,
	}, nil
}

// ValidateResponse parses raw provider output and validates it against the
// feature's declared output schema. A response that does not match the schema
// is an error, never a silent pass-through.
func (c *Catalog) ValidateResponse(name string, raw []byte) (map[string]any, error) {
	f, ok := c.features[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	data, err := f.Output.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", name, err)
	}
	return data, nil
}

// Summarize returns a short description of a request for the audit log.
func (c *Catalog) Summarize(name string, params map[string]any) string {
	f, ok := c.features[name]
	if !ok {
		return name
	}
	return f.summarize(params)
}
