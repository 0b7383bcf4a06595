// Package corrections applies manually maintained overrides to the species
// registry after a sync.
package corrections

import (
	"fmt"
	"os"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// CategoryOverride adds and removes category codes for one species.
type CategoryOverride struct {
	Add    []string `yaml:"add"`
	Remove []string `yaml:"remove"`
}

// Rules is the decoded corrections file. Species are keyed by scientific name.
type Rules struct {
	Exclude    []string                       `yaml:"exclude"`
	Categories map[string]CategoryOverride    `yaml:"categories"`
	States     map[string]domain.SpeciesState `yaml:"states"`

	excluded map[string]struct{}
}

// LoadRules reads rules from path. An empty path yields empty rules.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return ParseRules(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corrections: read %s: %w", path, err)
	}

	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("corrections: %s: %w", path, err)
	}
	return rules, nil
}

// ParseRules decodes and validates a YAML rules document.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode rules: %w: %w", domain.ErrValidation, err)
		}
	}

	r.Categories = normalizeKeys(r.Categories)
	r.States = normalizeKeys(r.States)

	var errs []domain.FieldError
	for name, state := range r.States {
		if !state.IsValid() {
			errs = append(errs, domain.FieldError{
				Field:   "states." + name,
				Message: fmt.Sprintf("unknown state %q", state),
			})
		}
	}
	for name := range r.Categories {
		if name == "" {
			errs = append(errs, domain.FieldError{Field: "categories", Message: "empty species name"})
		}
	}
	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}

	r.excluded = make(map[string]struct{}, len(r.Exclude))
	for _, name := range r.Exclude {
		if name = domain.NormalizeName(name); name != "" {
			r.excluded[name] = struct{}{}
		}
	}
	return &r, nil
}

// MustBeRemoved reports whether a scientific name is excluded from the registry.
func (r *Rules) MustBeRemoved(scientificName string) bool {
	if r == nil {
		return false
	}
	_, ok := r.excluded[domain.NormalizeName(scientificName)]
	return ok
}

// IsEmpty reports whether the rules carry any override to apply after a sync.
func (r *Rules) IsEmpty() bool {
	if r == nil {
		return true
	}
	return len(r.Categories) == 0 && len(r.States) == 0
}

// names returns every species referenced by an override, sorted.
func (r *Rules) names() []string {
	set := make(map[string]struct{}, len(r.Categories)+len(r.States))
	for name := range r.Categories {
		set[name] = struct{}{}
	}
	for name := range r.States {
		set[name] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func normalizeKeys[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[domain.NormalizeName(k)] = v
	}
	return out
}
