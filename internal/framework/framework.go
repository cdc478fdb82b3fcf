package framework

import (
	"strings"
)

// Severity classifies the compliance impact of an element being absent.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Valid reports whether s is one of the four defined levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Element is one checkable requirement within a framework.
type Element struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name,omitempty" json:"name,omitempty"`
	Description  string   `yaml:"description" json:"description"`
	Required     bool     `yaml:"required" json:"required"`
	Severity     Severity `yaml:"severity" json:"severity"`
	Guidance     string   `yaml:"guidance,omitempty" json:"guidance,omitempty"`
	Examples     []string `yaml:"examples,omitempty" json:"examples,omitempty"`
	AntiPatterns []string `yaml:"anti_patterns,omitempty" json:"anti_patterns,omitempty"`
}

// DisplayName returns the element's human-readable label, deriving one from
// the id when none is set (e.g. "client_objectives" -> "Client Objectives").
func (e Element) DisplayName() string {
	if strings.TrimSpace(e.Name) != "" {
		return e.Name
	}
	parts := strings.FieldsFunc(e.ID, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// Override changes required/severity for one element in one context.
// Nil fields inherit the element's base value.
type Override struct {
	Required *bool     `yaml:"required" json:"required,omitempty"`
	Severity *Severity `yaml:"severity" json:"severity,omitempty"`
}

// ContextOverride is the per-context override block of a framework, keyed by
// element id.
type ContextOverride struct {
	Description string              `yaml:"description,omitempty" json:"description,omitempty"`
	Elements    map[string]Override `yaml:"elements" json:"elements"`
}

// Definition is a validated, in-memory framework. Treated as immutable for
// the duration of an evaluation.
type Definition struct {
	ID        string    `yaml:"framework_id" json:"framework_id"`
	Name      string    `yaml:"name" json:"name"`
	Version   string    `yaml:"version" json:"version"`
	Regulator string    `yaml:"regulator" json:"regulator"`
	Elements  []Element `yaml:"elements" json:"elements"`

	// MeetingTypeOverrides maps a meeting type (e.g. "annual_review") to
	// required/severity overrides for individual elements.
	MeetingTypeOverrides map[string]ContextOverride `yaml:"meeting_type_overrides,omitempty" json:"meeting_type_overrides,omitempty"`
}

// EffectiveElement is an Element resolved against a meeting type: the
// required/severity actually used for one evaluation run. Derived, never
// persisted.
type EffectiveElement struct {
	Element
}

// Resolve computes the effective required/severity for one element under the
// given meeting type. Pure: no override for the context (or an empty meeting
// type) returns the base values unchanged; a partial override falls back
// per-field.
func (d *Definition) Resolve(el Element, meetingType string) EffectiveElement {
	eff := EffectiveElement{Element: el}
	if meetingType == "" {
		return eff
	}
	ctx, ok := d.MeetingTypeOverrides[meetingType]
	if !ok {
		return eff
	}
	ov, ok := ctx.Elements[el.ID]
	if !ok {
		return eff
	}
	if ov.Required != nil {
		eff.Required = *ov.Required
	}
	if ov.Severity != nil {
		eff.Severity = *ov.Severity
	}
	return eff
}

// EffectiveElements resolves every element for the given meeting type,
// preserving framework definition order.
func (d *Definition) EffectiveElements(meetingType string) []EffectiveElement {
	out := make([]EffectiveElement, 0, len(d.Elements))
	for _, el := range d.Elements {
		out = append(out, d.Resolve(el, meetingType))
	}
	return out
}

// ElementByID returns the element with the given id, if defined.
func (d *Definition) ElementByID(id string) (Element, bool) {
	for _, el := range d.Elements {
		if el.ID == id {
			return el, true
		}
	}
	return Element{}, false
}
