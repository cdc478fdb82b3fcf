package framework

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed framework definition or degenerate
// evaluation input. It is always surfaced before any external call is made.
type ValidationError struct {
	Source    string // file path, built-in id, or "<definition>"
	ElementID string // offending element, when applicable
	Msg       string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid framework")
	if e.Source != "" {
		fmt.Fprintf(&b, " (source: %s)", e.Source)
	}
	if e.ElementID != "" {
		fmt.Fprintf(&b, " element %q", e.ElementID)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

// Validate checks a definition for required fields and legal values.
// The first violation is reported with the offending element id; a malformed
// framework never proceeds to element evaluation.
func Validate(d *Definition) error {
	return validate(d, "<definition>")
}

func validate(d *Definition, source string) error {
	if d == nil {
		return &ValidationError{Source: source, Msg: "definition is nil"}
	}
	if strings.TrimSpace(d.ID) == "" {
		return &ValidationError{Source: source, Msg: "framework_id must be set"}
	}
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Source: source, Msg: "name must be set"}
	}
	if strings.TrimSpace(d.Version) == "" {
		return &ValidationError{Source: source, Msg: "version must be set"}
	}
	if strings.TrimSpace(d.Regulator) == "" {
		return &ValidationError{Source: source, Msg: "regulator must be set"}
	}
	if len(d.Elements) == 0 {
		return &ValidationError{Source: source, Msg: "elements must be a non-empty list"}
	}

	seen := make(map[string]struct{}, len(d.Elements))
	for i, el := range d.Elements {
		if strings.TrimSpace(el.ID) == "" {
			return &ValidationError{Source: source, Msg: fmt.Sprintf("element[%d] missing id", i)}
		}
		if _, dup := seen[el.ID]; dup {
			return &ValidationError{Source: source, ElementID: el.ID, Msg: "duplicate element id"}
		}
		seen[el.ID] = struct{}{}
		if strings.TrimSpace(el.Description) == "" {
			return &ValidationError{Source: source, ElementID: el.ID, Msg: "missing description"}
		}
		if !el.Severity.Valid() {
			return &ValidationError{
				Source:    source,
				ElementID: el.ID,
				Msg:       fmt.Sprintf("invalid severity %q (must be critical, high, medium or low)", el.Severity),
			}
		}
	}

	for mt, ctx := range d.MeetingTypeOverrides {
		for id, ov := range ctx.Elements {
			if _, ok := seen[id]; !ok {
				return &ValidationError{
					Source:    source,
					ElementID: id,
					Msg:       fmt.Sprintf("meeting_type_overrides[%s] references unknown element", mt),
				}
			}
			if ov.Severity != nil && !ov.Severity.Valid() {
				return &ValidationError{
					Source:    source,
					ElementID: id,
					Msg:       fmt.Sprintf("meeting_type_overrides[%s] has invalid severity %q", mt, *ov.Severity),
				}
			}
		}
	}

	return nil
}
