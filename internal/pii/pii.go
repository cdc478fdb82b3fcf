// Package pii detects and masks personal data in note text before it is
// sent to any external model provider. Detection combines regex patterns
// (builtin or loaded from a pattern bundle) with an optional local ONNX
// token-classification model for names and other free-form identifiers.
//
// Masking is fail-closed: if masking was requested and any stage fails,
// the caller gets an error, never the unmasked text.
package pii

import "fmt"

// Error reports a masking failure. Op names the stage that failed
// ("patterns", "model", "bundle").
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pii masking failed (%s): %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Span is a half-open byte range [Start, End) in the original text, tagged
// with the entity kind that matched.
type Span struct {
	Start int
	End   int
	Kind  string
}

// mergeSpans sorts spans and coalesces overlapping or adjacent ranges. The
// first span's kind wins on merge.
func mergeSpans(spans []Span) []Span {
	if len(spans) <= 1 {
		return spans
	}
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Start < sorted[j-1].Start; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	out := sorted[:1]
	for _, s := range sorted[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
