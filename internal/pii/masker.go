package pii

// entityDetector is the model-side detector; satisfied by *NERModel.
type entityDetector interface {
	Detect(text string) ([]Span, error)
}

// Masker combines regex and model detection and masks every detected span.
type Masker struct {
	patterns *PatternSet
	model    entityDetector
}

// NewMasker builds a masker over the given pattern set. A nil set falls back
// to the builtin detectors. The model is optional.
func NewMasker(patterns *PatternSet, model *NERModel) *Masker {
	if patterns == nil {
		patterns = BuiltinPatterns()
	}
	m := &Masker{patterns: patterns}
	if model != nil {
		m.model = model
	}
	return m
}

// Mask replaces every detected span with '*' characters of the same byte
// length, so offsets into the note remain meaningful. The bool reports
// whether anything was masked. On any detection failure the original text is
// withheld and an *Error returned.
func (m *Masker) Mask(text string) (string, bool, error) {
	if text == "" {
		return "", false, nil
	}

	spans := m.patterns.Detect(text)

	if m.model != nil {
		modelSpans, err := m.model.Detect(text)
		if err != nil {
			return "", false, &Error{Op: "model", Err: err}
		}
		spans = append(spans, modelSpans...)
	}

	if len(spans) == 0 {
		return text, false, nil
	}

	out := []byte(text)
	for _, s := range mergeSpans(spans) {
		if s.Start < 0 || s.End > len(out) || s.Start >= s.End {
			continue
		}
		for i := s.Start; i < s.End; i++ {
			out[i] = '*'
		}
	}
	return string(out), true, nil
}
