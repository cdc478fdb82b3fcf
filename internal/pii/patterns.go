package pii

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Pattern is one compiled detector.
type Pattern struct {
	Name string
	re   *regexp.Regexp
}

// PatternSet holds the regex detectors applied to every note.
type PatternSet struct {
	id       string
	version  string
	patterns []Pattern
}

// BuiltinPatterns returns the default detector set, tuned for UK financial
// advice notes.
func BuiltinPatterns() *PatternSet {
	return &PatternSet{
		id:      "notelens-pii-builtin",
		version: "1.0.0",
		patterns: []Pattern{
			{Name: "email", re: regexp.MustCompile(
				`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
			)},
			{Name: "phone", re: regexp.MustCompile(
				`\+?\d[\d\s\-()]{8,}\d`,
			)},
			{Name: "ni_number", re: regexp.MustCompile(
				`\b[A-CEGHJ-PR-TW-Z]{2}\s?\d{2}\s?\d{2}\s?\d{2}\s?[A-D]\b`,
			)},
			{Name: "iban", re: regexp.MustCompile(
				`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`,
			)},
			{Name: "card_number", re: regexp.MustCompile(
				`\b(?:\d[ -]?){13,16}\b`,
			)},
			{Name: "sort_code", re: regexp.MustCompile(
				`\b\d{2}-\d{2}-\d{2}\b`,
			)},
			{Name: "account_number", re: regexp.MustCompile(
				`\b\d{8}\b`,
			)},
			{Name: "postcode", re: regexp.MustCompile(
				`\b[A-Z]{1,2}\d[A-Z0-9]?\s?\d[A-Z]{2}\b`,
			)},
		},
	}
}

type patternFileYAML struct {
	ID       string `yaml:"id"`
	Version  string `yaml:"version"`
	Patterns []struct {
		Name  string `yaml:"name"`
		Regex string `yaml:"regex"`
	} `yaml:"patterns"`
}

// LoadPatterns reads a pattern bundle file and compiles every entry. Any
// invalid regex fails the whole load; callers fall back to the builtin set
// only when no file was configured, never on a broken one.
func LoadPatterns(path string) (*PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "patterns", Err: fmt.Errorf("read pattern bundle: %w", err)}
	}

	var raw patternFileYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Op: "patterns", Err: fmt.Errorf("decode pattern bundle: %w", err)}
	}
	if len(raw.Patterns) == 0 {
		return nil, &Error{Op: "patterns", Err: fmt.Errorf("pattern bundle %s has no patterns", path)}
	}

	set := &PatternSet{id: raw.ID, version: raw.Version}
	for _, p := range raw.Patterns {
		if p.Name == "" || p.Regex == "" {
			return nil, &Error{Op: "patterns", Err: fmt.Errorf("pattern bundle %s: entry missing name or regex", path)}
		}
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, &Error{Op: "patterns", Err: fmt.Errorf("compile pattern %q: %w", p.Name, err)}
		}
		set.patterns = append(set.patterns, Pattern{Name: p.Name, re: re})
	}
	return set, nil
}

// Detect returns the spans matched by every pattern, unmerged.
func (s *PatternSet) Detect(text string) []Span {
	if s == nil || text == "" {
		return nil
	}
	var spans []Span
	for _, p := range s.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			spans = append(spans, Span{Start: loc[0], End: loc[1], Kind: p.Name})
		}
	}
	return spans
}

// Version identifies the loaded detector set for report metadata.
func (s *PatternSet) Version() string {
	if s == nil {
		return ""
	}
	if s.id == "" {
		return s.version
	}
	return s.id + "/" + s.version
}
