package framework

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// fileSuffixes mark a reference as a file path rather than a built-in id.
var fileSuffixes = []string{".yaml", ".yml"}

// IsFilePath reports whether ref looks like a file path: it ends in .yaml/.yml
// or contains a path separator. Anything else is treated as a built-in id.
func IsFilePath(ref string) bool {
	lower := strings.ToLower(ref)
	for _, suffix := range fileSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return strings.ContainsAny(ref, `/\`) || strings.Contains(ref, string(os.PathSeparator))
}

// Load resolves a framework reference to a validated definition.
// File paths are loaded from disk; anything else is resolved against the
// built-in frameworks bundled with the binary.
func Load(ref string) (*Definition, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, &ValidationError{Source: "<empty>", Msg: "framework reference must be set"}
	}
	if IsFilePath(ref) {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("read framework file %s: %w", ref, err)
		}
		return Parse(data, ref)
	}

	data, err := builtinFS.ReadFile("builtin/" + ref + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("built-in framework %q not found (known: %s): %w",
			ref, strings.Join(Builtins(), ", "), err)
	}
	return Parse(data, ref)
}

// Builtins lists the ids of the frameworks bundled with the binary.
func Builtins() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(ids)
	return ids
}

// Parse decodes and validates a YAML framework definition. The source string
// is carried into validation errors for debugging.
func Parse(data []byte, source string) (*Definition, error) {
	var raw definitionYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse framework yaml (source: %s): %w", source, err)
	}

	def := &Definition{
		ID:                   raw.ID,
		Name:                 raw.Name,
		Version:              raw.Version,
		Regulator:            raw.Regulator,
		MeetingTypeOverrides: raw.MeetingTypeOverrides,
	}
	for i, el := range raw.Elements {
		if el.Required == nil {
			id := el.ID
			if id == "" {
				id = fmt.Sprintf("element[%d]", i)
			}
			return nil, &ValidationError{Source: source, ElementID: id, Msg: "missing required flag"}
		}
		def.Elements = append(def.Elements, Element{
			ID:           el.ID,
			Name:         el.Name,
			Description:  el.Description,
			Required:     *el.Required,
			Severity:     el.Severity,
			Guidance:     el.Guidance,
			Examples:     el.Examples,
			AntiPatterns: el.AntiPatterns,
		})
	}

	if err := validate(def, source); err != nil {
		return nil, err
	}
	return def, nil
}

// LoadDir loads every *.yaml / *.yml framework file in dir, keyed by
// framework id. A duplicate id across files is an error.
func LoadDir(dir string) (map[string]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frameworks dir %s: %w", dir, err)
	}
	out := make(map[string]*Definition)
	for _, e := range entries {
		if e.IsDir() || !IsFilePath(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read framework file %s: %w", path, err)
		}
		def, err := Parse(data, path)
		if err != nil {
			return nil, err
		}
		if _, dup := out[def.ID]; dup {
			return nil, &ValidationError{Source: path, Msg: fmt.Sprintf("framework id %q defined more than once in %s", def.ID, dir)}
		}
		out[def.ID] = def
	}
	return out, nil
}

// definitionYAML mirrors Definition with pointer fields where presence must
// be distinguished from the zero value.
type definitionYAML struct {
	ID                   string                     `yaml:"framework_id"`
	Name                 string                     `yaml:"name"`
	Version              string                     `yaml:"version"`
	Regulator            string                     `yaml:"regulator"`
	Elements             []elementYAML              `yaml:"elements"`
	MeetingTypeOverrides map[string]ContextOverride `yaml:"meeting_type_overrides"`
}

type elementYAML struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Required     *bool    `yaml:"required"`
	Severity     Severity `yaml:"severity"`
	Guidance     string   `yaml:"guidance"`
	Examples     []string `yaml:"examples"`
	AntiPatterns []string `yaml:"anti_patterns"`
}
