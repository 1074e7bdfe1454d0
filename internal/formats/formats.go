package formats

import "strings"

// Spec is a target structured-data format. Predefined formats carry no
// instructions; custom formats carry the user's rules for the model.
type Spec struct {
	Name         string `yaml:"name"`
	Instructions string `yaml:"-"`
}

// HasInstructions reports whether the format adds a custom-instructions bullet.
func (s Spec) HasInstructions() bool {
	return strings.TrimSpace(s.Instructions) != ""
}

// DisplayName returns the expanded name the model is asked to use.
func (s Spec) DisplayName() string {
	return DisplayName(s.Name)
}

// Predefined lists the built-in formats in canonical order.
var Predefined = []string{"JSON", "TOON", "YAML", "CSV", "XML", "TOML"}

var displayNames = map[string]string{
	"JSON": "JSON (JavaScript Object Notation)",
	"TOON": "TOON (Token-Oriented Object Notation)",
	"YAML": "YAML (YAML Ain’t Markup Language)",
	"CSV":  "CSV (Comma-Separated Values)",
	"XML":  "XML (eXtensible Markup Language)",
	"TOML": "TOML (Tom's Obvious Minimal Language)",
}

// DisplayName maps a predefined format to its expanded name. Unknown names
// are returned unchanged.
func DisplayName(name string) string {
	if d, ok := displayNames[name]; ok {
		return d
	}
	return name
}

// IsPredefined reports whether name is one of the built-in formats.
func IsPredefined(name string) bool {
	_, ok := displayNames[name]
	return ok
}
