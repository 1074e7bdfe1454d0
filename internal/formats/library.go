package formats

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Library stores custom formats as Markdown files with a YAML frontmatter
// carrying the name. The body is the instruction text.
//
//	---
//	name: Markdown Table
//	---
//
//	Generate a Markdown table with columns for id, name and role.
type Library struct {
	dir string
}

func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Dir returns the library directory.
func (l *Library) Dir() string {
	return l.dir
}

// Load reads every format in the library, sorted by name. A missing
// directory yields an empty library. Malformed files are skipped.
func (l *Library) Load() ([]Spec, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var specs []Spec
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		spec, err := loadFile(filepath.Join(l.dir, entry.Name()))
		if err != nil {
			continue
		}
		specs = append(specs, spec)
	}

	sort.Slice(specs, func(i, j int) bool {
		return strings.ToLower(specs[i].Name) < strings.ToLower(specs[j].Name)
	})
	return specs, nil
}

// Save writes spec to <dir>/<slug>.md, replacing any file with that slug.
func (l *Library) Save(spec Spec) (string, error) {
	slug := Slug(spec.Name)
	if slug == "" {
		return "", fmt.Errorf("format name %q has no usable characters", spec.Name)
	}
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return "", err
	}

	front, err := yaml.Marshal(spec)
	if err != nil {
		return "", err
	}
	content := fmt.Sprintf("---\n%s---\n\n%s\n", front, strings.TrimSpace(spec.Instructions))

	path := filepath.Join(l.dir, slug+".md")
	return path, os.WriteFile(path, []byte(content), 0644)
}

func loadFile(path string) (Spec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, err
	}

	// parts[0] precedes the opening ---, parts[1] is frontmatter, parts[2] the body
	parts := strings.SplitN(string(content), "---", 3)
	if len(parts) < 3 || strings.TrimSpace(parts[0]) != "" {
		return Spec{}, fmt.Errorf("%s: missing frontmatter", path)
	}

	var spec Spec
	if err := yaml.Unmarshal([]byte(parts[1]), &spec); err != nil {
		return Spec{}, fmt.Errorf("%s: %w", path, err)
	}
	spec.Name = strings.TrimSpace(spec.Name)
	spec.Instructions = strings.TrimSpace(parts[2])

	if spec.Name == "" {
		spec.Name = strings.TrimSuffix(filepath.Base(path), ".md")
	}
	if spec.Instructions == "" {
		return Spec{}, fmt.Errorf("%s: empty instructions", path)
	}
	return spec, nil
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugHyphens = regexp.MustCompile(`-+`)
)

// Slug turns a format name into a file-safe identifier.
func Slug(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "_", "-")
	name = slugInvalid.ReplaceAllString(name, "")
	name = slugHyphens.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}
