package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/taskweave/internal/engine"
)

var templateExts = []string{".yaml", ".yml", ".hcl"}

// Templates loads templates from a directory hierarchy.
type Templates struct {
	dirs Dirs
}

// NewTemplates creates a template loader over the given directories,
// highest precedence first.
func NewTemplates(dirs ...string) *Templates {
	return &Templates{dirs: Dirs(dirs)}
}

// Find returns the template with the given name.
func (l *Templates) Find(name string) (*engine.Template, error) {
	path, err := l.dirs.find(name, templateExts)
	if err != nil {
		return nil, fmt.Errorf("could not find template %q: %w", name, err)
	}
	return loadTemplate(path)
}

// List returns all available templates, sorted by name.
func (l *Templates) List() ([]*engine.Template, error) {
	var templates []*engine.Template
	for _, path := range l.dirs.list(templateExts) {
		t, err := loadTemplate(path)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func loadTemplate(path string) (*engine.Template, error) {
	if strings.HasSuffix(path, ".hcl") {
		return loadHCLTemplate(path)
	}
	return loadYAMLTemplate(path)
}

// templateDoc is the YAML shape of a template file.
type templateDoc struct {
	Description string `yaml:"description"`
	Spec        any    `yaml:"spec"`
}

func loadYAMLTemplate(path string) (*engine.Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc templateDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", filepath.Base(path), err)
	}
	if doc.Spec == nil {
		return nil, fmt.Errorf("template %s has no spec", filepath.Base(path))
	}
	if doc.Description == "" {
		doc.Description = "-"
	}
	return engine.NewTemplate(stem(path), doc.Description, doc.Spec)
}
