package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vk/taskweave/internal/engine"
)

var jobExts = []string{".yaml", ".yml"}

// Jobs loads and persists jobs in a directory hierarchy. Saving always
// writes to the highest-precedence directory; deleting removes the job from
// every directory in which it exists.
type Jobs struct {
	dirs      Dirs
	templates *Templates
}

// NewJobs creates a job loader over the given directories, resolving each
// job's template through the supplied template loader.
func NewJobs(templates *Templates, dirs ...string) *Jobs {
	return &Jobs{dirs: Dirs(dirs), templates: templates}
}

// jobDoc is the YAML shape of a persisted job.
type jobDoc struct {
	Description string         `yaml:"description"`
	Template    string         `yaml:"template"`
	Values      map[string]any `yaml:"values"`
}

// Find returns the job with the given name.
func (l *Jobs) Find(name string) (*engine.Job, error) {
	path, err := l.dirs.find(name, jobExts)
	if err != nil {
		return nil, fmt.Errorf("could not find job %q: %w", name, err)
	}
	return l.load(path)
}

// List returns all available jobs, sorted by name.
func (l *Jobs) List() ([]*engine.Job, error) {
	var jobs []*engine.Job
	for _, path := range l.dirs.list(jobExts) {
		j, err := l.load(path)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// Save persists the job in the directory with the highest precedence,
// creating it if necessary.
func (l *Jobs) Save(job *engine.Job) error {
	dir := l.dirs.Primary()
	if dir == "" {
		return fmt.Errorf("no job directory configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	raw, err := yaml.Marshal(jobDoc{
		Description: job.Description,
		Template:    job.Template.Name(),
		Values:      job.Values,
	})
	if err != nil {
		return fmt.Errorf("encoding job %q: %w", job.Name, err)
	}
	return os.WriteFile(filepath.Join(dir, job.Name+".yaml"), raw, 0o644)
}

// Delete removes jobs with the given name from every directory.
func (l *Jobs) Delete(name string) error {
	for _, dir := range l.dirs {
		for _, ext := range jobExts {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				if err := os.Remove(path); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (l *Jobs) load(path string) (*engine.Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc jobDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing job %s: %w", filepath.Base(path), err)
	}
	template, err := l.templates.Find(doc.Template)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", stem(path), err)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]any)
	}
	return &engine.Job{
		Name:        stem(path),
		Description: doc.Description,
		Template:    template,
		Values:      doc.Values,
	}, nil
}
