package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/vk/taskweave/internal/config"
	"github.com/vk/taskweave/internal/ctxlog"
	"github.com/vk/taskweave/internal/engine"
	"github.com/vk/taskweave/internal/loader"
	"github.com/vk/taskweave/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW           io.Writer
	logger         *slog.Logger
	registry       *registry.Registry
	templates      *loader.Templates
	jobs           *loader.Jobs
	templateDirs   []string
	jobDirs        []string
	connectorsPath string
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All modules registered.", "count", len(modules))

	templates := loader.NewTemplates(cfg.TemplateDirs...)
	return &App{
		outW:           outW,
		logger:         logger,
		registry:       reg,
		templates:      templates,
		jobs:           loader.NewJobs(templates, cfg.JobDirs...),
		templateDirs:   cfg.TemplateDirs,
		jobDirs:        cfg.JobDirs,
		connectorsPath: cfg.ConnectorsPath,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry { return a.registry }

// ListTemplates prints the available templates.
func (a *App) ListTemplates() error {
	templates, err := a.templates.List()
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		fmt.Fprintln(a.outW, "No templates available.")
		return nil
	}
	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDESCRIPTION")
	for _, t := range templates {
		fmt.Fprintf(tw, "%s\t%s\n", t.Name(), t.Description())
	}
	return tw.Flush()
}

// ListJobs prints the available jobs, names only when quiet is set.
func (a *App) ListJobs(quiet bool) error {
	jobs, err := a.jobs.List()
	if err != nil {
		return err
	}
	if quiet {
		for _, j := range jobs {
			fmt.Fprintln(a.outW, j.Name)
		}
		return nil
	}
	if len(jobs) == 0 {
		fmt.Fprintln(a.outW, "No jobs available.")
		return nil
	}
	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDESCRIPTION\tTEMPLATE")
	for _, j := range jobs {
		description := j.Description
		if description == "" {
			description = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", j.Name, description, j.Template.Name())
	}
	return tw.Flush()
}

// CreateJob binds a template to parameter values and persists the result.
// Values files are merged in the order given, later files taking
// precedence, with an optional inline YAML document merged last. Missing
// required parameters fail the creation rather than the eventual run.
func (a *App) CreateJob(name, description, templateName string, valuesFiles []string, valuesInline string) error {
	template, err := a.templates.Find(templateName)
	if err != nil {
		return err
	}
	values := make(map[string]any)
	for _, path := range valuesFiles {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("parsing values file %s: %w", path, err)
		}
		merge(values, doc)
	}
	if valuesInline != "" {
		var doc map[string]any
		if err := yaml.Unmarshal([]byte(valuesInline), &doc); err != nil {
			return fmt.Errorf("parsing inline values: %w", err)
		}
		merge(values, doc)
	}
	if err := template.CheckValues(values); err != nil {
		return err
	}
	job := &engine.Job{Name: name, Description: description, Template: template, Values: values}
	if err := a.jobs.Save(job); err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "Created job '%s'\n", name)
	return nil
}

// RunJob assembles the connector registry fresh for this run and drives the
// named job to completion.
func (a *App) RunJob(ctx context.Context, name string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	job, err := a.jobs.Find(name)
	if err != nil {
		return err
	}
	connectorsFile, err := config.Load(a.connectorsPath)
	if err != nil {
		return err
	}
	connectors, err := connectorsFile.BuildConnectors(a.registry)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range connectors {
			if closer, ok := c.(io.Closer); ok {
				closer.Close()
			}
		}
	}()

	a.logger.Info("Running job.", "job", job.Name, "template", job.Template.Name())
	if err := job.Run(ctx, a.registry, connectors); err != nil {
		return err
	}
	a.logger.Info("Job finished.", "job", job.Name)
	return nil
}

// DeleteJob removes the named job from every job directory.
func (a *App) DeleteJob(name string) error {
	if err := a.jobs.Delete(name); err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "Deleted job '%s'\n", name)
	return nil
}

// Sources prints the configuration sources in order of precedence.
func (a *App) Sources() {
	for _, dir := range a.templateDirs {
		fmt.Fprintf(a.outW, "templates\t%s\n", dir)
	}
	for _, dir := range a.jobDirs {
		fmt.Fprintf(a.outW, "jobs\t%s\n", dir)
	}
	fmt.Fprintf(a.outW, "connectors\t%s\n", a.connectorsPath)
}

// merge folds values into destination recursively: mappings merge deeply,
// sequences append, scalars overwrite.
func merge(destination, values map[string]any) {
	for key, value := range values {
		switch v := value.(type) {
		case map[string]any:
			existing, ok := destination[key].(map[string]any)
			if !ok {
				existing = make(map[string]any)
				destination[key] = existing
			}
			merge(existing, v)
		case []any:
			if existing, ok := destination[key].([]any); ok {
				destination[key] = append(existing, v...)
			} else {
				destination[key] = v
			}
		default:
			destination[key] = value
		}
	}
}
