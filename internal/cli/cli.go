package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/vk/taskweave/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Command is one parsed invocation: the shared app configuration plus the
// action to dispatch and its arguments.
type Command struct {
	Config *app.Config
	Action string

	Name         string
	TemplateName string
	Description  string
	ValuesFiles  []string
	ValuesInline string
	Quiet        bool
}

const usageText = `taskweave - declarative pipelines between task trackers.

Usage:
  taskweave [options] template list
  taskweave [options] job list [-q]
  taskweave [options] job create [-n NAME] [-f VALUES_FILE]... [--values YAML] [--description TEXT] TEMPLATE
  taskweave [options] job run NAME
  taskweave [options] job delete NAME
  taskweave [options] sources

Options:
`

// Parse processes command-line arguments. It returns a populated Command,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Command, bool, error) {
	flagSet := flag.NewFlagSet("taskweave", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	templatesDir := flagSet.String("templates-dir", "", "Additional directory to search for templates.")
	jobsDir := flagSet.String("jobs-dir", "", "Additional directory to search for jobs.")
	connectorsPath := flagSet.String("connectors", "", "Path to the connector configuration file.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg := &app.Config{
		ConnectorsPath: *connectorsPath,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
	}
	if *templatesDir != "" {
		cfg.TemplateDirs = []string{*templatesDir}
	}
	if *jobsDir != "" {
		cfg.JobDirs = []string{*jobsDir}
	}
	cfg.ApplyDefaults()

	rest := flagSet.Args()
	if len(rest) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}

	cmd := &Command{Config: cfg}
	switch rest[0] {
	case "template":
		return parseTemplate(cmd, rest[1:], output)
	case "job":
		return parseJob(cmd, rest[1:], output)
	case "sources":
		cmd.Action = "sources"
		return cmd, false, nil
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", rest[0])}
	}
}

func parseTemplate(cmd *Command, args []string, output io.Writer) (*Command, bool, error) {
	if len(args) == 0 || args[0] != "list" {
		return nil, false, &ExitError{Code: 2, Message: "usage: taskweave template list"}
	}
	cmd.Action = "template-list"
	return cmd, false, nil
}

func parseJob(cmd *Command, args []string, output io.Writer) (*Command, bool, error) {
	if len(args) == 0 {
		return nil, false, &ExitError{Code: 2, Message: "usage: taskweave job list|create|run|delete"}
	}
	switch args[0] {
	case "list":
		flagSet := flag.NewFlagSet("job list", flag.ContinueOnError)
		flagSet.SetOutput(output)
		quiet := flagSet.Bool("q", false, "Print job names only, one per line.")
		if err := flagSet.Parse(args[1:]); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		cmd.Action = "job-list"
		cmd.Quiet = *quiet
		return cmd, false, nil
	case "create":
		flagSet := flag.NewFlagSet("job create", flag.ContinueOnError)
		flagSet.SetOutput(output)
		name := flagSet.String("n", "", "A name for the job. If not given, a random name is generated.")
		description := flagSet.String("description", "", "A brief description of the job.")
		valuesInline := flagSet.String("values", "", "Parameter values as a YAML string.")
		var valuesFiles stringList
		flagSet.Var(&valuesFiles, "f", "YAML file containing parameter values (repeatable).")
		if err := flagSet.Parse(args[1:]); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		if flagSet.NArg() != 1 {
			return nil, false, &ExitError{Code: 2, Message: "job create requires exactly one TEMPLATE argument"}
		}
		cmd.Action = "job-create"
		cmd.TemplateName = flagSet.Arg(0)
		cmd.Name = *name
		if cmd.Name == "" {
			cmd.Name = "job-" + uuid.NewString()[:8]
		}
		cmd.Description = *description
		cmd.ValuesFiles = valuesFiles
		cmd.ValuesInline = *valuesInline
		return cmd, false, nil
	case "run", "delete":
		if len(args) != 2 {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("usage: taskweave job %s NAME", args[0])}
		}
		cmd.Action = "job-" + args[0]
		cmd.Name = args[1]
		return cmd, false, nil
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown job command %q", args[0])}
	}
}

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}
