package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/taskweave/internal/app"
	"github.com/vk/taskweave/internal/cli"
)

// main is the entrypoint for the taskweave application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	cmd, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Module registration panics on programmer errors (duplicate paths), so
	// recover here to provide a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(outW, "A critical startup error occurred: %v\n", r)
			os.Exit(1)
		}
	}()

	taskweave := app.NewApp(outW, cmd.Config)
	ctx := context.Background()

	switch cmd.Action {
	case "template-list":
		return taskweave.ListTemplates()
	case "job-list":
		return taskweave.ListJobs(cmd.Quiet)
	case "job-create":
		return taskweave.CreateJob(cmd.Name, cmd.Description, cmd.TemplateName, cmd.ValuesFiles, cmd.ValuesInline)
	case "job-run":
		return taskweave.RunJob(ctx, cmd.Name)
	case "job-delete":
		return taskweave.DeleteJob(cmd.Name)
	case "sources":
		taskweave.Sources()
		return nil
	default:
		return &cli.ExitError{Code: 2, Message: fmt.Sprintf("unknown action %q", cmd.Action)}
	}
}
