// Package github binds the GitHub REST API v3 to the pipeline engine: a
// connector factory for authenticated api.github.com sessions and stages
// for listing and commenting on issues. GitHub paginates with a Link
// header over bare JSON arrays.
package github

import (
	"context"
	"fmt"
	"net/url"

	"github.com/vk/taskweave/internal/engine"
	"github.com/vk/taskweave/internal/registry"
	"github.com/vk/taskweave/internal/rest"
)

const apiBase = "https://api.github.com"

var (
	issues   = rest.Descriptor{Name: "issues", Endpoint: "issues", PrimaryKey: "number"}
	repos    = rest.Descriptor{Name: "repos", Endpoint: "repos", PrimaryKey: "full_name"}
	comments = rest.Descriptor{Name: "comments", Endpoint: "comments"}
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the connector factory and stage factories with the
// central registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterConnector("github", connect)
	r.RegisterStage("github.issues_assigned_to_user", newIssuesAssignedToUser)
	r.RegisterStage("github.issues_for_repository", newIssuesForRepository)
	r.RegisterStage("github.add_issue_comment", newAddIssueComment)
}

func connect(name string, options map[string]any) (engine.Connector, error) {
	token, _ := options["api_token"].(string)
	if token == "" {
		return nil, fmt.Errorf("github connector requires an api_token option")
	}
	base, _ := options["url"].(string)
	if base == "" {
		base = apiBase
	}
	auth := rest.TokenAuth{Header: "Authorization", Scheme: "token", Token: token}
	return rest.NewConnection(name, base, auth, rest.LinkHeaderPages), nil
}

// newIssuesAssignedToUser builds a source of all issues assigned to the
// authenticated user, across every page.
func newIssuesAssignedToUser(ctx context.Context, cfg map[string]any) (any, error) {
	conn, err := connectionFrom(cfg)
	if err != nil {
		return nil, err
	}
	return engine.Thunk(func(ctx context.Context) (any, error) {
		manager := rest.NewManager(issues, conn, "")
		return resourceStream(ctx, manager, nil), nil
	}), nil
}

// newIssuesForRepository builds a source of the open issues of one
// repository, given as "owner/name".
func newIssuesForRepository(ctx context.Context, cfg map[string]any) (any, error) {
	conn, err := connectionFrom(cfg)
	if err != nil {
		return nil, err
	}
	repository, _ := cfg["repository"].(string)
	if repository == "" {
		return nil, fmt.Errorf("github.issues_for_repository requires a repository option")
	}
	return engine.Thunk(func(ctx context.Context) (any, error) {
		repo, err := rest.NewManager(repos, conn, "").FetchOne(ctx, repository, true)
		if err != nil {
			return nil, err
		}
		return resourceStream(ctx, repo.Nested(issues), nil), nil
	}), nil
}

// newAddIssueComment builds a sink that posts each incoming item as a
// comment. Items carry the issue number and the comment body.
func newAddIssueComment(ctx context.Context, cfg map[string]any) (any, error) {
	conn, err := connectionFrom(cfg)
	if err != nil {
		return nil, err
	}
	repository, _ := cfg["repository"].(string)
	if repository == "" {
		return nil, fmt.Errorf("github.add_issue_comment requires a repository option")
	}
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("github.add_issue_comment expects a mapping item, got %T", item)
		}
		number, ok := fields["number"]
		if !ok {
			return nil, fmt.Errorf("github.add_issue_comment item has no issue number")
		}
		body, _ := fields["body"].(string)
		issueMgr := rest.NewManager(issues, conn, "repos/"+repository)
		issue, err := issueMgr.FetchOne(ctx, fmt.Sprint(number), true)
		if err != nil {
			return nil, err
		}
		if _, err := issue.Nested(comments).Create(ctx, map[string]any{"body": body}); err != nil {
			return nil, err
		}
		return item, nil
	}), nil
}

func connectionFrom(cfg map[string]any) (*rest.Connection, error) {
	conn, ok := cfg["connector"].(*rest.Connection)
	if !ok {
		return nil, fmt.Errorf("stage requires a github connector (got %T)", cfg["connector"])
	}
	return conn, nil
}

// resourceStream adapts a paginated fetch into a lazy stream of plain data
// mappings for the pipeline.
func resourceStream(ctx context.Context, manager *rest.Manager, params url.Values) engine.Stream {
	return func(yield func(any, error) bool) {
		for r, err := range manager.FetchAll(ctx, params) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(r.Data(), nil) {
				return
			}
		}
	}
}
