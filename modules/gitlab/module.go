// Package gitlab binds the GitLab REST API v4 to the pipeline engine. Auth
// is a PRIVATE-TOKEN header; pagination follows the Link header like
// GitHub. The API base is configurable for self-hosted instances.
package gitlab

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vk/taskweave/internal/engine"
	"github.com/vk/taskweave/internal/registry"
	"github.com/vk/taskweave/internal/rest"
)

const defaultURL = "https://gitlab.com"

var (
	issues   = rest.Descriptor{Name: "issues", Endpoint: "issues", PrimaryKey: "iid"}
	projects = rest.Descriptor{Name: "projects", Endpoint: "projects"}
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the connector factory and stage factories with the
// central registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterConnector("gitlab", connect)
	r.RegisterStage("gitlab.issues_assigned_to_user", newIssuesAssignedToUser)
	r.RegisterStage("gitlab.create_project_issue", newCreateProjectIssue)
}

func connect(name string, options map[string]any) (engine.Connector, error) {
	token, _ := options["api_token"].(string)
	if token == "" {
		return nil, fmt.Errorf("gitlab connector requires an api_token option")
	}
	base, _ := options["url"].(string)
	if base == "" {
		base = defaultURL
	}
	auth := rest.TokenAuth{Header: "PRIVATE-TOKEN", Token: token}
	return rest.NewConnection(name, strings.TrimRight(base, "/")+"/api/v4", auth, rest.LinkHeaderPages), nil
}

// newIssuesAssignedToUser builds a source of the issues assigned to the
// authenticated user.
func newIssuesAssignedToUser(ctx context.Context, cfg map[string]any) (any, error) {
	conn, err := connectionFrom(cfg)
	if err != nil {
		return nil, err
	}
	return engine.Thunk(func(ctx context.Context) (any, error) {
		manager := rest.NewManager(issues, conn, "")
		params := url.Values{"scope": {"assigned_to_me"}}
		var stream engine.Stream = func(yield func(any, error) bool) {
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
		return stream, nil
	}), nil
}

// newCreateProjectIssue builds a sink creating one issue per incoming item
// in the configured project. The project is an id or a URL-encoded
// "group/project" path.
func newCreateProjectIssue(ctx context.Context, cfg map[string]any) (any, error) {
	conn, err := connectionFrom(cfg)
	if err != nil {
		return nil, err
	}
	project, ok := cfg["project"]
	if !ok {
		return nil, fmt.Errorf("gitlab.create_project_issue requires a project option")
	}
	projectKey := url.PathEscape(fmt.Sprint(project))
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("gitlab.create_project_issue expects a mapping item, got %T", item)
		}
		parent, err := rest.NewManager(projects, conn, "").FetchOne(ctx, projectKey, true)
		if err != nil {
			return nil, err
		}
		params := map[string]any{"title": fields["title"]}
		if description, ok := fields["description"]; ok {
			params["description"] = description
		}
		created, err := parent.Nested(issues).Create(ctx, params)
		if err != nil {
			return nil, err
		}
		return created.Data(), nil
	}), nil
}

func connectionFrom(cfg map[string]any) (*rest.Connection, error) {
	conn, ok := cfg["connector"].(*rest.Connection)
	if !ok {
		return nil, fmt.Errorf("stage requires a gitlab connector (got %T)", cfg["connector"])
	}
	return conn, nil
}
