// Package helpscout binds the Help Scout API v1 to the pipeline engine. The
// API uses Basic auth with the API key as the username and a dummy password,
// and paginates list responses with page counters inside the envelope rather
// than a next-page URL.
package helpscout

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"resty.dev/v3"

	"github.com/vk/taskweave/internal/engine"
	"github.com/vk/taskweave/internal/registry"
	"github.com/vk/taskweave/internal/rest"
)

const apiBase = "https://api.helpscout.net/v1"

var (
	mailboxes     = rest.Descriptor{Name: "mailboxes", Endpoint: "mailboxes.json"}
	conversations = rest.Descriptor{Name: "conversations", Endpoint: "conversations.json"}
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the connector factory and stage factories with the
// central registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterConnector("helpscout", connect)
	r.RegisterStage("helpscout.conversations_assigned_to_user", newConversationsAssignedToUser)
}

func connect(name string, options map[string]any) (engine.Connector, error) {
	token, _ := options["api_token"].(string)
	if token == "" {
		return nil, fmt.Errorf("helpscout connector requires an api_token option")
	}
	base, _ := options["url"].(string)
	if base == "" {
		base = apiBase
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(token + ":X"))
	auth := rest.TokenAuth{Header: "Authorization", Scheme: "Basic", Token: encoded}
	return rest.NewConnection(name, base, auth, pagedEnvelope), nil
}

// pagedEnvelope extracts pages of the form {"items": [...], "page": N,
// "pages": M}. The next page is requested by incrementing the page query
// parameter on the URL the current page came from.
func pagedEnvelope(resp *resty.Response, body []byte) (rest.Page, error) {
	page, err := rest.EnvelopePages("items", "next")(resp, body)
	if err != nil || page.Next != "" {
		return page, err
	}
	var counters struct {
		Page  int `json:"page"`
		Pages int `json:"pages"`
	}
	if err := json.Unmarshal(body, &counters); err != nil {
		return rest.Page{}, fmt.Errorf("parsing page counters: %w", err)
	}
	if counters.Page > 0 && counters.Page < counters.Pages {
		next := *resp.RawResponse.Request.URL
		query := next.Query()
		query.Set("page", strconv.Itoa(counters.Page+1))
		next.RawQuery = query.Encode()
		page.Next = next.String()
	}
	return page, nil
}

// newConversationsAssignedToUser builds a source of the conversations in
// one mailbox, named by the mailbox option, that are assigned to the
// authenticated user.
func newConversationsAssignedToUser(ctx context.Context, cfg map[string]any) (any, error) {
	conn, ok := cfg["connector"].(*rest.Connection)
	if !ok {
		return nil, fmt.Errorf("stage requires a helpscout connector (got %T)", cfg["connector"])
	}
	mailboxName, _ := cfg["mailbox"].(string)
	if mailboxName == "" {
		return nil, fmt.Errorf("helpscout.conversations_assigned_to_user requires a mailbox option")
	}
	return engine.Thunk(func(ctx context.Context) (any, error) {
		userID, err := authenticatedUserID(ctx, conn)
		if err != nil {
			return nil, err
		}
		mailbox, err := rest.NewManager(mailboxes, conn, "").FetchOneBy(ctx, "name", mailboxName, nil)
		if err != nil {
			return nil, err
		}
		manager := rest.NewManager(conversations, conn,
			"mailboxes/"+mailbox.Key()+"/users/"+userID)
		return engine.Stream(func(yield func(any, error) bool) {
			for r, err := range manager.FetchAll(ctx, nil) {
				if err != nil {
					yield(nil, err)
					return
				}
				if !yield(r.Data(), nil) {
					return
				}
			}
		}), nil
	}), nil
}

// authenticatedUserID fetches the caller's own user record, which the API
// serves wrapped in a single-item envelope.
func authenticatedUserID(ctx context.Context, conn *rest.Connection) (string, error) {
	raw, _, err := conn.APIRequest(ctx, resty.MethodGet, "users/me.json", nil, nil)
	if err != nil {
		return "", err
	}
	var envelope struct {
		Item map[string]any `json:"item"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("parsing authenticated user: %w", err)
	}
	id, ok := envelope.Item["id"]
	if !ok {
		return "", fmt.Errorf("authenticated user record has no id")
	}
	return fmt.Sprint(id), nil
}
