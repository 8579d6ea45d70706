// Package trello binds the Trello REST API to the pipeline engine. Trello
// authenticates through key/token query parameters and returns plain JSON
// arrays without pagination metadata. Boards and lists are addressed by
// name, exercising the alias cache: the first card of a run pays for the
// lookup scan, every later card hits the alias.
package trello

import (
	"context"
	"fmt"

	"github.com/vk/taskweave/internal/engine"
	"github.com/vk/taskweave/internal/registry"
	"github.com/vk/taskweave/internal/rest"
)

const apiBase = "https://api.trello.com/1"

var (
	boards  = rest.Descriptor{Name: "boards", Endpoint: "members/me/boards", Single: "boards"}
	lists   = rest.Descriptor{Name: "lists", Endpoint: "lists"}
	cards   = rest.Descriptor{Name: "cards", Endpoint: "cards"}
	myCards = rest.Descriptor{Name: "cards", Endpoint: "members/me/cards", Single: "cards"}
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the connector factory and stage factories with the
// central registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterConnector("trello", connect)
	r.RegisterStage("trello.cards_assigned_to_user", newCardsAssignedToUser)
	r.RegisterStage("trello.create_card", newCreateCard)
}

func connect(name string, options map[string]any) (engine.Connector, error) {
	key, _ := options["api_key"].(string)
	token, _ := options["api_token"].(string)
	if key == "" || token == "" {
		return nil, fmt.Errorf("trello connector requires api_key and api_token options")
	}
	base, _ := options["url"].(string)
	if base == "" {
		base = apiBase
	}
	auth := rest.QueryAuth{Params: map[string]string{"key": key, "token": token}}
	return rest.NewConnection(name, base, auth, rest.LinkHeaderPages), nil
}

// newCardsAssignedToUser builds a source of the cards assigned to the
// authenticated member.
func newCardsAssignedToUser(ctx context.Context, cfg map[string]any) (any, error) {
	conn, err := connectionFrom(cfg)
	if err != nil {
		return nil, err
	}
	return engine.Thunk(func(ctx context.Context) (any, error) {
		manager := rest.NewManager(myCards, conn, "")
		var stream engine.Stream = func(yield func(any, error) bool) {
			for r, err := range manager.FetchAll(ctx, nil) {
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

// newCreateCard builds a sink creating one card per incoming item on the
// configured board and list, both addressed by name. The lookups happen on
// the first item, not at resolution time, so compiling a pipeline stays
// free of network calls.
func newCreateCard(ctx context.Context, cfg map[string]any) (any, error) {
	conn, err := connectionFrom(cfg)
	if err != nil {
		return nil, err
	}
	boardName, _ := cfg["board"].(string)
	listName, _ := cfg["list"].(string)
	if boardName == "" || listName == "" {
		return nil, fmt.Errorf("trello.create_card requires board and list options")
	}
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("trello.create_card expects a mapping item, got %T", item)
		}
		board, err := rest.NewManager(boards, conn, "").FetchOneBy(ctx, "name", boardName, nil)
		if err != nil {
			return nil, err
		}
		list, err := board.Nested(lists).FetchOneBy(ctx, "name", listName, nil)
		if err != nil {
			return nil, err
		}
		params := map[string]any{
			"idList": list.PrimaryKey(),
			"name":   fields["name"],
		}
		if desc, ok := fields["desc"]; ok {
			params["desc"] = desc
		}
		created, err := rest.NewManager(cards, conn, "").Create(ctx, params)
		if err != nil {
			return nil, err
		}
		return created.Data(), nil
	}), nil
}

func connectionFrom(cfg map[string]any) (*rest.Connection, error) {
	conn, ok := cfg["connector"].(*rest.Connection)
	if !ok {
		return nil, fmt.Errorf("stage requires a trello connector (got %T)", cfg["connector"])
	}
	return conn, nil
}
