package trello_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskweave/internal/engine"
	"github.com/vk/taskweave/internal/registry"
	"github.com/vk/taskweave/modules/trello"
)

func newCreateCardSink(t *testing.T, baseURL string) engine.Func {
	t.Helper()
	r := registry.New()
	(&trello.Module{}).Register(r)
	factory, ok := r.Connector("trello")
	require.True(t, ok)
	conn, err := factory("personal", map[string]any{
		"api_key":   "k",
		"api_token": "s",
		"url":       baseURL,
	})
	require.NoError(t, err)

	stageFactory, ok := r.Stage("trello.create_card")
	require.True(t, ok)
	stage, err := stageFactory(context.Background(), map[string]any{
		"connector": conn,
		"board":     "Chores",
		"list":      "Inbox",
	})
	require.NoError(t, err)
	return stage.(engine.Func)
}

func TestCreateCard_ResolvesNamesOncePerRun(t *testing.T) {
	var mu sync.Mutex
	hits := make(map[string]int)
	var created []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		require.Equal(t, "k", r.URL.Query().Get("key"))
		require.Equal(t, "s", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/members/me/boards":
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": "b1", "name": "Groceries"},
				{"id": "b2", "name": "Chores"},
			})
		case "/boards/b2/lists":
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": "l1", "name": "Inbox"},
			})
		case "/cards":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			created = append(created, body)
			mu.Unlock()
			body["id"] = "c1"
			json.NewEncoder(w).Encode(body)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	sink := newCreateCardSink(t, srv.URL)

	out, err := sink(context.Background(), map[string]any{"name": "buy milk", "desc": "2 liters"})
	require.NoError(t, err)
	require.Equal(t, "c1", out.(map[string]any)["id"])

	_, err = sink(context.Background(), map[string]any{"name": "call plumber"})
	require.NoError(t, err)

	// The second card reuses the alias cache for board and list; only the
	// create endpoint is hit again. Lists hang off the single-board route,
	// not the member listing the board was found through.
	require.Equal(t, 1, hits["/members/me/boards"])
	require.Equal(t, 1, hits["/boards/b2/lists"])
	require.Equal(t, 2, hits["/cards"])

	require.Len(t, created, 2)
	require.Equal(t, "l1", created[0]["idList"])
	require.Equal(t, "buy milk", created[0]["name"])
	require.Equal(t, "2 liters", created[0]["desc"])
	require.NotContains(t, created[1], "desc")
}

func TestCreateCard_UnknownBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{"id": "b1", "name": "Groceries"}})
	}))
	defer srv.Close()

	sink := newCreateCardSink(t, srv.URL)
	_, err := sink(context.Background(), map[string]any{"name": "buy milk"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Chores")
}

func TestConnect_RequiresCredentials(t *testing.T) {
	r := registry.New()
	(&trello.Module{}).Register(r)
	factory, _ := r.Connector("trello")

	_, err := factory("personal", map[string]any{"api_key": "k"})
	require.Error(t, err)
	_, err = factory("personal", map[string]any{"api_token": "s"})
	require.Error(t, err)
}
