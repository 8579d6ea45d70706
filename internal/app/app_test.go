package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskweave/internal/app"
	"github.com/vk/taskweave/internal/engine"
)

type fixture struct {
	app          *app.App
	out          *bytes.Buffer
	templateDir  string
	jobDir       string
	connectorsIn string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		out:          &bytes.Buffer{},
		templateDir:  t.TempDir(),
		jobDir:       t.TempDir(),
		connectorsIn: filepath.Join(t.TempDir(), "connectors.yaml"),
	}
	f.app = app.NewApp(f.out, &app.Config{
		TemplateDirs:   []string{f.templateDir},
		JobDirs:        []string{f.jobDir},
		ConnectorsPath: f.connectorsIn,
		LogFormat:      "text",
		LogLevel:       "error",
	})
	return f
}

func (f *fixture) writeTemplate(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.templateDir, name+".yaml"), []byte(content), 0o644))
}

const greetTemplate = `
description: prints a greeting
spec:
  functionRef:
    path: core.print
    who:
      parameterRef: who
`

func TestApp_ListTemplates(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.app.ListTemplates())
	require.Contains(t, f.out.String(), "No templates available.")

	f.out.Reset()
	f.writeTemplate(t, "greet", greetTemplate)
	require.NoError(t, f.app.ListTemplates())
	require.Contains(t, f.out.String(), "greet")
	require.Contains(t, f.out.String(), "prints a greeting")
}

func TestApp_JobLifecycle(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "greet", greetTemplate)

	// Creation validates required parameters up front.
	err := f.app.CreateJob("hello", "", "greet", nil, "")
	var missing *engine.ParameterMissingError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "who", missing.Name)

	require.NoError(t, f.app.CreateJob("hello", "say hi", "greet", nil, "who: alice"))
	require.Contains(t, f.out.String(), "Created job 'hello'")

	f.out.Reset()
	require.NoError(t, f.app.ListJobs(true))
	require.Equal(t, "hello\n", f.out.String())

	f.out.Reset()
	require.NoError(t, f.app.ListJobs(false))
	require.Contains(t, f.out.String(), "say hi")
	require.Contains(t, f.out.String(), "greet")

	require.NoError(t, f.app.RunJob(context.Background(), "hello"))

	f.out.Reset()
	require.NoError(t, f.app.DeleteJob("hello"))
	require.Contains(t, f.out.String(), "Deleted job 'hello'")
	require.Error(t, f.app.RunJob(context.Background(), "hello"))
}

func TestApp_CreateJobMergesValues(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "greet", greetTemplate)

	valuesDir := t.TempDir()
	base := filepath.Join(valuesDir, "base.yaml")
	require.NoError(t, os.WriteFile(base, []byte("who: base\nextra: kept\n"), 0o644))

	// The inline document is merged last and wins.
	require.NoError(t, f.app.CreateJob("hello", "", "greet", []string{base}, "who: override"))

	raw, err := os.ReadFile(filepath.Join(f.jobDir, "hello.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "who: override")
	require.Contains(t, string(raw), "extra: kept")
}

func TestApp_RunJobAgainstService(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "/issues", r.URL.Path)
		require.Equal(t, "token t0k3n", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"number": 1, "title": "first"},
			{"number": 2, "title": "second"},
		})
	}))
	defer srv.Close()

	f := newFixture(t)
	f.writeTemplate(t, "assigned", `
description: my assigned issues
spec:
  functionRef:
    path: github.issues_assigned_to_user
    connector:
      connectorRef: work
`)
	require.NoError(t, os.WriteFile(f.connectorsIn, []byte(`
connectors:
  - name: work
    type: github
    options:
      api_token: t0k3n
      url: `+srv.URL+"\n"), 0o644))

	require.NoError(t, f.app.CreateJob("sweep", "", "assigned", nil, ""))
	require.NoError(t, f.app.RunJob(context.Background(), "sweep"))
	require.Equal(t, 1, requests)
}

func TestApp_SourcesListsPrecedence(t *testing.T) {
	f := newFixture(t)
	f.app.Sources()
	require.Contains(t, f.out.String(), f.templateDir)
	require.Contains(t, f.out.String(), f.jobDir)
	require.Contains(t, f.out.String(), f.connectorsIn)
}
