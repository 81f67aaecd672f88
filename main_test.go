package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/gitlab-gantt/pkg/collect"
	"github.com/harrisonrobin/gitlab-gantt/pkg/config"
)

const (
	testToken  = "glpat-test"
	acmeGroups = `[{"id": 1, "name": "Acme", "path": "acme", "full_path": "acme",
		"web_url": "https://gitlab.example.com/groups/acme"}]`
)

func newGitLab(t *testing.T, groups string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	reply := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+testToken {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message": "401 Unauthorized"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}
	}

	mux.HandleFunc("GET /api/v4/user", reply(`{"id": 1, "username": "ci"}`))
	mux.HandleFunc("GET /api/v4/groups", reply(groups))
	mux.HandleFunc("GET /api/v4/groups/1/milestones", reply(`[
		{"id": 11, "iid": 1, "group_id": 1, "title": "Release 2024", "start_date": "2024-01-01", "due_date": "2024-12-31",
		 "created_at": "2023-12-01T10:00:00Z"}
	]`))
	mux.HandleFunc("GET /api/v4/groups/1/projects", reply(`[
		{"id": 100, "name": "api", "created_at": "2022-01-01T00:00:00Z"}
	]`))
	mux.HandleFunc("GET /api/v4/projects/100/milestones", reply(`[
		{"id": 30, "title": "v1", "start_date": "2024-02-01", "due_date": null,
		 "created_at": "2024-01-20T10:00:00Z", "web_url": "https://gitlab.example.com/acme/api/-/milestones/3"}
	]`))
	mux.HandleFunc("GET /api/v4/projects/100/milestones/30/issues", reply(`[
		{"id": 1, "title": "Fix login", "state": "opened", "due_date": "2024-03-10",
		 "created_at": "2024-01-01T00:00:00Z", "web_url": "https://gitlab.example.com/acme/api/-/issues/1"},
		{"id": 2, "title": "Won't fix", "state": "closed", "due_date": null,
		 "created_at": "2024-01-01T00:00:00Z", "web_url": "https://gitlab.example.com/acme/api/-/issues/2"}
	]`))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir, instance string) string {
	t.Helper()
	return writeConfigToken(t, dir, instance, testToken)
}

func writeConfigToken(t *testing.T, dir, instance, token string) string {
	t.Helper()
	for _, k := range []string{config.EnvToken, config.EnvInstance, config.EnvGroup} {
		t.Setenv(k, "")
	}
	path := filepath.Join(dir, "config.ini")
	content := "[gitlab]\nPersonalAccessToken = " + token + "\nInstance = " + instance + "\nGroup = acme\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRun(t *testing.T) {
	srv := newGitLab(t, acmeGroups)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, srv.URL)
	out := filepath.Join(dir, "chart.html")

	stdout, err := execute(t, "-c", cfgPath, "-o", out, "--now", "2024-03-01", "-v")
	require.NoError(t, err)

	for _, want := range []string{"Release 2024", "api/v1", "Fix login", "2024-03-09", "2025-03-01", "Group Milestone"} {
		assert.Contains(t, stdout, want)
	}
	assert.NotContains(t, stdout, "Won't fix")

	html, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<title>acme</title>")
	assert.Contains(t, string(html), "https://gitlab.example.com/acme/api/-/issues/1")
	assert.Contains(t, string(html), "https://gitlab.example.com/groups/acme/-/milestones/1")
	assert.NotContains(t, string(html), "issues/2")
}

func TestRun_QuietByDefault(t *testing.T) {
	srv := newGitLab(t, acmeGroups)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, srv.URL)

	stdout, err := execute(t, "--config", cfgPath, "--output", filepath.Join(dir, "g.html"), "--title", "Roadmap")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	html, err := os.ReadFile(filepath.Join(dir, "g.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<title>Roadmap</title>")
}

func TestRun_IncompleteConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")
	out := filepath.Join(dir, "gantt.html")

	_, err := execute(t, "-c", filepath.Join(dir, "config.ini"), "-o", out)
	assert.ErrorIs(t, err, config.ErrIncomplete)
	assert.NoFileExists(t, out)
}

func TestRun_GroupNotFound(t *testing.T) {
	srv := newGitLab(t, `[]`)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, srv.URL)
	out := filepath.Join(dir, "gantt.html")

	_, err := execute(t, "-c", cfgPath, "-o", out)
	assert.ErrorIs(t, err, collect.ErrGroupNotFound)
	assert.NoFileExists(t, out)
}

func TestRun_RejectedToken(t *testing.T) {
	srv := newGitLab(t, acmeGroups)
	dir := t.TempDir()
	cfgPath := writeConfigToken(t, dir, srv.URL, "glpat-revoked")
	out := filepath.Join(dir, "gantt.html")

	_, err := execute(t, "-c", cfgPath, "-o", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication against "+srv.URL+" failed")
	assert.Contains(t, err.Error(), "401 Unauthorized")
	assert.NoFileExists(t, out)
}

func TestRun_InvalidNow(t *testing.T) {
	_, err := execute(t, "--now", "tomorrow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--now")
}

func TestRootCmd_Defaults(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, config.DefaultFile, cmd.Flags().Lookup("config").DefValue)
	assert.Equal(t, "c", cmd.Flags().Lookup("config").Shorthand)
	assert.Equal(t, defaultOutput, cmd.Flags().Lookup("output").DefValue)
	assert.Equal(t, "o", cmd.Flags().Lookup("output").Shorthand)
	assert.Equal(t, "false", cmd.Flags().Lookup("verbose").DefValue)
	assert.Equal(t, "v", cmd.Flags().Lookup("verbose").Shorthand)
}

func TestDiagnostic(t *testing.T) {
	tests := []struct {
		err   error
		first string
	}{
		{fmt.Errorf("%w: [gitlab] Group not set", config.ErrIncomplete), "Missing or incomplete configuration file"},
		{fmt.Errorf("%w: no group matches 'ghost'", collect.ErrGroupNotFound), "Group not found or API permissions missing"},
		{errors.New("could not write chart"), "Error: could not write chart"},
	}
	for _, tt := range tests {
		msg := diagnostic(tt.err)
		first, _, _ := strings.Cut(msg, "\n")
		assert.Equal(t, tt.first, first)
		assert.Contains(t, msg, tt.err.Error())
	}
}
