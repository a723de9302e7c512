package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/guineapal/internal/auth"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

var fixedNow = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

// env is an isolated config and data directory pair.
type env struct {
	t         *testing.T
	configDir string
	dataDir   string
	ticks     int
}

func newEnv(t *testing.T, backend string) *env {
	t.Helper()
	for _, k := range []string{"GUINEAPAL_DSN", "GUINEAPAL_LOG_LEVEL", "GUINEAPAL_LOG_FORMAT", "GUINEAPAL_DATA_DIR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("GUINEAPAL_BACKEND", backend)
	t.Setenv("GUINEAPAL_SECRETS", types.SecretsStore)
	return &env{t: t, configDir: t.TempDir(), dataDir: t.TempDir()}
}

// run executes one guineapal invocation and returns its stdout.
func (e *env) run(args ...string) (string, error) {
	e.t.Helper()
	c := newCLI()
	// Generated ids are millisecond timestamps, so the clock must advance.
	c.now = func() time.Time {
		e.ticks++
		return fixedNow.Add(time.Duration(e.ticks) * time.Millisecond)
	}
	var out bytes.Buffer
	c.root.SetOut(&out)
	c.root.SetErr(io.Discard)
	all := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	err := c.execute(all)
	return out.String(), err
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "guineapal %v", args)
	return out
}

func TestVersion(t *testing.T) {
	e := newEnv(t, types.BackendMemory)
	out := e.mustRun("version")
	assert.Contains(t, out, "guineapal v"+version)
	assert.Contains(t, out, modulePath)
}

func TestInit_WritesConfigOnce(t *testing.T) {
	e := newEnv(t, types.BackendJSONL)

	out := e.mustRun("init", "--backend", types.BackendJSONL)
	assert.Contains(t, out, "GuineaPal initialized successfully")
	assert.Contains(t, out, "(created)")
	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))

	out = e.mustRun("init", "--backend", types.BackendJSONL)
	assert.NotContains(t, out, "(created)")
}

func TestPetLifecycle(t *testing.T) {
	for _, backend := range []string{types.BackendSQLite, types.BackendJSONL} {
		t.Run(backend, func(t *testing.T) {
			e := newEnv(t, backend)

			out := e.mustRun("pet", "add", "--id", "p1", "--name", "Hazel", "--gender", "female", "--birth", "2023-03-01")
			assert.Equal(t, "Added Hazel (p1)\n", out)

			out = e.mustRun("--json", "pet", "list")
			var pets []types.Pet
			require.NoError(t, json.Unmarshal([]byte(out), &pets))
			require.Len(t, pets, 1)
			assert.Equal(t, "Hazel", pets[0].Name)
			assert.Equal(t, "female", pets[0].Gender)

			e.mustRun("pet", "update", "p1", "--breed", "Abyssinian")
			out = e.mustRun("pet", "show", "p1")
			assert.Contains(t, out, "Hazel (p1)")
			assert.Contains(t, out, "Abyssinian")

			out = e.mustRun("pet", "delete", "p1")
			assert.Contains(t, out, "Deleted pet p1")
			out = e.mustRun("pet", "list")
			assert.Contains(t, out, "No pets yet")
		})
	}
}

func TestPetAdd_Errors(t *testing.T) {
	e := newEnv(t, types.BackendJSONL)
	e.mustRun("pet", "add", "--id", "p1", "--name", "Hazel")

	_, err := e.run("pet", "add", "--id", "p1", "--name", "Again")
	require.ErrorIs(t, err, types.ErrDuplicateID)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = e.run("pet", "add", "--id", "p2")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err), "missing --name")

	_, err = e.run("pet", "show", "nope")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestRecords_WeightTrend(t *testing.T) {
	e := newEnv(t, types.BackendSQLite)
	e.mustRun("pet", "add", "--id", "p1", "--name", "Hazel")

	e.mustRun("weight", "add", "p1", "--grams", "1000", "--date", "2024-06-01")
	e.mustRun("weight", "add", "p1", "--grams", "900", "--date", "2024-06-10")

	out := e.mustRun("weight", "list", "p1")
	assert.Contains(t, out, "2024-06-10")
	assert.Contains(t, out, "900.0 g")

	_, err := e.run("weight", "add", "ghost", "--grams", "900")
	require.ErrorIs(t, err, types.ErrPetNotFound)
}

func TestFamily_LinkAndTree(t *testing.T) {
	e := newEnv(t, types.BackendJSONL)
	e.mustRun("pet", "add", "--id", "mum", "--name", "Clover", "--gender", "female")
	e.mustRun("pet", "add", "--id", "pup", "--name", "Pip")

	out := e.mustRun("family", "link", "pup", "mother", "mum")
	assert.Contains(t, out, "Linked mum as mother of pup")

	out = e.mustRun("family", "tree", "pup")
	assert.Contains(t, out, "mother:   Clover (mum)")

	out = e.mustRun("family", "tree", "mum")
	assert.Contains(t, out, "children: Pip (pup)")

	_, err := e.run("family", "link", "pup", "cousin", "mum")
	require.ErrorIs(t, err, types.ErrUnknownRelation)
}

func TestAuthAndForum(t *testing.T) {
	e := newEnv(t, types.BackendSQLite)

	_, err := e.run("forum", "post", "--title", "Hi", "--content", "hello")
	require.ErrorIs(t, err, types.ErrNotAuthenticated)

	_, err = e.run("auth", "login", "--email", auth.DefaultEmail, "--password", "wrong")
	require.ErrorIs(t, err, types.ErrIncorrectPassword)

	out := e.mustRun("auth", "login", "--email", auth.DefaultEmail, "--password", auth.DefaultPassword)
	assert.Contains(t, out, "Logged in as "+auth.DefaultUsername)

	out = e.mustRun("auth", "whoami")
	assert.Contains(t, out, auth.DefaultEmail)

	out = e.mustRun("--json", "forum", "post", "--title", "Hay tips", "--content", "Timothy first", "--tags", "diet")
	var post types.ForumPost
	require.NoError(t, json.Unmarshal([]byte(out), &post))
	assert.Equal(t, "Hay tips", post.Title)

	e.mustRun("forum", "like", post.ID)
	out = e.mustRun("forum", "list", "--tag", "diet")
	assert.Contains(t, out, "Hay tips")

	out = e.mustRun("gram", "list")
	assert.Contains(t, out, "No posts yet.")

	e.mustRun("auth", "logout")
	_, err = e.run("auth", "whoami")
	require.ErrorIs(t, err, types.ErrNotAuthenticated)
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := newEnv(t, types.BackendJSONL)
	src.mustRun("pet", "add", "--id", "p1", "--name", "Hazel")
	src.mustRun("auth", "login", "--email", auth.DefaultEmail, "--password", auth.DefaultPassword)

	dump := filepath.Join(t.TempDir(), "dump.jsonl")
	out := src.mustRun("export", "--out", dump)
	assert.Contains(t, out, "Exported")

	raw, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), fmt.Sprintf("%q", types.KeyAuthToken))

	dst := &env{t: t, configDir: src.configDir, dataDir: t.TempDir()}
	out = dst.mustRun("import", dump)
	assert.Contains(t, out, "Imported")

	out = dst.mustRun("pet", "list")
	assert.Contains(t, out, "Hazel")
}

func TestReconcile_CleanStore(t *testing.T) {
	e := newEnv(t, types.BackendMemory)
	out := e.mustRun("reconcile", "--dry-run")
	assert.Equal(t, "Nothing to reconcile.\n", out)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"usage", usageError{errors.New("accepts 1 arg(s)")}, exitUserError},
		{"sentinel", fmt.Errorf("pet %q: %w", "x", types.ErrNotFound), exitUserError},
		{"unknown command", errors.New(`unknown command "nope" for "guineapal"`), exitUserError},
		{"required flag", errors.New(`required flag(s) "name" not set`), exitUserError},
		{"system", errors.New("disk on fire"), exitSysError},
		{"joined", errors.Join(types.ErrInvalidDate, nil), exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	e := newEnv(t, types.BackendMemory)
	_, err := e.run("hamster")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}
