package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/fastygo/taskboard/internal/app"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	"github.com/fastygo/taskboard/pkg/authtoken"
	boltRepo "github.com/fastygo/taskboard/repository/bolt"
)

const testSecret = "cli-secret"

type testEnv struct {
	profilePath string
	httpClient  *fasthttp.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(envServer, "")
	t.Setenv(envToken, "")

	dir := t.TempDir()
	store, err := boltRepo.Open(filepath.Join(dir, "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := authtoken.NewManager(testSecret, "")
	require.NoError(t, err)

	cfg := &config.Config{Context: config.ContextConfig{RequestTimeout: time.Second}}
	server := &fasthttp.Server{Handler: app.NewHandler(app.Dependencies{
		Store:   store,
		Tokens:  tokens,
		Monitor: monitor.New(time.Minute, nil),
	}, cfg, nil)}

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.ShutdownWithContext(ctx)
	})

	return &testEnv{
		profilePath: filepath.Join(dir, "taskctl", "config.yaml"),
		httpClient: &fasthttp.Client{Dial: func(string) (net.Conn, error) {
			return ln.Dial()
		}},
	}
}

func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := &cli{
		in:         strings.NewReader(stdin),
		out:        &out,
		errOut:     &errOut,
		httpClient: e.httpClient,
	}
	cmd := newRootCmd(c)
	cmd.SetArgs(append([]string{"--config", e.profilePath, "--server", "http://taskboard.test"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

var idPattern = regexp.MustCompile(`(?m)^(\S+)\s+Buy milk`)

func TestTaskctl_Workflow(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "", "token", "--secret", testSecret, "--user", "u1", "--name", "Alice", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "saved token")

	profile, err := LoadProfile(env.profilePath)
	require.NoError(t, err)
	assert.NotEmpty(t, profile.Token)

	out, _, err = env.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Alice\n", out)

	out, _, err = env.run(t, "", "list")
	require.NoError(t, err)
	assert.Equal(t, "no tasks\n", out)

	out, _, err = env.run(t, "", "add", "--title", "Buy milk")
	require.NoError(t, err)
	assert.Equal(t, "Task created\n", out)

	out, _, err = env.run(t, "", "list")
	require.NoError(t, err)
	match := idPattern.FindStringSubmatch(out)
	require.Len(t, match, 2, out)
	id := match[1]

	out, _, err = env.run(t, "", "edit", id, "--description", "2%")
	require.NoError(t, err)
	assert.Equal(t, "Task updated\n", out)

	out, _, err = env.run(t, "", "list", "--filter", "2%")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy milk")

	out, _, err = env.run(t, "", "list", "--filter", "bread")
	require.NoError(t, err)
	assert.Equal(t, "no tasks\n", out)

	out, _, err = env.run(t, "n\n", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "aborted")

	out, _, err = env.run(t, "y\n", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Task deleted")

	_, errOut, err := env.run(t, "", "delete", id, "--yes")
	assert.Error(t, err)
	assert.Contains(t, errOut, "Delete failed")
}

func TestTaskctl_AddWithoutTitleFails(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "", "token", "--secret", testSecret, "--user", "u1", "--save")
	require.NoError(t, err)

	_, errOut, err := env.run(t, "", "add")
	assert.Error(t, err)
	assert.Contains(t, errOut, "Operation failed")
}

func TestTaskctl_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "", "list")
	assert.ErrorContains(t, err, "no token configured")
}

func TestTaskctl_LogoutForgetsToken(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "", "token", "--secret", testSecret, "--user", "u1", "--save")
	require.NoError(t, err)

	out, _, err := env.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "token forgotten")

	profile, err := LoadProfile(env.profilePath)
	require.NoError(t, err)
	assert.Empty(t, profile.Token)
}

func TestProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	profile, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultServer, profile.Server)

	profile.Token = "abc"
	require.NoError(t, profile.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, &Profile{Server: defaultServer, Token: "abc"}, loaded)

	t.Setenv(envServer, "http://env")
	t.Setenv(envToken, "env-token")
	loaded.Merge("", "")
	assert.Equal(t, "http://env", loaded.Server)
	assert.Equal(t, "env-token", loaded.Token)

	loaded.Merge("http://flag", "")
	assert.Equal(t, "http://flag", loaded.Server)
	assert.Equal(t, "env-token", loaded.Token)

	require.NoError(t, os.WriteFile(path, []byte("server: [broken"), 0o600))
	_, err = LoadProfile(path)
	assert.Error(t, err)
}
