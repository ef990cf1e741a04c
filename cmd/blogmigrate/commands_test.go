package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gopherblog/internal/client/config"
	"github.com/dmitrijs2005/gopherblog/internal/client/store/storetest"
	"github.com/dmitrijs2005/gopherblog/internal/logging"
	"github.com/dmitrijs2005/gopherblog/internal/schema"
)

type harness struct {
	srv *storetest.Server
	dsn string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := storetest.New(t)
	srv.AddSuperuser("admin@example.com", "secret-password")
	t.Setenv(config.EnvAdminIdentity, "admin@example.com")
	t.Setenv(config.EnvAdminPassword, "secret-password")
	return &harness{srv: srv, dsn: filepath.Join(t.TempDir(), "state.db")}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCommand(out, logging.Discard())
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"-s", h.srv.URL, "--state", h.dsn}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUpDownAndStatus(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "version 0\n", out)

	out, err = h.run(t, "up")
	require.NoError(t, err)
	assert.Contains(t, out, "up   1769621111_create_categories_collection")
	assert.Contains(t, out, "up   1769621601_create_images_collection")
	assert.True(t, h.srv.HasCollection(schema.ImagesCollection))
	assert.Len(t, h.srv.Records(schema.CategoriesCollection), 9)

	out, err = h.run(t, "up")
	require.NoError(t, err)
	assert.Equal(t, "no pending changes\n", out)

	out, err = h.run(t, "down")
	require.NoError(t, err)
	assert.Contains(t, out, "down 1769621601_create_images_collection")
	assert.False(t, h.srv.HasCollection(schema.ImagesCollection))

	out, err = h.run(t, "status")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "Applied At"))
	assert.NotContains(t, lines[1], "Pending")
	assert.True(t, strings.HasPrefix(lines[4], "Pending"), lines[4])

	out, err = h.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "version 1769621130\n", out)

	_, err = h.run(t, "down-to", "0")
	require.NoError(t, err)
	assert.False(t, h.srv.HasCollection(schema.CategoriesCollection))
	assert.False(t, h.srv.HasCollection(schema.ArticlesCollection))
}

func TestDownTo_RejectsBadVersion(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "down-to", "latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestMissingCredentials(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvAdminPassword, "")

	_, err := h.run(t, "up")
	require.ErrorIs(t, err, errMissingCredentials)
	assert.False(t, h.srv.HasCollection(schema.CategoriesCollection))
}

func TestWrongPassword(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvAdminPassword, "nope")

	_, err := h.run(t, "up")
	require.Error(t, err)
	assert.False(t, h.srv.HasCollection(schema.CategoriesCollection))
}

func TestLoadArgs_OnlyChangedFlags(t *testing.T) {
	cmd := newRootCommand(&bytes.Buffer{}, logging.Discard())
	require.NoError(t, cmd.PersistentFlags().Parse([]string{"-s", "http://store:8090", "--timeout", "3"}))

	assert.Equal(t, []string{"-s", "http://store:8090", "-t", "3"}, loadArgs(cmd))
}
