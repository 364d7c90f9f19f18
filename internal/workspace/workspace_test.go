package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortsfit/shortsfit-api/internal/apperr"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "root"))
	require.NoError(t, err)
	return m
}

func TestNewManager_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "root")
	m, err := NewManager(root)
	require.NoError(t, err)

	fi, err := os.Stat(m.Root())
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestCreate_UniqueDirectories(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx)
	require.NoError(t, err)
	b, err := m.Create(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, a.Dir(), b.Dir())
	assert.True(t, strings.HasPrefix(a.Dir(), m.Root()))
	assert.True(t, strings.HasPrefix(b.Dir(), m.Root()))
}

func TestCreate_CancelledContext(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Create(ctx)
	require.Error(t, err)
}

func TestResolveWithin(t *testing.T) {
	m := newTestManager(t)
	ws, err := m.Create(context.Background())
	require.NoError(t, err)

	t.Run("plain name resolves inside", func(t *testing.T) {
		p, err := ws.ResolveWithin("input.mp4")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(ws.Dir(), "input.mp4"), p)
	})

	t.Run("traversal and separators rejected", func(t *testing.T) {
		for _, name := range []string{
			"", "..", "../escape.mp4", "a/b.mp4", `a\b.mp4`, "/etc/passwd", "..hidden",
		} {
			_, err := ws.ResolveWithin(name)
			require.Error(t, err, "name %q should be rejected", name)
			assert.Equal(t, apperr.CodeInvalidPath, apperr.CodeOf(err))
		}
	})
}

func TestStage(t *testing.T) {
	m := newTestManager(t)
	ws, err := m.Create(context.Background())
	require.NoError(t, err)

	path, err := ws.Stage(context.Background(), "input.mp4", strings.NewReader("payload"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	t.Run("duplicate name fails", func(t *testing.T) {
		_, err := ws.Stage(context.Background(), "input.mp4", strings.NewReader("other"))
		require.Error(t, err)
	})
}

func TestDestroy_Idempotent(t *testing.T) {
	m := newTestManager(t)
	ws, err := m.Create(context.Background())
	require.NoError(t, err)

	_, err = ws.Stage(context.Background(), "input.mp4", strings.NewReader("payload"))
	require.NoError(t, err)

	ws.Destroy()
	_, statErr := os.Stat(ws.Dir())
	assert.True(t, os.IsNotExist(statErr))

	// Destroying again must not panic or recreate anything.
	ws.Destroy()
	_, statErr = os.Stat(ws.Dir())
	assert.True(t, os.IsNotExist(statErr))
}
