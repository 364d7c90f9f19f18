// Package workspace manages request-scoped staging directories under a
// single configured temp root. Each request owns exactly one workspace;
// uniqueness of directory names is the only cross-request coordination
// needed, so no locking is involved.
package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/shortsfit/shortsfit-api/internal/apperr"
)

// Manager allocates workspaces under a fixed temp root.
type Manager struct {
	root string
}

// NewManager creates a Manager rooted at root, creating the directory if
// it does not exist. If root is empty, a subdirectory of os.TempDir() is
// used.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "shortsfit")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create temp root: %w", err)
	}
	return &Manager{root: root}, nil
}

// Root returns the temp root path.
func (m *Manager) Root() string {
	return m.root
}

// Create allocates a uniquely named workspace directory under the root.
func (m *Manager) Create(ctx context.Context) (*Workspace, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	dir := filepath.Join(m.root, "ws-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Workspace is an exclusively owned, request-scoped staging directory.
type Workspace struct {
	dir string
}

// Dir returns the workspace directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// ResolveWithin returns the absolute path for name inside the workspace.
// It rejects names that carry directory components or traversal sequences.
func (w *Workspace) ResolveWithin(name string) (string, error) {
	if name == "" {
		return "", apperr.New(apperr.CodeInvalidPath, "empty file name")
	}
	if strings.ContainsAny(name, "/\\") || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", apperr.New(apperr.CodeInvalidPath, "file name escapes workspace")
	}

	resolved := filepath.Join(w.dir, name)
	rel, err := filepath.Rel(w.dir, resolved)
	if err != nil || rel != name {
		return "", apperr.New(apperr.CodeInvalidPath, "file name escapes workspace")
	}
	return resolved, nil
}

// Stage writes data to name inside the workspace and returns the staged
// path. The partial file is removed on write failure.
func (w *Workspace) Stage(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	dst, err := w.ResolveWithin(name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304 - dst is confined to the workspace
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return dst, nil
}

// Destroy recursively removes the workspace. It is idempotent and
// best-effort: cleanup never blocks or fails the response, so errors are
// deliberately discarded.
func (w *Workspace) Destroy() {
	_ = os.RemoveAll(w.dir)
}
