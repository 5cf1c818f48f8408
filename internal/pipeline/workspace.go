package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is the per-run scratch tree. Close removes it and is safe to
// call more than once.
type Workspace struct {
	Root    string
	Assets  string // downloaded release assets
	Extract string // per-asset extraction directories
}

// NewWorkspace creates a fresh scratch tree under parent (the system temp
// directory when parent is empty).
func NewWorkspace(parent string) (*Workspace, error) {
	root, err := os.MkdirTemp(parent, "npmship-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	ws := &Workspace{
		Root:    root,
		Assets:  filepath.Join(root, "assets"),
		Extract: filepath.Join(root, "extract"),
	}
	for _, dir := range []string{ws.Assets, ws.Extract} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			_ = ws.Close()
			return nil, fmt.Errorf("create scratch dir: %w", err)
		}
	}
	return ws, nil
}

// Close removes the scratch tree.
func (w *Workspace) Close() error {
	if w == nil || w.Root == "" {
		return nil
	}
	if err := os.RemoveAll(w.Root); err != nil {
		return fmt.Errorf("remove scratch dir: %w", err)
	}
	w.Root = ""
	return nil
}
