package web

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed static/*
var staticFS embed.FS

// StaticFS exposes the embedded static assets rooted at their serve path.
func StaticFS() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}

// CollectStatic copies the embedded static assets into dir so they can be
// served by an external web server or inspected on disk. It returns the
// number of files written.
func CollectStatic(dir string) (int, error) {
	assets, err := StaticFS()
	if err != nil {
		return 0, fmt.Errorf("open static assets: %w", err)
	}

	written := 0
	err = fs.WalkDir(assets, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(path))
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		content, err := fs.ReadFile(assets, path)
		if err != nil {
			return fmt.Errorf("read asset %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create asset dir for %s: %w", path, err)
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return fmt.Errorf("write asset %s: %w", path, err)
		}
		written++
		return nil
	})
	if err != nil {
		return written, err
	}
	return written, nil
}
