package experiment

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultRoot   = "experiments"
	LatestSymlink = "latest"
)

// Dir is the output directory of one simulation run
type Dir struct {
	Path      string    // Absolute path to experiment directory
	ID        string    // Unique experiment identifier
	Timestamp time.Time // When the experiment was created
}

// Create makes a fresh experiment directory under root and points root/latest at it
func Create(root string) (*Dir, error) {
	if root == "" {
		root = DefaultRoot
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating experiments directory: %w", err)
	}

	now := time.Now().UTC()
	id := GenerateID(now)
	absPath, err := filepath.Abs(filepath.Join(root, id))
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	if err := os.Mkdir(absPath, 0755); err != nil {
		return nil, fmt.Errorf("creating experiment directory: %w", err)
	}

	latest := filepath.Join(root, LatestSymlink)
	_ = os.Remove(latest)
	if err := os.Symlink(id, latest); err != nil {
		// the run is still usable without the link
		log.Printf("Warning: failed to create latest symlink: %v", err)
	}

	return &Dir{Path: absPath, ID: id, Timestamp: now}, nil
}

// File returns the path of a file in the experiment directory
func (e *Dir) File(name string) string {
	return filepath.Join(e.Path, name)
}

// CopyFile copies srcPath into the experiment directory under its own name
func (e *Dir) CopyFile(srcPath string) error {
	content, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcPath, err)
	}
	if err := os.WriteFile(e.File(filepath.Base(srcPath)), content, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(srcPath), err)
	}
	return nil
}
