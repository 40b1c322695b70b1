package cli

import (
	"os"
	"path/filepath"
)

// Paths resolves the directories intone keeps under ~/.intone.
type Paths struct {
	HomeDir string
}

// NewPaths returns the paths for the current user.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns ~/.intone.
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns ~/.intone/config.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// LibraryDir returns the exercise library database directory.
func (p *Paths) LibraryDir() string {
	return filepath.Join(p.BaseDir(), "library")
}

// RenderDir returns the default destination for rendered files.
func (p *Paths) RenderDir() string {
	return filepath.Join(p.BaseDir(), "renders")
}

// EnsureDir creates dir with parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
