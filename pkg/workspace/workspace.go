// Package workspace defines the on-disk layout of a picture-lab working
// directory and its picturelab.toml configuration.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// ConfigFileName is the configuration file marking a workspace root.
const ConfigFileName = "picturelab.toml"

// A Workspace is a directory holding assets and everything generated from
// them.
type Workspace struct {
	// Root is the directory containing the configuration file.
	Root string

	Config *Config
}

// Dir layout under the workspace root. The workbench holds intermediate
// files that can be regenerated at any time.
func (w *Workspace) AssetDir() string       { return filepath.Join(w.Root, "assets") }
func (w *Workspace) AssetInDir() string     { return filepath.Join(w.Root, ".assets-in") }
func (w *Workspace) SetDir() string         { return filepath.Join(w.Root, "sets") }
func (w *Workspace) SiteDir() string        { return filepath.Join(w.Root, "site") }
func (w *Workspace) WorkbenchDir() string   { return filepath.Join(w.Root, ".workbench") }
func (w *Workspace) RendererDir() string    { return filepath.Join(w.WorkbenchDir(), "renderers") }
func (w *Workspace) ComparisonDir() string  { return filepath.Join(w.WorkbenchDir(), "comparisons") }
func (w *Workspace) IngestWorkDir() string  { return filepath.Join(w.WorkbenchDir(), "ingest") }
func (w *Workspace) CacheDir() string       { return filepath.Join(w.WorkbenchDir(), "cache") }

// ConfigPath is the workspace's configuration file.
func (w *Workspace) ConfigPath() string { return filepath.Join(w.Root, ConfigFileName) }

// Init creates the workspace directories and writes a default configuration
// unless one already exists.
func Init(root string) (*Workspace, error) {
	w := &Workspace{Root: root, Config: DefaultConfig()}

	for _, dir := range []string{
		w.AssetDir(),
		w.AssetInDir(),
		w.SetDir(),
		w.WorkbenchDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileWrite, err, "failed to create %s", dir)
		}
	}

	if _, err := os.Stat(w.ConfigPath()); err == nil {
		loaded, err := LoadConfig(w.ConfigPath())
		if err != nil {
			return nil, err
		}
		w.Config = loaded
		return w, nil
	}
	if err := w.Config.Write(w.ConfigPath()); err != nil {
		return nil, err
	}
	return w, nil
}

// Find locates the workspace containing dir by walking up to the
// configuration file.
func Find(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid directory %q", dir)
	}
	for current := abs; ; current = filepath.Dir(current) {
		configPath := filepath.Join(current, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			config, err := LoadConfig(configPath)
			if err != nil {
				return nil, err
			}
			return &Workspace{Root: current, Config: config}, nil
		}
		if filepath.Dir(current) == current {
			return nil, errors.New(errors.ErrCodeWorkspaceNotFound,
				"no %s found in %q or any parent directory", ConfigFileName, dir)
		}
	}
}
