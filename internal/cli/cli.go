// Package cli implements the picturelab command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/MrLixm/picture-lab-lxm/pkg/buildinfo"
	"github.com/MrLixm/picture-lab-lxm/pkg/cache"
	"github.com/MrLixm/picture-lab-lxm/pkg/comparison"
	"github.com/MrLixm/picture-lab-lxm/pkg/download"
	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/httputil"
	"github.com/MrLixm/picture-lab-lxm/pkg/renderer"
	"github.com/MrLixm/picture-lab-lxm/pkg/workspace"
)

// appName is the application name used for directories and display.
const appName = "picturelab"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// noCache forces the null cache backend regardless of configuration.
	// Bound to the --no-cache persistent flag.
	noCache bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "Picturelab compares picture formation algorithms on test imagery",
		Long:         `Picturelab is a CLI tool for comparing picture formation algorithms (AgX, TCAM, ACES, ...) applied to a library of test images, and publishing the results as a static comparison website.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the render cache")

	root.AddCommand(c.initCommand())
	root.AddCommand(c.assetCommand())
	root.AddCommand(c.rendererCommand())
	root.AddCommand(c.comparisonCommand())
	root.AddCommand(c.setCommand())
	root.AddCommand(c.siteCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Workspace
// =============================================================================

// openWorkspace locates the enclosing workspace from the current directory.
func openWorkspace() (*workspace.Workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cannot determine current directory")
	}
	return workspace.Find(cwd)
}

// =============================================================================
// Cache Factory
// =============================================================================

// redisEnvVar points at a shared Redis cache, overriding the configured
// backend. Render-farm jobs set it without editing the workspace
// configuration.
const redisEnvVar = "PICTURELAB_REDIS"

// newStore creates the cache backend and keyer selected by the workspace
// configuration. The --no-cache flag overrides everything with a null cache.
func (c *CLI) newStore(ctx context.Context, ws *workspace.Workspace) (cache.Cache, cache.Keyer, error) {
	if c.noCache {
		return cache.NewNullCache(), cache.NewDefaultKeyer(), nil
	}

	cfg := ws.Config.Cache
	if addr := os.Getenv(redisEnvVar); addr != "" && cfg.Backend != "none" {
		return newRedisStore(ctx, ws, addr)
	}

	switch cfg.Backend {
	case "none":
		return cache.NewNullCache(), cache.NewDefaultKeyer(), nil
	case "redis":
		return newRedisStore(ctx, ws, cfg.RedisAddr)
	default:
		store, err := cache.NewFileCache(cacheDir(ws))
		if err != nil {
			return nil, nil, err
		}
		return store, cache.NewDefaultKeyer(), nil
	}
}

func newRedisStore(ctx context.Context, ws *workspace.Workspace, addr string) (cache.Cache, cache.Keyer, error) {
	cfg := ws.Config.Cache
	store, err := cache.NewRedisCache(ctx, addr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	// Redis is shared between workspaces; scope the keys per workspace.
	keyer := cache.NewScopedKeyer(nil, "ws:"+filepath.Base(ws.Root)+":")
	return store, keyer, nil
}

// cacheDir returns the file cache directory for a workspace.
func cacheDir(ws *workspace.Workspace) string {
	if ws.Config.Cache.Dir != "" {
		return ws.Config.Cache.Dir
	}
	return ws.CacheDir()
}

// httpCacheTTL bounds how long downloaded upstream responses stay valid.
const httpCacheTTL = 30 * 24 * time.Hour

// newDownloader creates the download client. Upstream responses are cached
// under the workspace cache directory so rebuilds do not re-fetch unchanged
// OCIO configs and LUT archives; --no-cache and the "none" backend disable
// that.
func (c *CLI) newDownloader(ws *workspace.Workspace, keyer cache.Keyer) (*download.Client, error) {
	dl := download.NewClient(nil)
	if c.noCache || ws.Config.Cache.Backend == "none" {
		return dl, nil
	}
	responses, err := httputil.NewCache(filepath.Join(cacheDir(ws), "http"), httpCacheTTL)
	if err != nil {
		return nil, err
	}
	return dl.WithCache(responses, keyer), nil
}

// =============================================================================
// Renderers
// =============================================================================

// loadRenderers reads built renderer descriptions from the workspace.
// An empty filter means all built renderers; names match the renderer id.
func loadRenderers(ws *workspace.Workspace, only []string) ([]*renderer.Renderer, error) {
	entries, err := os.ReadDir(ws.RendererDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound,
				"no renderers built yet, run %q first", appName+" renderer build")
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cannot browse %s", ws.RendererDir())
	}

	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[name] = true
	}

	var renderers []*renderer.Renderer
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if len(wanted) > 0 && !wanted[entry.Name()] {
			continue
		}
		jsonPath := filepath.Join(ws.RendererDir(), entry.Name(), entry.Name()+".json")
		if _, err := os.Stat(jsonPath); err != nil {
			continue
		}
		r, err := renderer.Read(jsonPath)
		if err != nil {
			return nil, err
		}
		renderers = append(renderers, r)
		delete(wanted, entry.Name())
	}

	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for name := range wanted {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return nil, errors.New(errors.ErrCodeRendererNotFound,
			"renderer(s) %s not built, run %q first",
			strings.Join(missing, ", "), appName+" renderer build")
	}
	if len(renderers) == 0 {
		return nil, errors.New(errors.ErrCodeRendererNotFound,
			"no renderers built yet, run %q first", appName+" renderer build")
	}

	sort.Slice(renderers, func(i, j int) bool { return renderers[i].Filename < renderers[j].Filename })
	return renderers, nil
}

// =============================================================================
// Generators
// =============================================================================

// configGenerators builds the comparison generators enabled by the workspace
// configuration.
func configGenerators(cfg workspace.ComparisonConfig) []comparison.Generator {
	generators := []comparison.Generator{
		comparison.ExposureBands{BandOffset: cfg.ExposuresOffset},
	}
	if cfg.FullHeight > 0 {
		generators = append(generators, comparison.Full{MaxHeight: cfg.FullHeight})
	}
	return generators
}

// parseList splits a comma-separated flag value, dropping empty items.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
