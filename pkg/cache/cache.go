// Package cache provides pluggable caching for expensive pipeline work:
// downloaded renderer resources, HTTP responses and rendered image metadata.
//
// Backends are file-based for CLI usage, Redis for shared render farms, and
// a null cache for disabling caching entirely. Keys are generated through a
// Keyer so every consumer hashes its inputs the same way.
package cache

import (
	"context"
	"time"
)

// Cache stores arbitrary byte payloads under string keys with optional TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// found and still fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// RendererKeyOpts captures the inputs that make a built renderer unique.
// Any change to these invalidates previously cached builds.
type RendererKeyOpts struct {
	SourceURL string // Where the OCIO config or LUT archive was fetched from
	Version   string // Upstream release tag or commit
}

// RenderKeyOpts captures the inputs that make a rendered comparison image
// unique. The args hash covers the full oiiotool invocation.
type RenderKeyOpts struct {
	Renderer  string // Renderer name, e.g. "AgX" or "TCAMv3"
	Generator string // Image generator, e.g. "exposures" or "full"
	ArgsHash  string // Hash of the composed oiiotool arguments
}

// MosaicKeyOpts captures the inputs that make a set mosaic unique.
type MosaicKeyOpts struct {
	Assets   []string // Identifiers of every asset in the mosaic, in order
	Columns  int      // Grid column count
	TileSize string   // Tile dimensions, e.g. "1102x752"
}

// Keyer generates cache keys for the pipeline's cacheable stages.
// Implementations must be deterministic: identical inputs always produce
// identical keys.
type Keyer interface {
	// HTTPKey generates a key for a cached HTTP response.
	HTTPKey(namespace, url string) string

	// RendererKey generates a key for a built renderer's resources.
	RendererKey(name string, opts RendererKeyOpts) string

	// RenderKey generates a key for a rendered comparison image.
	RenderKey(assetID string, opts RenderKeyOpts) string

	// MosaicKey generates a key for an assembled set mosaic.
	MosaicKey(setID string, opts MosaicKeyOpts) string
}

// DefaultKeyer is the standard Keyer implementation using SHA-256 hashing.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, url string) string {
	return "http:" + namespace + ":" + url
}

// RendererKey generates a key for a built renderer's resources.
func (k *DefaultKeyer) RendererKey(name string, opts RendererKeyOpts) string {
	return hashKey("renderer:"+name, opts.SourceURL, opts.Version)
}

// RenderKey generates a key for a rendered comparison image.
func (k *DefaultKeyer) RenderKey(assetID string, opts RenderKeyOpts) string {
	return hashKey("render:"+assetID, opts.Renderer, opts.Generator, opts.ArgsHash)
}

// MosaicKey generates a key for an assembled set mosaic.
func (k *DefaultKeyer) MosaicKey(setID string, opts MosaicKeyOpts) string {
	return hashKey("mosaic:"+setID, opts.Assets, opts.Columns, opts.TileSize)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
