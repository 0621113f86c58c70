package cache

// ScopedKeyer wraps a Keyer with a prefix so concurrent pipelines sharing a
// backend (typically Redis) get separate key spaces.
//
// Example usage:
//
//	// Keys isolated per workspace
//	wsKeyer := NewScopedKeyer(NewDefaultKeyer(), "ws:main:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, url string) string {
	return k.prefix + k.inner.HTTPKey(namespace, url)
}

// RendererKey generates a prefixed key for built renderer resources.
func (k *ScopedKeyer) RendererKey(name string, opts RendererKeyOpts) string {
	return k.prefix + k.inner.RendererKey(name, opts)
}

// RenderKey generates a prefixed key for rendered comparison images.
func (k *ScopedKeyer) RenderKey(assetID string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(assetID, opts)
}

// MosaicKey generates a prefixed key for assembled set mosaics.
func (k *ScopedKeyer) MosaicKey(setID string, opts MosaicKeyOpts) string {
	return k.prefix + k.inner.MosaicKey(setID, opts)
}
