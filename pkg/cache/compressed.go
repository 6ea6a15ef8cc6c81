package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// CompressedCache zstd-compresses values before handing them to another
// cache. Cell results are GeoJSON and compress well.
type CompressedCache struct {
	inner Cache
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressedCache wraps inner. Close closes inner as well.
func NewCompressedCache(inner Cache) (*CompressedCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &CompressedCache{inner: inner, enc: enc, dec: dec}, nil
}

// Get implements Cache. An entry that does not decompress is deleted and
// reported as a miss.
func (c *CompressedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, false, c.inner.Delete(ctx, key)
	}
	return out, true, nil
}

// Set implements Cache.
func (c *CompressedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, key, c.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), ttl)
}

// Delete implements Cache.
func (c *CompressedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

// Close releases the codecs and closes the wrapped cache.
func (c *CompressedCache) Close() error {
	c.dec.Close()
	return errors.Join(c.enc.Close(), c.inner.Close())
}

var _ Cache = (*CompressedCache)(nil)
