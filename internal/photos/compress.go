// Package photos produces the compressed copies of uploaded event photos.
package photos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/metrics"
)

// Store is the part of the file store compression needs.
type Store interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Write(ctx context.Context, path string, content io.Reader) error
	Delete(ctx context.Context, path string) error
}

type Options struct {
	MaxWidth  int
	MaxHeight int
	// Quality is the JPEG quality, 1-100.
	Quality int
	// KeepOriginal leaves the source file in place after compression.
	KeepOriginal bool
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = 1600
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = 1600
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 75
	}
	return o
}

// Compress decodes src, fits it inside the configured bounds, writes a JPEG to
// dst and removes src unless KeepOriginal is set.
func Compress(ctx context.Context, store Store, src, dst string, opts Options) error {
	opts = opts.withDefaults()

	rc, err := store.Open(ctx, src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	_ = rc.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > opts.MaxWidth || bounds.Dy() > opts.MaxHeight {
		img = imaging.Fit(img, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality)); err != nil {
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	if err := store.Write(ctx, dst, &buf); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}

	if !opts.KeepOriginal && src != dst {
		if err := store.Delete(ctx, src); err != nil {
			return fmt.Errorf("remove original %s: %w", src, err)
		}
	}
	return nil
}

// inlineConcurrency bounds how many photos InlineCompressor decodes at once.
const inlineConcurrency = 4

// InlineCompressor compresses photos on background goroutines. It stands in
// for the job queue when jobs are disabled.
type InlineCompressor struct {
	store   Store
	opts    Options
	timeout time.Duration
	logger  zerolog.Logger
	wg      sync.WaitGroup
	slots   chan struct{}
}

func NewInlineCompressor(store Store, opts Options, logger zerolog.Logger) *InlineCompressor {
	return &InlineCompressor{
		store:   store,
		opts:    opts,
		timeout: 2 * time.Minute,
		logger:  logger.With().Str("component", "photos").Logger(),
		slots:   make(chan struct{}, inlineConcurrency),
	}
}

// CompressPhoto schedules compression of source into target and returns
// immediately.
func (c *InlineCompressor) CompressPhoto(ctx context.Context, source, target string) error {
	bg := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.slots <- struct{}{}
		defer func() { <-c.slots }()

		ctx, cancel := context.WithTimeout(bg, c.timeout)
		defer cancel()

		err := Compress(ctx, c.store, source, target, c.opts)
		metrics.PhotosCompressed.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			c.logger.Error().Err(err).Str("source", source).Str("target", target).Msg("photo compression failed")
			return
		}
		c.logger.Debug().Str("target", target).Msg("photo compressed")
	}()
	return nil
}

// Wait blocks until scheduled compressions finish.
func (c *InlineCompressor) Wait() {
	c.wg.Wait()
}
