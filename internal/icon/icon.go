// Package icon resolves application icons by name for the rendering layer.
package icon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/bryanchriswhite/SpaceBar/internal/window"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
)

// ErrNotFound means no icon exists for the application.
var ErrNotFound = errors.New("icon not found")

const DefaultSize = 32

// Options configures a Service.
type Options struct {
	// Dir holds user-supplied <app>.png overrides.
	Dir string
	// Size is the edge length icons are scaled to.
	Size int
	// BundleLookup enables extracting icons from running apps' bundles.
	BundleLookup bool
	Bundles      BundleFinder
	Runner       window.Runner
}

type entry struct {
	img image.Image
	err error
}

// Service looks icons up and caches results, including misses.
type Service struct {
	opts Options
	log  *zerolog.Logger

	mu    sync.RWMutex
	cache map[string]entry
}

func NewService(opts Options) *Service {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Runner == nil {
		opts.Runner = window.ExecRunner{}
	}
	if opts.Bundles == nil {
		opts.Bundles = ProcessBundles{}
	}
	return &Service{
		opts:  opts,
		log:   logger.WithComponent("icon"),
		cache: make(map[string]entry),
	}
}

// Lookup returns the scaled icon for app or ErrNotFound.
func (s *Service) Lookup(app string) (image.Image, error) {
	s.mu.RLock()
	e, ok := s.cache[app]
	s.mu.RUnlock()
	if ok {
		return e.img, e.err
	}

	img, err := s.resolve(context.Background(), app)
	if err == nil {
		img = scale(img, s.opts.Size)
	} else if !errors.Is(err, ErrNotFound) {
		s.log.Debug().Err(err).Str("app", app).Msg("Icon lookup failed")
		err = fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	s.mu.Lock()
	s.cache[app] = entry{img: img, err: err}
	s.mu.Unlock()
	return img, err
}

// PNG returns the icon for app encoded as PNG.
func (s *Service) PNG(app string) ([]byte, error) {
	img, err := s.Lookup(app)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode icon for %s: %w", app, err)
	}
	return buf.Bytes(), nil
}

// Forget drops cached results so the next lookup re-resolves.
func (s *Service) Forget() {
	s.mu.Lock()
	s.cache = make(map[string]entry)
	s.mu.Unlock()
}

func (s *Service) resolve(ctx context.Context, app string) (image.Image, error) {
	if !validName(app) {
		return nil, ErrNotFound
	}

	if s.opts.Dir != "" {
		img, err := decodeFile(filepath.Join(s.opts.Dir, app+".png"))
		if err == nil {
			return img, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("app", app).Msg("Unreadable icon override")
		}
	}

	if !s.opts.BundleLookup {
		return nil, ErrNotFound
	}
	bundle, err := s.opts.Bundles.BundlePath(ctx, app)
	if err != nil {
		return nil, err
	}
	icns, err := findICNS(bundle)
	if err != nil {
		return nil, err
	}
	return s.convertICNS(ctx, icns)
}

// convertICNS shells out to sips, which understands every icns variant.
func (s *Service) convertICNS(ctx context.Context, icns string) (image.Image, error) {
	tmp, err := os.CreateTemp("", "spacebar-icon-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp icon: %w", err)
	}
	out := tmp.Name()
	tmp.Close()
	defer os.Remove(out)

	if _, err := s.opts.Runner.Run(ctx, "sips", "-s", "format", "png", icns, "--out", out); err != nil {
		return nil, fmt.Errorf("convert %s: %w", icns, err)
	}
	return decodeFile(out)
}

func findICNS(bundle string) (string, error) {
	resources := filepath.Join(bundle, "Contents", "Resources")
	preferred := filepath.Join(resources, "AppIcon.icns")
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}
	matches, err := filepath.Glob(filepath.Join(resources, "*.icns"))
	if err != nil || len(matches) == 0 {
		return "", ErrNotFound
	}
	return matches[0], nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func scale(src image.Image, size int) image.Image {
	if b := src.Bounds(); b.Dx() == size && b.Dy() == size {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

func validName(app string) bool {
	return app != "" && app != "." && app != ".." && !strings.ContainsAny(app, `/\`)
}
