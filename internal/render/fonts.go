package render

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontLoader parses font files once and hands out faces at any size.
// A font that cannot be read or parsed degrades to the embedded Go
// Regular font; the caller never sees an error.
type FontLoader struct {
	mu       sync.Mutex
	fonts    map[string]*opentype.Font
	fallback *opentype.Font
}

func NewFontLoader() *FontLoader {
	fallback, err := opentype.Parse(goregular.TTF)
	if err != nil {
		slog.Error("parse embedded fallback font", "error", err)
	}
	return &FontLoader{
		fonts:    make(map[string]*opentype.Font),
		fallback: fallback,
	}
}

// Face returns a face for the font at path with a pixel size of size.
// Faces are not safe for concurrent use, so every call builds a new one
// on top of the cached parsed font.
func (l *FontLoader) Face(path string, size int) font.Face {
	f := l.font(path)
	if f != nil {
		face, err := newFace(f, size)
		if err == nil {
			return face
		}
		slog.Warn("font face unavailable, using default", "path", path, "size", size, "error", err)
	}
	if l.fallback != nil {
		if face, err := newFace(l.fallback, size); err == nil {
			return face
		}
	}
	return basicfont.Face7x13
}

func (l *FontLoader) font(path string) *opentype.Font {
	if path == "" {
		return l.fallback
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.fonts[path]; ok {
		return f
	}

	f, err := parseFontFile(path)
	if err != nil {
		// The fallback is cached under path so the warning is logged once.
		slog.Warn("font unavailable, using default", "path", path, "error", err)
		f = l.fallback
	}
	l.fonts[path] = f
	return f
}

func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

func newFace(f *opentype.Font, size int) (font.Face, error) {
	// At 72 DPI one point is one pixel, so size is the em height in pixels.
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
