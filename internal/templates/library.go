// Package templates manages the directory of certificate background images.
package templates

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/YannKr/certgen/internal/storage"
)

var (
	ErrTemplateUnavailable = errors.New("template unavailable")
	ErrUnsupportedType     = errors.New("unsupported image type")
)

// mimeToExt lists the accepted upload types.
var mimeToExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

var imageExts = []string{".jpg", ".jpeg", ".png"}

// Library is a directory of template images. It holds no index; every call
// looks at the directory as it is now.
type Library struct {
	Dir string
}

// List returns the template file names in Dir, sorted. A missing directory
// yields an empty list.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if slices.Contains(imageExts, strings.ToLower(filepath.Ext(e.Name()))) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Save stores an uploaded template under the base of name. The content
// type is sniffed from the data, and the extension is corrected to match
// it. It returns the stored file name.
func (l *Library) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	mimeType := http.DetectContentType(data)
	ext, ok := mimeToExt[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	stored := storedName(name, ext)
	sink := &storage.DirSink{Dir: l.Dir}
	if err := sink.Put(ctx, stored, mimeType, data); err != nil {
		return "", fmt.Errorf("save template: %w", err)
	}
	return stored, nil
}

func storedName(name, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.Trim(stem, " .")
	if stem == "" || stem == "/" {
		stem = "template"
	}
	cur := strings.ToLower(filepath.Ext(base))
	if cur == ext || (ext == ".jpg" && cur == ".jpeg") {
		return stem + cur
	}
	return stem + ext
}

// Open decodes the named template, applying EXIF orientation.
func (l *Library) Open(name string) (image.Image, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: invalid name %q", ErrTemplateUnavailable, name)
	}
	img, err := imaging.Open(filepath.Join(l.Dir, name), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateUnavailable, name, err)
	}
	return img, nil
}

// DecodeOverlay decodes an uploaded logo or signature.
func DecodeOverlay(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	return img, nil
}
