package asset

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const placeholderSize = 128

var (
	placeholderBackground = color.NRGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	placeholderFrame      = color.NRGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}
)

// EnsureDefault writes a neutral placeholder at the default image location
// when nothing is there yet. It reports whether a file was created.
func (r *FileRepository) EnsureDefault() (bool, error) {
	p, err := r.Resolve(r.defaultRef)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return false, fmt.Errorf("create default image directory: %w", err)
	}

	img := placeholder()
	if strings.EqualFold(filepath.Ext(p), ".webp") {
		f, err := os.Create(p)
		if err != nil {
			return false, fmt.Errorf("create default image: %w", err)
		}
		if err := webp.Encode(f, img, &webp.Options{Lossless: true}); err != nil {
			_ = f.Close()
			return false, fmt.Errorf("encode default image: %w", err)
		}
		if err := f.Close(); err != nil {
			return false, fmt.Errorf("close default image: %w", err)
		}
	} else if err := imaging.Save(img, p); err != nil {
		return false, fmt.Errorf("save default image: %w", err)
	}
	r.log.Info("default image generated", "path", p)
	return true, nil
}

// placeholder draws a flat tile with a one-pixel-wide inset frame.
func placeholder() image.Image {
	img := imaging.New(placeholderSize, placeholderSize, placeholderBackground)
	inner := imaging.New(placeholderSize-16, placeholderSize-16, placeholderFrame)
	core := imaging.New(placeholderSize-18, placeholderSize-18, placeholderBackground)
	inner = imaging.Paste(inner, core, image.Pt(1, 1))
	return imaging.Paste(img, inner, image.Pt(8, 8))
}
