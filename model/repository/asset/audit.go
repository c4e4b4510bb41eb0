package asset

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/sync/errgroup"
)

// AuditResult reports whether one asset decodes as an image.
type AuditResult struct {
	Ref    string `json:"ref"`
	Format string `json:"format,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OK reports whether the asset decoded.
func (a AuditResult) OK() bool { return a.Error == "" }

const auditWorkers = 8

// Audit decodes the header of every stored upload and of the default image.
func (r *FileRepository) Audit(ctx context.Context) ([]AuditResult, error) {
	assets, err := r.List()
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(assets)+1)
	if r.Exists(r.defaultRef) {
		refs = append(refs, r.defaultRef)
	}
	for _, a := range assets {
		refs = append(refs, a.Ref)
	}

	results := make([]AuditResult, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(auditWorkers)
	for i, ref := range refs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.inspect(ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *FileRepository) inspect(ref string) AuditResult {
	res := AuditResult{Ref: ref}
	p, err := r.Resolve(ref)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	f, err := os.Open(p)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer f.Close()

	cfg, format, err := decodeConfig(f, filepath.Ext(p))
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Format, res.Width, res.Height = format, cfg.Width, cfg.Height
	return res
}

func decodeConfig(f io.Reader, ext string) (image.Config, string, error) {
	if strings.EqualFold(ext, ".webp") {
		cfg, err := webp.DecodeConfig(f)
		return cfg, "webp", err
	}
	return image.DecodeConfig(f)
}
