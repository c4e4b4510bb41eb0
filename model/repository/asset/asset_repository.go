package asset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"launcher.GO/core/apperr"
)

// StoredAsset describes one uploaded file.
type StoredAsset struct {
	Ref     string
	Size    int64
	ModTime time.Time
}

// FileRepository keeps uploaded images as individual files under
// <publicDir>/<uploadDir>. References are slash-separated paths relative
// to publicDir, so a static file server rooted there can serve them.
type FileRepository struct {
	publicDir  string
	uploadDir  string
	defaultRef string
	log        *slog.Logger
	now        func() time.Time

	failures atomic.Int64
}

// Options configures a FileRepository.
type Options struct {
	PublicDir    string
	UploadDir    string
	DefaultImage string
	Logger       *slog.Logger
}

// NewFileRepository returns an asset repository rooted at opts.PublicDir.
func NewFileRepository(opts Options) *FileRepository {
	upload := strings.Trim(path.Clean(filepath.ToSlash(opts.UploadDir)), "/")
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FileRepository{
		publicDir:  opts.PublicDir,
		uploadDir:  upload,
		defaultRef: path.Clean(filepath.ToSlash(opts.DefaultImage)),
		log:        logger.With("component", "asset"),
		now:        time.Now,
	}
}

var safeExt = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store persists r under a generated name and returns its reference.
// The name keeps the declared extension so static serving picks the right type.
func (r *FileRepository) Store(ctx context.Context, src io.Reader, declaredName, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(declaredName))
	if !safeExt.MatchString(ext) {
		ext = extByType[contentType]
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("%d-%s%s", r.now().UnixMilli(), token, ext)

	dir := filepath.Join(r.publicDir, filepath.FromSlash(r.uploadDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.CodeStorageFailure, "create upload directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", apperr.Wrap(apperr.CodeStorageFailure, "create upload file", err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", apperr.Wrap(apperr.CodeStorageFailure, "write upload file", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", apperr.Wrap(apperr.CodeStorageFailure, "close upload file", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return "", apperr.Wrap(apperr.CodeStorageFailure, "chmod upload file", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		_ = os.Remove(tmpPath)
		return "", apperr.Wrap(apperr.CodeStorageFailure, "rename upload file", err)
	}

	ref := r.uploadDir + "/" + name
	r.log.Debug("asset stored", "ref", ref, "declared_name", declaredName)
	return ref, nil
}

// Delete removes an owned asset. A missing file is not an error; any other
// failure is logged and counted, never returned.
func (r *FileRepository) Delete(ctx context.Context, ref string) {
	if !r.Owned(ref) {
		r.log.Debug("asset not owned, kept", "ref", ref)
		return
	}
	p, err := r.Resolve(ref)
	if err != nil {
		r.failures.Add(1)
		r.log.Warn("asset delete failed", "ref", ref, "error", err)
		return
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		r.failures.Add(1)
		r.log.Warn("asset delete failed", "ref", ref, "error", err)
		return
	}
	r.log.Debug("asset deleted", "ref", ref)
}

// Owned reports whether ref points at an uploaded file that an entry may own.
// The default image and anything outside the upload directory never are.
func (r *FileRepository) Owned(ref string) bool {
	if ref == "" || ref == r.defaultRef {
		return false
	}
	if path.Clean(ref) != ref || !strings.HasPrefix(ref, r.uploadDir+"/") {
		return false
	}
	name := strings.TrimPrefix(ref, r.uploadDir+"/")
	return name != "" && !strings.Contains(name, "/") && !strings.HasPrefix(name, ".")
}

// ResolveDefault returns the standing fallback image reference.
func (r *FileRepository) ResolveDefault() string {
	return r.defaultRef
}

// Resolve maps ref to a filesystem path under publicDir.
func (r *FileRepository) Resolve(ref string) (string, error) {
	clean := path.Clean(ref)
	if ref == "" || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("asset reference %q escapes %s", ref, r.publicDir)
	}
	return filepath.Join(r.publicDir, filepath.FromSlash(clean)), nil
}

// Exists reports whether ref resolves to a regular file.
func (r *FileRepository) Exists(ref string) bool {
	p, err := r.Resolve(ref)
	if err != nil {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// List returns every stored upload, oldest first. In-flight temp files are skipped.
func (r *FileRepository) List() ([]StoredAsset, error) {
	dir := filepath.Join(r.publicDir, filepath.FromSlash(r.uploadDir))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.CodeStorageFailure, "list upload directory", err)
	}
	var out []StoredAsset
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, StoredAsset{
			Ref:     r.uploadDir + "/" + e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.Before(out[j].ModTime) })
	return out, nil
}

// Failures returns how many deletions have failed since start.
func (r *FileRepository) Failures() int64 {
	return r.failures.Load()
}
