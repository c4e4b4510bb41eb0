package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"launcher.GO/core/apperr"
	"launcher.GO/core/cache"
	entity "launcher.GO/model/entity"
)

const cacheTag = "catalog"

// FileRepository persists the catalog document as one JSON file.
// It does not serialize load/mutate/replace cycles; callers own that.
type FileRepository struct {
	path  string
	cache *cache.Cache
	ttl   time.Duration
	log   *slog.Logger

	// mu guards gen; gen changes on every write or invalidation so a slow
	// reader never puts a stale document back into the cache.
	mu  sync.Mutex
	gen uint64
	// written is the file as left by the last Replace; the watcher
	// ignores events while the file still matches it.
	written os.FileInfo
}

// Options configures a FileRepository.
type Options struct {
	Path string
	// CacheTTL of 0 disables the read cache.
	CacheTTL time.Duration
	Cache    *cache.Cache
	Logger   *slog.Logger
}

// NewFileRepository returns a catalog repository backed by opts.Path.
func NewFileRepository(opts Options) *FileRepository {
	c := opts.Cache
	if c == nil {
		c = cache.GetInstance()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FileRepository{
		path:  opts.Path,
		cache: c,
		ttl:   opts.CacheTTL,
		log:   logger.With("component", "catalog"),
	}
}

// Path returns the document location.
func (r *FileRepository) Path() string { return r.path }

func (r *FileRepository) cacheKey() string { return "catalog:" + r.path }

// Load reads the document. It fails with NotFound when no file exists,
// CorruptState when the file does not parse and StorageFailure otherwise.
func (r *FileRepository) Load(ctx context.Context) (*entity.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.ttl > 0 {
		if v, ok := r.cache.Get(r.cacheKey()); ok {
			return v.(*entity.Document).Clone(), nil
		}
	}

	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.New(apperr.CodeNotFound, "catalog document does not exist")
		}
		return nil, apperr.Wrap(apperr.CodeStorageFailure, "read catalog document", err)
	}
	doc := &entity.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, apperr.Wrap(apperr.CodeCorruptState, "parse catalog document", err)
	}

	if r.ttl > 0 {
		r.mu.Lock()
		if r.gen == gen {
			r.cache.Set(r.cacheKey(), doc.Clone(), r.ttl, []string{cacheTag})
		}
		r.mu.Unlock()
	}
	return doc, nil
}

// Replace writes the whole document, temp file then rename, so readers
// see either the previous or the new content.
func (r *FileRepository) Replace(ctx context.Context, doc *entity.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc.Normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.CodeStorageFailure, "marshal catalog document", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.Wrap(apperr.CodeStorageFailure, "create catalog directory", err)
	}
	temp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".tmp.*")
	if err != nil {
		return apperr.Wrap(apperr.CodeStorageFailure, "create temp file", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return apperr.Wrap(apperr.CodeStorageFailure, "write temp file", err)
	}
	if err := temp.Sync(); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return apperr.Wrap(apperr.CodeStorageFailure, "sync temp file", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return apperr.Wrap(apperr.CodeStorageFailure, "close temp file", err)
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		_ = os.Remove(tempPath)
		return apperr.Wrap(apperr.CodeStorageFailure, "chmod temp file", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.Rename(tempPath, r.path); err != nil {
		_ = os.Remove(tempPath)
		r.gen++
		r.cache.Delete(r.cacheKey())
		return apperr.Wrap(apperr.CodeStorageFailure, "rename temp file", err)
	}
	r.gen++
	r.written, _ = os.Stat(r.path)
	if r.ttl > 0 {
		r.cache.Set(r.cacheKey(), doc.Clone(), r.ttl, []string{cacheTag})
	}
	return nil
}

// ownWrite reports whether the file on disk is still the one Replace left.
func (r *FileRepository) ownWrite() bool {
	info, err := os.Stat(r.path)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.written
	return prev != nil && os.SameFile(prev, info) &&
		prev.Size() == info.Size() && prev.ModTime().Equal(info.ModTime())
}

// Init writes an empty document when none exists. It reports whether one was created.
func (r *FileRepository) Init(ctx context.Context) (bool, error) {
	_, err := r.Load(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return false, err
	}
	if err := r.Replace(ctx, entity.NewDocument()); err != nil {
		return false, err
	}
	r.log.Info("empty catalog created", "path", r.path)
	return true, nil
}

// Invalidate drops the cached document.
func (r *FileRepository) Invalidate() {
	r.mu.Lock()
	r.gen++
	r.written = nil
	r.cache.Delete(r.cacheKey())
	r.mu.Unlock()
}

// Watch invalidates the cache whenever the document changes on disk,
// until ctx is done.
func (r *FileRepository) Watch(ctx context.Context, debounce time.Duration) error {
	w, err := newWatcher(r.path, debounce)
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}
	go func() {
		defer w.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				if r.ownWrite() {
					continue
				}
				r.Invalidate()
				r.log.Debug("catalog changed on disk, cache invalidated", "path", r.path)
			}
		}
	}()
	return nil
}
