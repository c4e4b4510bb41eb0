// Package catalog is the service registry engine: it validates requests,
// serializes catalog mutations and keeps image assets in step with the
// entries that own them.
package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"launcher.GO/core/apperr"
	"launcher.GO/core/events"
	entity "launcher.GO/model/entity"
	"launcher.GO/model/repository/asset"
)

// DefaultMaxImageBytes is the upload ceiling when none is configured.
const DefaultMaxImageBytes int64 = 2 << 20

// DefaultImageTypes are the accepted declared content types.
var DefaultImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// DocumentStore loads and replaces the whole catalog document.
type DocumentStore interface {
	Load(ctx context.Context) (*entity.Document, error)
	Replace(ctx context.Context, doc *entity.Document) error
}

// AssetStore persists and reclaims image files.
type AssetStore interface {
	Store(ctx context.Context, r io.Reader, declaredName, contentType string) (string, error)
	Delete(ctx context.Context, ref string)
	ResolveDefault() string
	Owned(ref string) bool
	List() ([]asset.StoredAsset, error)
	Failures() int64
}

// Upload is an image supplied with a create or update request.
type Upload struct {
	Filename    string
	ContentType string
	// Size is the declared size; the body is still capped at the ceiling.
	Size int64
	Body io.Reader
}

// CreateInput is a create request.
type CreateInput struct {
	Category string
	Title    string
	URL      string
	Image    *Upload
}

// UpdateInput is an update request. An empty NewTitle keeps the current title.
type UpdateInput struct {
	Category     string
	CurrentTitle string
	NewTitle     string
	URL          string
	Image        *Upload
}

// Options configures a Service.
type Options struct {
	MaxImageBytes int64
	ImageTypes    []string
	Notifier      events.Notifier
	Logger        *slog.Logger
}

// Stats exposes counters of swallowed side-effect failures.
type Stats struct {
	ReclaimFailures int64 `json:"reclaim_failures"`
	NotifyFailures  int64 `json:"notify_failures"`
}

// Service owns every catalog mutation. Create, Update, Delete and
// SweepOrphans run one at a time; reads do not wait for them.
type Service struct {
	docs     DocumentStore
	assets   AssetStore
	notifier events.Notifier
	log      *slog.Logger

	maxImageBytes int64
	imageTypes    map[string]bool

	mu             sync.Mutex
	notifyFailures atomic.Int64
	now            func() time.Time
}

// NewService wires a Service over the given stores.
func NewService(docs DocumentStore, assets AssetStore, opts Options) *Service {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	if len(opts.ImageTypes) == 0 {
		opts.ImageTypes = DefaultImageTypes
	}
	if opts.Notifier == nil {
		opts.Notifier = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	types := make(map[string]bool, len(opts.ImageTypes))
	for _, t := range opts.ImageTypes {
		types[strings.ToLower(t)] = true
	}
	return &Service{
		docs:          docs,
		assets:        assets,
		notifier:      opts.Notifier,
		log:           opts.Logger.With("component", "registry"),
		maxImageBytes: opts.MaxImageBytes,
		imageTypes:    types,
		now:           time.Now,
	}
}

// DefaultImage returns the fallback image reference.
func (s *Service) DefaultImage() string { return s.assets.ResolveDefault() }

// ListAll returns the full catalog. A catalog that was never written is empty.
func (s *Service) ListAll(ctx context.Context) (*entity.Document, error) {
	return s.load(ctx)
}

// List returns the entries of one category.
func (s *Service) List(ctx context.Context, category string) ([]entity.Service, error) {
	cat, err := parseCategory(category)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Entries(cat), nil
}

// Create validates and appends a new entry, storing its image first.
func (s *Service) Create(ctx context.Context, in CreateInput) (entity.Service, error) {
	cat, err := parseCategory(in.Category)
	if err != nil {
		return entity.Service{}, err
	}
	title, url := strings.TrimSpace(in.Title), strings.TrimSpace(in.URL)
	if title == "" || url == "" {
		return entity.Service{}, apperr.New(apperr.CodeMissingField, "title and url are required")
	}
	if err := s.validateImage(in.Image); err != nil {
		return entity.Service{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return entity.Service{}, err
	}
	if doc.Find(cat, title) >= 0 {
		return entity.Service{}, apperr.New(apperr.CodeDuplicateTitle, "a service with this title already exists")
	}

	image := s.assets.ResolveDefault()
	if in.Image != nil {
		if image, err = s.storeImage(ctx, in.Image); err != nil {
			return entity.Service{}, err
		}
	}

	svc := entity.Service{Title: title, URL: url, Image: image}
	doc.SetEntries(cat, append(doc.Entries(cat), svc))
	if err := s.docs.Replace(ctx, doc); err != nil {
		s.discard(ctx, in.Image, image)
		return entity.Service{}, err
	}

	s.log.Info("service created", "category", cat, "title", title, "image", image)
	s.notify(ctx, events.ChangeEvent{Action: events.ActionCreated, Category: string(cat), Title: title})
	return svc, nil
}

// Update edits an entry in place. A replaced image is reclaimed only
// after the new document is persisted.
func (s *Service) Update(ctx context.Context, in UpdateInput) (entity.Service, error) {
	cat, err := parseCategory(in.Category)
	if err != nil {
		return entity.Service{}, err
	}
	url := strings.TrimSpace(in.URL)
	if url == "" {
		return entity.Service{}, apperr.New(apperr.CodeMissingField, "url is required")
	}
	if err := s.validateImage(in.Image); err != nil {
		return entity.Service{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return entity.Service{}, err
	}
	entries := doc.Entries(cat)
	idx := doc.Find(cat, in.CurrentTitle)
	if idx < 0 {
		return entity.Service{}, apperr.New(apperr.CodeNotFound, "service not found")
	}
	svc := entries[idx]

	newTitle := strings.TrimSpace(in.NewTitle)
	if newTitle != "" && newTitle != svc.Title {
		if doc.Find(cat, newTitle) >= 0 {
			return entity.Service{}, apperr.New(apperr.CodeDuplicateTitle, "a service with this title already exists")
		}
		svc.Title = newTitle
	}
	svc.URL = url

	oldImage := svc.Image
	if in.Image != nil {
		if svc.Image, err = s.storeImage(ctx, in.Image); err != nil {
			return entity.Service{}, err
		}
	}

	entries[idx] = svc
	doc.SetEntries(cat, entries)
	if err := s.docs.Replace(ctx, doc); err != nil {
		s.discard(ctx, in.Image, svc.Image)
		return entity.Service{}, err
	}

	if in.Image != nil && oldImage != svc.Image {
		s.reclaim(ctx, oldImage)
	}

	s.log.Info("service updated", "category", cat, "title", svc.Title, "previous_title", in.CurrentTitle)
	s.notify(ctx, events.ChangeEvent{Action: events.ActionUpdated, Category: string(cat), Title: svc.Title, OldTitle: in.CurrentTitle})
	return svc, nil
}

// Delete removes an entry, then reclaims its image.
func (s *Service) Delete(ctx context.Context, category, title string) error {
	cat, err := parseCategory(category)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := doc.Find(cat, title)
	if idx < 0 {
		return apperr.New(apperr.CodeNotFound, "service not found")
	}
	entries := doc.Entries(cat)
	removed := entries[idx]
	remaining := make([]entity.Service, 0, len(entries)-1)
	remaining = append(remaining, entries[:idx]...)
	remaining = append(remaining, entries[idx+1:]...)
	doc.SetEntries(cat, remaining)

	if err := s.docs.Replace(ctx, doc); err != nil {
		return err
	}
	s.reclaim(ctx, removed.Image)

	s.log.Info("service deleted", "category", cat, "title", title)
	s.notify(ctx, events.ChangeEvent{Action: events.ActionDeleted, Category: string(cat), Title: title})
	return nil
}

// Stats returns the side-effect failure counters.
func (s *Service) Stats() Stats {
	return Stats{
		ReclaimFailures: s.assets.Failures(),
		NotifyFailures:  s.notifyFailures.Load(),
	}
}

func (s *Service) load(ctx context.Context) (*entity.Document, error) {
	doc, err := s.docs.Load(ctx)
	if errors.Is(err, apperr.ErrNotFound) {
		return entity.NewDocument(), nil
	}
	return doc, err
}

func parseCategory(name string) (entity.Category, error) {
	cat, ok := entity.ParseCategory(name)
	if !ok {
		return "", apperr.New(apperr.CodeInvalidCategory, "invalid category: "+name)
	}
	return cat, nil
}

// reclaim deletes ref if an entry owned it. The default image never is.
func (s *Service) reclaim(ctx context.Context, ref string) {
	if ref == s.assets.ResolveDefault() || !s.assets.Owned(ref) {
		return
	}
	s.assets.Delete(ctx, ref)
}

// discard drops an image stored for a mutation that failed to persist.
func (s *Service) discard(ctx context.Context, up *Upload, ref string) {
	if up == nil {
		return
	}
	s.reclaim(ctx, ref)
}

func (s *Service) notify(ctx context.Context, ev events.ChangeEvent) {
	ev.At = s.now().UTC()
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.notifyFailures.Add(1)
		s.log.Warn("change notification failed", "action", ev.Action, "category", ev.Category, "title", ev.Title, "error", err)
	}
}
