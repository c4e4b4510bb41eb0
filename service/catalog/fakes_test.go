package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"launcher.GO/core/apperr"
	"launcher.GO/core/events"
	entity "launcher.GO/model/entity"
	"launcher.GO/model/repository/asset"
)

// memDocs is an in-memory DocumentStore that can be told to fail writes.
type memDocs struct {
	mu        sync.Mutex
	doc       *entity.Document
	failWrite bool
	writes    int
}

func (m *memDocs) Load(ctx context.Context) (*entity.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, apperr.New(apperr.CodeNotFound, "no document")
	}
	return m.doc.Clone(), nil
}

func (m *memDocs) Replace(ctx context.Context, doc *entity.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return apperr.Wrap(apperr.CodeStorageFailure, "write catalog", errors.New("disk full"))
	}
	m.writes++
	m.doc = doc.Clone()
	return nil
}

// memAssets is an in-memory AssetStore.
type memAssets struct {
	mu      sync.Mutex
	files   map[string]asset.StoredAsset
	seq     int
	deleted []string
}

func newMemAssets() *memAssets {
	return &memAssets{files: make(map[string]asset.StoredAsset)}
}

func (m *memAssets) Store(ctx context.Context, r io.Reader, name, contentType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ref := fmt.Sprintf("src/%d-%s", m.seq, strings.ToLower(name))
	m.files[ref] = asset.StoredAsset{Ref: ref, Size: int64(len(b)), ModTime: time.Now().Add(-time.Hour)}
	return ref, nil
}

func (m *memAssets) Delete(ctx context.Context, ref string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ref)
	m.deleted = append(m.deleted, ref)
}

func (m *memAssets) ResolveDefault() string { return "img/default.png" }

func (m *memAssets) Owned(ref string) bool { return strings.HasPrefix(ref, "src/") }

func (m *memAssets) List() ([]asset.StoredAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]asset.StoredAsset, 0, len(m.files))
	for _, a := range m.files {
		out = append(out, a)
	}
	return out, nil
}

func (m *memAssets) Failures() int64 { return 0 }

func (m *memAssets) has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[ref]
	return ok
}

// recordingNotifier keeps every event; err is returned from Notify.
type recordingNotifier struct {
	mu     sync.Mutex
	events []events.ChangeEvent
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, ev events.ChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func pngUpload(name, body string) *Upload {
	return &Upload{Filename: name, ContentType: "image/png", Size: int64(len(body)), Body: strings.NewReader(body)}
}
