package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/client/objectstore"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/documents"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/orphans"
	"github.com/dmitrijs2005/dealroom/internal/common"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

// fakeRepo is an in-memory metadata store.
type fakeRepo struct {
	documents.Repository

	mu        sync.Mutex
	rows      map[string]models.Document
	listCalls int
	insertErr error
	deleteErr error
	listErr   error
}

func newFakeRepo(docs ...models.Document) *fakeRepo {
	r := &fakeRepo{rows: make(map[string]models.Document)}
	for _, d := range docs {
		r.rows[d.ID] = d
	}
	return r
}

func (r *fakeRepo) Insert(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.rows[doc.ID] = *doc
	return nil
}

func (r *fakeRepo) List(ctx context.Context, dealID string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Document
	for _, d := range r.rows {
		if dealID == "" || d.DealID == dealID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok {
		return nil, common.ErrRowNotFound
	}
	return &d, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.rows[id]; !ok {
		return common.ErrRowNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeRepo) ExistsByObjectKey(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.rows {
		if d.ObjectKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) ListCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls
}

// fakeStore is an in-memory object store.
type fakeStore struct {
	objectstore.Store

	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	// failNames fails Puts whose key ends in "-"+name.
	failNames   map[string]error
	removeErr   error
	listErr     error
	signErr     error
	signedCalls int
	// putGate, when set, blocks Put until it is closed or ctx is done.
	putGate chan struct{}
	// inFlight and maxInFlight track concurrent Puts.
	inFlight    int
	maxInFlight int
}

func newFakeStore(keys ...string) *fakeStore {
	s := &fakeStore{objects: make(map[string][]byte)}
	for _, k := range keys {
		s.objects[k] = []byte("x")
	}
	return s
}

func (s *fakeStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	s.inFlight++
	s.maxInFlight = max(s.maxInFlight, s.inFlight)
	gate := s.putGate
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	for name, err := range s.failNames {
		if strings.HasSuffix(key, "-"+name) {
			return err
		}
	}
	s.objects[key] = b
	return nil
}

func (s *fakeStore) List(ctx context.Context, folder string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []string
	for k := range s.objects {
		if f, _ := objectstore.SplitKey(k); f == folder {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeStore) Walk(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedCalls++
	if s.signErr != nil {
		return "", s.signErr
	}
	return "https://objects.test/" + key + "?ttl=" + ttl.String(), nil
}

func (s *fakeStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *fakeStore) SignedCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signedCalls
}

// fakeJournal records orphan keys in memory.
type fakeJournal struct {
	orphans.Repository

	mu   sync.Mutex
	keys map[string]string
}

func newFakeJournal() *fakeJournal { return &fakeJournal{keys: make(map[string]string)} }

func (j *fakeJournal) Record(ctx context.Context, key, reason string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.keys[key] = reason
	return nil
}

func (j *fakeJournal) List(ctx context.Context) ([]models.Orphan, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []models.Orphan
	for k, r := range j.keys {
		out = append(out, models.Orphan{ObjectKey: k, Reason: r})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ObjectKey < out[b].ObjectKey })
	return out, nil
}

func (j *fakeJournal) Prune(ctx context.Context, keys []string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, k := range keys {
		delete(j.keys, k)
	}
	return nil
}

func (j *fakeJournal) Reason(key string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	r, ok := j.keys[key]
	return r, ok
}

// logBuffer is a goroutine-safe sink for a JSON slog logger.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (logging.Logger, *logBuffer) {
	buf := &logBuffer{}
	return logging.NewJSON(buf, slog.LevelDebug), buf
}

var errBoom = errors.New("boom")

func mkDoc(id, dealID, category, name string, created time.Time) models.Document {
	return models.Document{
		ID:        id,
		DealID:    dealID,
		Name:      name,
		ObjectKey: models.ObjectKey(dealID, category, created, name),
		Category:  category,
		Version:   1,
		CreatedAt: created,
	}
}
