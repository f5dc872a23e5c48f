package asset

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// noisy returns a w x h image of random pixels, so encoded sizes stay well above MinSize.
func noisy(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(int64(w*h + w)))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, noisy(w, h)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, noisy(w, h), &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func bmpBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, noisy(w, h)))
	return buf.Bytes()
}

func testSchema(t *testing.T, keepOriginal bool, columns Column) *Schema {
	t.Helper()
	s, err := NewSchema("photos", map[string]string{"thumb": "100x100>", "large": "800x800"}, keepOriginal, columns)
	require.NoError(t, err)
	return s
}

// fakeStore records calls and fails keys listed in failPut / failDelete.
type fakeStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	puts       []string
	deletes    []string
	failPut    map[string]bool
	failDelete map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, failPut: map[string]bool{}, failDelete: map[string]bool{}}
}

func (s *fakeStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, key)
	if s.failPut[key] {
		return errors.New("put refused")
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	if s.failDelete[key] {
		return errors.New("delete refused")
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *fakeStore) PublicURL(key string) string {
	return "https://s3.example.com/media/" + key
}

// memRecords is an in-memory Records implementation.
type memRecords struct {
	mu   sync.Mutex
	recs map[string]Record
}

func newMemRecords() *memRecords {
	return &memRecords{recs: map[string]Record{}}
}

func (m *memRecords) Create(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.recs {
		if rec.Filename != "" && other.Filename == rec.Filename {
			return ErrFilenameTaken
		}
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	m.recs[rec.ID] = persisted(rec)
	return nil
}

func (m *memRecords) Update(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[rec.ID]; !ok {
		return ErrNotFound
	}
	rec.UpdatedAt = time.Now()
	m.recs[rec.ID] = persisted(rec)
	return nil
}

func (m *memRecords) GetByID(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *memRecords) List(_ context.Context, limit, offset int) ([]*Record, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*Record, 0, len(m.recs))
	for _, rec := range m.recs {
		rec := rec
		all = append(all, &rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	return all[offset:min(len(all), offset+limit)], total, nil
}

func (m *memRecords) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[id]; !ok {
		return ErrNotFound
	}
	delete(m.recs, id)
	return nil
}

func (m *memRecords) FilenameTaken(_ context.Context, filename, exceptID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.recs {
		if id != exceptID && rec.Filename == filename {
			return true, nil
		}
	}
	return false, nil
}

// persisted copies the columns a database row would hold.
func persisted(rec *Record) Record {
	return Record{
		ID:          rec.ID,
		Filename:    rec.Filename,
		ContentType: rec.ContentType,
		Size:        rec.Size,
		Width:       rec.Width,
		Height:      rec.Height,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}
