package asset

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radif/media/internal/imageproc"
	"github.com/radif/media/internal/keygen"
)

func newTestLifecycle(t *testing.T, keepOriginal bool, columns Column) (*Lifecycle, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewLifecycle(testSchema(t, keepOriginal, columns), store, WithLogger(zerolog.Nop())), store
}

func ingest(t *testing.T, l *Lifecycle, rec *Record) error {
	t.Helper()
	l.Prepare(rec)
	_ = l.Validate(rec)
	return l.Publish(context.Background(), rec)
}

func TestIngestPublishesOriginalAndVariants(t *testing.T) {
	l, store := newTestLifecycle(t, true, AllColumns)
	raw := pngBytes(t, 300, 200)

	rec := &Record{}
	rec.SetRawData(raw)
	require.NoError(t, ingest(t, l, rec))

	assert.True(t, rec.Valid())
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]/[0-9a-f]/[0-9a-f]{32}\.png$`), rec.Filename)
	assert.Equal(t, "image/png", rec.ContentType)
	require.NotNil(t, rec.Size)
	assert.Equal(t, int64(len(raw)), *rec.Size)
	require.NotNil(t, rec.Width)
	require.NotNil(t, rec.Height)
	assert.Equal(t, 300, *rec.Width)
	assert.Equal(t, 200, *rec.Height)

	require.Len(t, store.puts, 3)
	assert.Equal(t, l.Schema().Path(rec.Filename, VariantOriginal), store.puts[0])
	assert.Equal(t, raw, store.objects[store.puts[0]])

	thumb, err := imageproc.Inspect(store.objects[l.Schema().Path(rec.Filename, "thumb")])
	require.NoError(t, err)
	assert.Equal(t, 100, thumb.Width)
	assert.Equal(t, 67, thumb.Height)

	large, err := imageproc.Inspect(store.objects[l.Schema().Path(rec.Filename, "large")])
	require.NoError(t, err)
	assert.Equal(t, 800, large.Width)
	assert.Equal(t, 533, large.Height)

	// Raw data is gone, so another pass does nothing.
	assert.False(t, rec.HasRawData())
	filename := rec.Filename
	require.NoError(t, ingest(t, l, rec))
	assert.Len(t, store.puts, 3)
	assert.Equal(t, filename, rec.Filename)
}

func TestIngestWithoutOriginal(t *testing.T) {
	l, store := newTestLifecycle(t, false, AllColumns)

	rec := &Record{}
	rec.SetRawData(jpegBytes(t, 120, 240))
	require.NoError(t, ingest(t, l, rec))

	assert.Equal(t, "image/jpeg", rec.ContentType)
	assert.Regexp(t, `\.jpg$`, rec.Filename)
	assert.Equal(t, []string{
		l.Schema().Path(rec.Filename, "large"),
		l.Schema().Path(rec.Filename, "thumb"),
	}, store.puts)
}

func TestIngestInvalidImage(t *testing.T) {
	l, store := newTestLifecycle(t, true, AllColumns)

	rec := &Record{}
	rec.SetRawData(bytes.Repeat([]byte("not an image "), 200))
	require.NoError(t, ingest(t, l, rec))

	assert.Contains(t, rec.Errors(), MsgInvalidImage)
	assert.Empty(t, rec.Filename)
	assert.Empty(t, rec.ContentType)
	assert.Nil(t, rec.Width)
	assert.Empty(t, store.puts)
}

func TestIngestUnsupportedContentType(t *testing.T) {
	l, store := newTestLifecycle(t, true, AllColumns)

	rec := &Record{}
	rec.SetRawData(bmpBytes(t, 64, 64))
	l.Prepare(rec)
	assert.Equal(t, "unknown (bmp)", rec.ContentType)

	err := l.Validate(rec)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{MsgContentType}, verr.Messages)

	require.NoError(t, l.Publish(context.Background(), rec))
	assert.Empty(t, store.puts)
}

func TestValidateSize(t *testing.T) {
	l, _ := newTestLifecycle(t, true, AllColumns)
	small := int64(MinSize - 1)
	big := int64(MaxSize + 1)
	ok := int64(MinSize)

	tests := []struct {
		name string
		size *int64
		want []string
	}{
		{name: "missing", size: nil, want: []string{MsgSizeNotNumber}},
		{name: "too small", size: &small, want: []string{MsgSizeRange}},
		{name: "too big", size: &big, want: []string{MsgSizeRange}},
		{name: "in range", size: &ok, want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &Record{ContentType: "image/png", Size: tc.size}
			_ = l.Validate(rec)
			assert.Equal(t, tc.want, rec.Errors())
		})
	}
}

func TestPrepareSkipsUntrackedColumns(t *testing.T) {
	l, _ := newTestLifecycle(t, true, ColumnWidth|ColumnHeight)

	rec := &Record{}
	rec.SetRawData(pngBytes(t, 20, 10))
	l.Prepare(rec)
	require.NoError(t, l.Validate(rec))

	assert.Nil(t, rec.Size)
	require.NotNil(t, rec.Width)
	assert.Equal(t, 20, *rec.Width)
}

func TestPrepareUsesKeyGenerator(t *testing.T) {
	src := bytes.NewReader(bytes.Repeat([]byte{0x5a}, 16))
	store := newFakeStore()
	l := NewLifecycle(testSchema(t, true, AllColumns), store,
		WithLogger(zerolog.Nop()), WithKeyGenerator(keygen.New(src)))

	rec := &Record{}
	rec.SetRawData(pngBytes(t, 40, 40))
	l.Prepare(rec)
	assert.Equal(t, "5/a/5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a5a.png", rec.Filename)
}

func TestReingestKeepsFilename(t *testing.T) {
	l, store := newTestLifecycle(t, true, AllColumns)

	rec := &Record{}
	rec.SetRawData(pngBytes(t, 300, 200))
	require.NoError(t, ingest(t, l, rec))
	filename := rec.Filename
	first := append([]string(nil), store.puts...)

	replacement := pngBytes(t, 120, 90)
	rec.SetRawData(replacement)
	require.NoError(t, ingest(t, l, rec))

	assert.Equal(t, filename, rec.Filename)
	assert.Equal(t, 120, *rec.Width)
	assert.Equal(t, append(first, first...), store.puts)
	assert.Equal(t, replacement, store.objects[l.Schema().Path(filename, VariantOriginal)])
	assert.Len(t, store.objects, 3)
}

func TestPublishStopsAtFirstFailure(t *testing.T) {
	l, store := newTestLifecycle(t, true, AllColumns)

	rec := &Record{}
	rec.SetRawData(pngBytes(t, 300, 200))
	l.Prepare(rec)
	require.NoError(t, l.Validate(rec))

	store.failPut[l.Schema().Path(rec.Filename, "large")] = true
	err := l.Publish(context.Background(), rec)
	require.Error(t, err)

	// The original went up, "large" failed and "thumb" was never attempted.
	assert.Equal(t, []string{
		l.Schema().Path(rec.Filename, VariantOriginal),
		l.Schema().Path(rec.Filename, "large"),
	}, store.puts)
	assert.Contains(t, store.objects, l.Schema().Path(rec.Filename, VariantOriginal))
	assert.False(t, rec.HasRawData())
	assert.NotEmpty(t, rec.Filename)
}

func TestPublishRenderFailureKeepsOriginal(t *testing.T) {
	l, store := newTestLifecycle(t, true, AllColumns)

	rec := &Record{Filename: "a/b/ab.png", ContentType: "image/png"}
	rec.SetRawData([]byte("passes validation but does not decode"))

	err := l.Publish(context.Background(), rec)
	require.ErrorIs(t, err, imageproc.ErrRender)
	assert.Equal(t, []string{"photos/a/b/ab.png"}, store.puts)
	assert.False(t, rec.HasRawData())
}

func TestRetire(t *testing.T) {
	l, store := newTestLifecycle(t, true, AllColumns)

	require.NoError(t, l.Retire(context.Background(), &Record{Filename: "a/b/ab.jpg"}))
	assert.Equal(t, []string{"photos/a/b/ab.jpg", "photos/a/b/ab_large.jpg", "photos/a/b/ab_thumb.jpg"}, store.deletes)

	// Deleting again finds nothing but still succeeds.
	require.NoError(t, l.Retire(context.Background(), &Record{Filename: "a/b/ab.jpg"}))
	assert.Len(t, store.deletes, 6)
}

func TestRetireBlankFilename(t *testing.T) {
	l, store := newTestLifecycle(t, true, AllColumns)

	require.NoError(t, l.Retire(context.Background(), &Record{}))
	require.NoError(t, l.Retire(context.Background(), &Record{Filename: "  "}))
	assert.Empty(t, store.deletes)
}

func TestRetireAttemptsEveryDelete(t *testing.T) {
	l, store := newTestLifecycle(t, true, AllColumns)
	store.failDelete["photos/a/b/ab.jpg"] = true
	store.failDelete["photos/a/b/ab_large.jpg"] = true

	err := l.Retire(context.Background(), &Record{Filename: "a/b/ab.jpg"})
	require.Error(t, err)
	assert.Len(t, store.deletes, 3)
}

func TestURLs(t *testing.T) {
	l, _ := newTestLifecycle(t, true, AllColumns)

	assert.Nil(t, l.URLs(&Record{}))
	assert.Equal(t, "", l.URL(&Record{}, "thumb"))

	urls := l.URLs(&Record{Filename: "a/b/ab.gif"})
	assert.Equal(t, map[string]string{
		"original": "https://s3.example.com/media/photos/a/b/ab.gif",
		"thumb":    "https://s3.example.com/media/photos/a/b/ab_thumb.gif",
		"large":    "https://s3.example.com/media/photos/a/b/ab_large.gif",
	}, urls)
}
