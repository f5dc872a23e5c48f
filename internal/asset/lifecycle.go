package asset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/radif/media/internal/imageproc"
	"github.com/radif/media/internal/keygen"
	"github.com/radif/media/internal/storage"
)

// Accepted upload sizes for tables tracking ColumnSize.
const (
	MinSize = 1 << 10
	MaxSize = 10 << 20
)

var validate = validator.New()

// Lifecycle ingests image data into records of one schema and publishes or
// retires their objects. It holds no per-record state; callers serialize
// operations on the same record.
type Lifecycle struct {
	schema *Schema
	store  storage.Store
	keys   *keygen.Generator
	log    zerolog.Logger
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithKeyGenerator replaces the crypto/rand backed key generator.
func WithKeyGenerator(g *keygen.Generator) Option {
	return func(l *Lifecycle) { l.keys = g }
}

// WithLogger sets the logger; the global zerolog logger is used otherwise.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Lifecycle) { l.log = logger }
}

// NewLifecycle creates a Lifecycle for schema publishing to store.
func NewLifecycle(schema *Schema, store storage.Store, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		schema: schema,
		store:  store,
		keys:   keygen.New(nil),
		log:    log.Logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With().Str("table", schema.Table()).Logger()
	return l
}

// Schema returns the schema the lifecycle was built for.
func (l *Lifecycle) Schema() *Schema { return l.schema }

// Prepare derives metadata from the record's raw data and assigns a filename
// if the record has none yet. Records without raw data are left untouched.
// Undecodable data adds MsgInvalidImage and sets nothing.
func (l *Lifecycle) Prepare(rec *Record) {
	if !rec.HasRawData() {
		return
	}

	info, err := imageproc.Inspect(rec.raw)
	if err != nil {
		l.log.Info().Err(err).Msg("cannot process image data")
		rec.AddError(MsgInvalidImage)
		return
	}

	if l.schema.Tracks(ColumnSize) {
		size := int64(len(rec.raw))
		rec.Size = &size
	}
	rec.ContentType = imageproc.ContentTypeFor(info.Format)
	if l.schema.Tracks(ColumnWidth) {
		rec.Width = &info.Width
	}
	if l.schema.Tracks(ColumnHeight) {
		rec.Height = &info.Height
	}

	// A filename is assigned once; new data replaces the objects under it.
	if rec.Filename != "" {
		return
	}

	key, err := l.keys.Generate(ExtensionFor(rec.ContentType))
	if err != nil {
		l.log.Error().Err(err).Msg("cannot generate filename")
		rec.AddError(MsgFilenameUnassigned)
		return
	}
	rec.Filename = key
}

// Validate checks the content type and, when tracked, the size. Messages are
// added to the record; the combined result is returned.
func (l *Lifecycle) Validate(rec *Record) error {
	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate record: %w", err)
		}
		for _, fe := range verrs {
			if fe.Field() == "ContentType" {
				rec.AddError(MsgContentType)
			}
		}
	}

	if l.schema.Tracks(ColumnSize) {
		switch {
		case rec.Size == nil:
			rec.AddError(MsgSizeNotNumber)
		case validate.Var(*rec.Size, fmt.Sprintf("min=%d,max=%d", MinSize, MaxSize)) != nil:
			rec.AddError(MsgSizeRange)
		}
	}
	return rec.Err()
}

// Publish uploads the original (when kept) and every rendered variant of a
// valid record with raw data. The first failure stops the remaining uploads;
// objects already stored stay. Raw data is dropped whatever the outcome.
func (l *Lifecycle) Publish(ctx context.Context, rec *Record) error {
	if !rec.Valid() || !rec.HasRawData() {
		return nil
	}
	defer rec.clearRawData()

	logger := l.log.With().Str("filename", rec.Filename).Logger()

	if l.schema.KeepOriginal() {
		key := l.schema.Path(rec.Filename, VariantOriginal)
		if err := l.store.Put(ctx, key, rec.raw, rec.ContentType); err != nil {
			logger.Error().Err(err).Str("key", key).Msg("saving original failed")
			return err
		}
		logger.Info().Str("key", key).Msg("saved original")
	}

	variants, err := imageproc.RenderAll(ctx, rec.raw, l.schema.sizes)
	if err != nil {
		logger.Error().Err(err).Msg("rendering variants failed")
		return err
	}

	for _, name := range l.schema.names {
		key := l.schema.Path(rec.Filename, name)
		if err := l.store.Put(ctx, key, variants[name], rec.ContentType); err != nil {
			logger.Error().Err(err).Str("key", key).Str("variant", name).Msg("saving variant failed")
			return err
		}
		logger.Info().Str("key", key).Str("variant", name).Msg("saved variant")
	}
	return nil
}

// Retire deletes every object of the record. Each delete is attempted even
// when an earlier one fails; the failures are returned joined.
func (l *Lifecycle) Retire(ctx context.Context, rec *Record) error {
	if strings.TrimSpace(rec.Filename) == "" {
		return nil
	}

	var errs []error
	for _, key := range l.schema.Keys(rec.Filename) {
		if err := l.store.Delete(ctx, key); err != nil {
			l.log.Error().Err(err).Str("key", key).Msg("deleting object failed")
			errs = append(errs, err)
			continue
		}
		l.log.Info().Str("key", key).Msg("deleted object")
	}
	return errors.Join(errs...)
}

// URL returns the public URL of variant for rec, or "" when rec has no filename.
func (l *Lifecycle) URL(rec *Record, variant string) string {
	if rec.Filename == "" {
		return ""
	}
	return l.store.PublicURL(l.schema.Path(rec.Filename, variant))
}

// URLs returns the public URL of every stored variant, keyed by variant name.
func (l *Lifecycle) URLs(rec *Record) map[string]string {
	if rec.Filename == "" {
		return nil
	}
	urls := make(map[string]string, len(l.schema.names)+1)
	if l.schema.KeepOriginal() {
		urls[VariantOriginal] = l.URL(rec, VariantOriginal)
	}
	for _, name := range l.schema.names {
		urls[name] = l.URL(rec, name)
	}
	return urls
}
