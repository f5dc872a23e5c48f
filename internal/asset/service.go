package asset

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Records is the persistence the Service needs. *Repository implements it.
type Records interface {
	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, limit, offset int) ([]*Record, int64, error)
	Delete(ctx context.Context, id string) error
	FilenameTaken(ctx context.Context, filename, exceptID string) (bool, error)
}

// Service runs the image lifecycle around record saves and deletes.
type Service struct {
	repo      Records
	lifecycle *Lifecycle
}

// NewService creates a new asset Service.
func NewService(repo Records, lifecycle *Lifecycle) *Service {
	return &Service{repo: repo, lifecycle: lifecycle}
}

// Lifecycle returns the lifecycle records are published with.
func (s *Service) Lifecycle() *Lifecycle { return s.lifecycle }

// Save ingests any attached image data, validates and persists rec, then
// publishes its objects. Validation failures are returned as *ValidationError
// and nothing is stored. Object store failures are logged only; the record
// stays saved.
func (s *Service) Save(ctx context.Context, rec *Record) error {
	rec.resetErrors()
	s.lifecycle.Prepare(rec)

	if err := s.lifecycle.Validate(rec); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return err
		}
	}

	if rec.Filename != "" && rec.HasRawData() {
		taken, err := s.repo.FilenameTaken(ctx, rec.Filename, rec.ID)
		if err != nil {
			return err
		}
		if taken {
			rec.AddError(MsgFilenameTaken)
		}
	}
	if err := rec.Err(); err != nil {
		return err
	}

	var err error
	if rec.ID == "" {
		err = s.repo.Create(ctx, rec)
	} else {
		err = s.repo.Update(ctx, rec)
	}
	if errors.Is(err, ErrFilenameTaken) {
		rec.AddError(MsgFilenameTaken)
		return rec.Err()
	}
	if err != nil {
		return fmt.Errorf("save asset: %w", err)
	}

	// The row is committed; a caller going away must not cut the uploads short.
	if err := s.lifecycle.Publish(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn().Err(err).Str("id", rec.ID).Str("filename", rec.Filename).
			Msg("asset saved but not all objects were published")
	}
	return nil
}

// Get returns a record by id.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of records and the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Record, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

// Destroy deletes the record, then its objects. Object store failures are
// logged only; the record is gone either way.
func (s *Service) Destroy(ctx context.Context, id string) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.lifecycle.Retire(ctx, rec); err != nil {
		log.Warn().Err(err).Str("id", id).Str("filename", rec.Filename).
			Msg("asset deleted but some objects remain")
	}
	return nil
}

// IsNotFound returns true when the error indicates a record was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
