package asset

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("asset not found")

// ErrFilenameTaken is returned when a filename is already stored.
var ErrFilenameTaken = errors.New("filename already taken")

// Validation messages attached to records.
const (
	MsgInvalidImage       = "Not a valid image"
	MsgContentType        = "Content type is not included in the list"
	MsgSizeNotNumber      = "Size is not a number"
	MsgSizeRange          = "Size is not included in the list"
	MsgFilenameTaken      = "Filename has already been taken"
	MsgFilenameUnassigned = "Filename could not be assigned"
)

// Record is an image record. Filename is the storage key and stays empty
// until an ingest succeeds.
type Record struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename,omitempty"`
	ContentType string    `json:"contentType,omitempty" validate:"omitempty,oneof=image/jpeg image/pjpeg image/gif image/png image/x-png image/jpg image/tiff"`
	Size        *int64    `json:"size,omitempty"`
	Width       *int      `json:"width,omitempty"`
	Height      *int      `json:"height,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	raw  []byte
	errs []string
}

// Attach reads an uploaded file into the record. Nil or empty uploads are ignored.
func (r *Record) Attach(src io.Reader) error {
	if src == nil {
		return nil
	}
	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind upload: %w", err)
		}
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	r.raw = data
	return nil
}

// SetRawData attaches raw image bytes for the next save.
func (r *Record) SetRawData(data []byte) { r.raw = data }

// HasRawData reports whether image bytes are waiting to be ingested.
func (r *Record) HasRawData() bool { return len(r.raw) > 0 }

func (r *Record) clearRawData() { r.raw = nil }

// AddError records a user-visible validation message.
func (r *Record) AddError(msg string) { r.errs = append(r.errs, msg) }

// Errors returns the validation messages of the last save.
func (r *Record) Errors() []string { return append([]string(nil), r.errs...) }

// Valid reports whether no validation messages are recorded.
func (r *Record) Valid() bool { return len(r.errs) == 0 }

func (r *Record) resetErrors() { r.errs = nil }

// Err returns the record's validation messages as a *ValidationError, or nil.
func (r *Record) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Messages: r.Errors()}
}

// ValidationError reports why a record could not be saved.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}
