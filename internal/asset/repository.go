package asset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles record persistence for one schema's table. Optional
// columns are resolved once, when the repository is built.
type Repository struct {
	db     *pgxpool.Pool
	schema *Schema
	table  string
	cols   string
	opt    []string
}

// NewRepository creates a new Repository for schema's table.
func NewRepository(db *pgxpool.Pool, schema *Schema) *Repository {
	var opt []string
	if schema.Tracks(ColumnSize) {
		opt = append(opt, "size")
	}
	if schema.Tracks(ColumnWidth) {
		opt = append(opt, "width")
	}
	if schema.Tracks(ColumnHeight) {
		opt = append(opt, "height")
	}

	cols := []string{"id", "COALESCE(filename, '')", "COALESCE(content_type, '')"}
	cols = append(cols, opt...)
	cols = append(cols, "created_at", "updated_at")

	return &Repository{
		db:     db,
		schema: schema,
		table:  pgx.Identifier{schema.Table()}.Sanitize(),
		cols:   strings.Join(cols, ", "),
		opt:    opt,
	}
}

// scanTargets mirrors the column list built in NewRepository.
func (r *Repository) scanTargets(rec *Record) []any {
	dest := []any{&rec.ID, &rec.Filename, &rec.ContentType}
	for _, c := range r.opt {
		switch c {
		case "size":
			dest = append(dest, &rec.Size)
		case "width":
			dest = append(dest, &rec.Width)
		case "height":
			dest = append(dest, &rec.Height)
		}
	}
	return append(dest, &rec.CreatedAt, &rec.UpdatedAt)
}

// values returns the optional column values of rec, in column order.
func (r *Repository) values(rec *Record) []any {
	vals := make([]any, 0, len(r.opt))
	for _, c := range r.opt {
		switch c {
		case "size":
			vals = append(vals, rec.Size)
		case "width":
			vals = append(vals, rec.Width)
		case "height":
			vals = append(vals, rec.Height)
		}
	}
	return vals
}

// Create inserts rec and fills in its id and timestamps.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	names := append([]string{"filename", "content_type"}, r.opt...)
	placeholders := make([]string, len(names))
	for i := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	placeholders[0] = "NULLIF($1, '')"
	placeholders[1] = "NULLIF($2, '')"

	args := append([]any{rec.Filename, rec.ContentType}, r.values(rec)...)
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		r.table, strings.Join(names, ", "), strings.Join(placeholders, ", "), r.cols)

	if err := r.db.QueryRow(ctx, query, args...).Scan(r.scanTargets(rec)...); err != nil {
		if isUniqueViolation(err) {
			return ErrFilenameTaken
		}
		return fmt.Errorf("create %s record: %w", r.schema.Table(), err)
	}
	return nil
}

// Update writes rec's image metadata back.
func (r *Repository) Update(ctx context.Context, rec *Record) error {
	sets := []string{"filename = NULLIF($2, '')", "content_type = NULLIF($3, '')"}
	for i, c := range r.opt {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+4))
	}
	sets = append(sets, "updated_at = NOW()")

	args := append([]any{rec.ID, rec.Filename, rec.ContentType}, r.values(rec)...)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 RETURNING %s`,
		r.table, strings.Join(sets, ", "), r.cols)

	err := r.db.QueryRow(ctx, query, args...).Scan(r.scanTargets(rec)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return ErrFilenameTaken
		}
		return fmt.Errorf("update %s record: %w", r.schema.Table(), err)
	}
	return nil
}

// GetByID fetches a record by its UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Record, error) {
	rec := &Record{}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, r.cols, r.table)
	err := r.db.QueryRow(ctx, query, id).Scan(r.scanTargets(rec)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s record: %w", r.schema.Table(), err)
	}
	return rec, nil
}

// List returns a page of records, newest first, and the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Record, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s records: %w", r.schema.Table(), err)
	}

	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC LIMIT $1 OFFSET $2`, r.cols, r.table),
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s records: %w", r.schema.Table(), err)
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(r.scanTargets(rec)...); err != nil {
			return nil, 0, fmt.Errorf("scan %s record: %w", r.schema.Table(), err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list %s records: %w", r.schema.Table(), err)
	}
	return recs, total, nil
}

// Delete removes the record with the given id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
	if err != nil {
		return fmt.Errorf("delete %s record: %w", r.schema.Table(), err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FilenameTaken reports whether another record already uses filename.
func (r *Repository) FilenameTaken(ctx context.Context, filename, exceptID string) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE filename = $1 AND ($2 = '' OR id::text <> $2))`, r.table),
		filename, exceptID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check %s filename: %w", r.schema.Table(), err)
	}
	return taken, nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
