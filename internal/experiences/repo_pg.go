package experiences

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
)

// PGRepo implements Repo using Postgres with the pgvector extension.
type PGRepo struct {
	DB *sql.DB
}

const pgRecordColumns = `id, owner_id, kind, company, location, role, start_date, end_date, description, created_at`

// ListByOwner returns active records for the owner.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Record, error) {
	const query = `
SELECT ` + pgRecordColumns + `
FROM experience_records
WHERE owner_id = $1 AND superseded_at IS NULL
ORDER BY start_date DESC NULLS LAST, id`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanPGRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Search orders by cosine distance, then by most recent start date.
func (r *PGRepo) Search(ctx context.Context, ownerID string, query []float32, k int) ([]Scored, error) {
	if k <= 0 {
		return []Scored{}, nil
	}
	const q = `
SELECT ` + pgRecordColumns + `, 1 - (embedding <=> $2) AS score
FROM experience_records
WHERE owner_id = $1
  AND superseded_at IS NULL
  AND kind <> 'info'
  AND embedding IS NOT NULL
ORDER BY embedding <=> $2, start_date DESC NULLS LAST, id
LIMIT $3`
	rows, err := r.DB.QueryContext(ctx, q, ownerID, pgvector.NewVector(query), k)
	if err != nil {
		return nil, mapPGError(err)
	}
	defer rows.Close()

	out := make([]Scored, 0, k)
	for rows.Next() {
		var (
			s         Scored
			kind      string
			startDate sql.NullTime
			endDate   sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.OwnerID, &kind, &s.Company, &s.Location, &s.Role,
			&startDate, &endDate, &s.Description, &s.CreatedAt, &s.Score); err != nil {
			return nil, err
		}
		s.Kind = Kind(kind)
		applyDates(&s.Record, startDate, endDate)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPGError(err)
	}
	return out, nil
}

// Insert writes records in one transaction.
func (r *PGRepo) Insert(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
INSERT INTO experience_records (
    id, owner_id, kind, company, location, role, start_date, end_date, description, embedding, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, rec := range records {
		var embedding any
		if len(rec.Embedding) > 0 {
			embedding = pgvector.NewVector(rec.Embedding)
		}
		if _, err := tx.ExecContext(ctx, query,
			rec.ID,
			rec.OwnerID,
			string(rec.Kind),
			rec.Company,
			rec.Location,
			rec.Role,
			nullDate(rec.StartDate),
			nullDatePtr(rec.EndDate),
			rec.Description,
			embedding,
			rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert experience %s: %w", rec.ID, mapPGError(err))
		}
	}
	return tx.Commit()
}

// Supersede marks a record as replaced.
func (r *PGRepo) Supersede(ctx context.Context, ownerID, id string, at time.Time) error {
	const query = `
UPDATE experience_records
SET superseded_at = $3
WHERE id = $1 AND owner_id = $2 AND superseded_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, id, ownerID, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPGRecord(row rowScanner) (Record, error) {
	var (
		rec       Record
		kind      string
		startDate sql.NullTime
		endDate   sql.NullTime
	)
	if err := row.Scan(&rec.ID, &rec.OwnerID, &kind, &rec.Company, &rec.Location, &rec.Role,
		&startDate, &endDate, &rec.Description, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	rec.Kind = Kind(kind)
	applyDates(&rec, startDate, endDate)
	return rec, nil
}

func applyDates(rec *Record, start, end sql.NullTime) {
	if start.Valid {
		rec.StartDate = start.Time.UTC()
	}
	if end.Valid {
		t := end.Time.UTC()
		rec.EndDate = &t
	}
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullDatePtr(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}

// mapPGError turns pgvector's dimension errors into ErrDimensionMismatch.
func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "different vector dimensions") || strings.Contains(msg, "dimensions, not") {
		return fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
	}
	return err
}

var _ Repo = (*PGRepo)(nil)
