package experiences

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// SQLiteRepo implements Repo on SQLite. Embeddings are stored as
// little-endian float32 blobs and ranked in process.
type SQLiteRepo struct {
	DB *sql.DB
}

const sqliteColumns = `id, owner_id, kind, company, location, role, start_date, end_date, description, embedding, created_at`

// ListByOwner returns active records for the owner.
func (r *SQLiteRepo) ListByOwner(ctx context.Context, ownerID string) ([]Record, error) {
	out, err := r.load(ctx, `
SELECT `+sqliteColumns+`
FROM experience_records
WHERE owner_id = ? AND superseded_at IS NULL`, ownerID)
	if err != nil {
		return nil, err
	}
	SortByStartDesc(out)
	return out, nil
}

// Search loads searchable records and ranks them by cosine similarity.
func (r *SQLiteRepo) Search(ctx context.Context, ownerID string, query []float32, k int) ([]Scored, error) {
	candidates, err := r.load(ctx, `
SELECT `+sqliteColumns+`
FROM experience_records
WHERE owner_id = ? AND superseded_at IS NULL AND kind <> 'info' AND embedding IS NOT NULL`, ownerID)
	if err != nil {
		return nil, err
	}
	return Rank(candidates, query, k)
}

// Insert writes records in one transaction.
func (r *SQLiteRepo) Insert(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
INSERT INTO experience_records (` + sqliteColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, rec := range records {
		var blob any
		if len(rec.Embedding) > 0 {
			blob = encodeFloat32s(rec.Embedding)
		}
		if _, err := tx.ExecContext(ctx, query,
			rec.ID,
			rec.OwnerID,
			string(rec.Kind),
			rec.Company,
			rec.Location,
			rec.Role,
			formatSQLiteTime(rec.StartDate),
			formatSQLiteTimePtr(rec.EndDate),
			rec.Description,
			blob,
			rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert experience %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// Supersede marks a record as replaced.
func (r *SQLiteRepo) Supersede(ctx context.Context, ownerID, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE experience_records SET superseded_at = ?
WHERE id = ? AND owner_id = ? AND superseded_at IS NULL`,
		at.UTC().Format(time.RFC3339Nano), id, ownerID)
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

func (r *SQLiteRepo) load(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec                Record
			kind, createdAt    string
			startDate, endDate sql.NullString
			blob               []byte
		)
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &kind, &rec.Company, &rec.Location, &rec.Role,
			&startDate, &endDate, &rec.Description, &blob, &createdAt); err != nil {
			return nil, err
		}
		rec.Kind = Kind(kind)
		if startDate.Valid && startDate.String != "" {
			if rec.StartDate, err = time.Parse(time.RFC3339, startDate.String); err != nil {
				return nil, fmt.Errorf("record %s start_date: %w", rec.ID, err)
			}
		}
		if endDate.Valid && endDate.String != "" {
			t, err := time.Parse(time.RFC3339, endDate.String)
			if err != nil {
				return nil, fmt.Errorf("record %s end_date: %w", rec.ID, err)
			}
			rec.EndDate = &t
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("record %s created_at: %w", rec.ID, err)
		}
		if len(blob) > 0 {
			if rec.Embedding, err = decodeFloat32s(blob); err != nil {
				return nil, fmt.Errorf("record %s embedding: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func formatSQLiteTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func formatSQLiteTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatSQLiteTime(*t)
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes little-endian bytes into a new float32 slice.
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d", len(b))
	}
	n := len(b) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

var _ Repo = (*SQLiteRepo)(nil)
