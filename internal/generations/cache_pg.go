package generations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"resume-generator/resume/model"
)

// PGCache implements Cache on the generation_cache table.
type PGCache struct {
	DB *sql.DB
}

func (c *PGCache) Get(ctx context.Context, key string) (Result, bool, error) {
	const query = `
SELECT result
FROM generation_cache
WHERE key = $1
LIMIT 1`
	var raw []byte
	if err := c.DB.QueryRowContext(ctx, query, key).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, false, nil
		}
		return Result{}, false, err
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return res, true, nil
}

func (c *PGCache) GetDraft(ctx context.Context, draftKey string) (model.Draft, bool, error) {
	const query = `
SELECT result -> 'draft'
FROM generation_cache
WHERE draft_key = $1
ORDER BY created_at DESC
LIMIT 1`
	var raw []byte
	if err := c.DB.QueryRowContext(ctx, query, draftKey).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Draft{}, false, nil
		}
		return model.Draft{}, false, err
	}
	var draft model.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return model.Draft{}, false, fmt.Errorf("decode cached draft: %w", err)
	}
	return draft, true, nil
}

// Put inserts res. A concurrent writer of the same key wins silently.
func (c *PGCache) Put(ctx context.Context, res Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	const query = `
INSERT INTO generation_cache (key, draft_key, user_id, fingerprint, format, model_id, result, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (key) DO NOTHING`
	_, err = c.DB.ExecContext(ctx, query,
		res.Key,
		res.DraftKey,
		res.UserID,
		res.Fingerprint,
		string(res.Format),
		res.ModelID,
		raw,
		res.CreatedAt,
	)
	return err
}

func (c *PGCache) InvalidateUser(ctx context.Context, userID string) error {
	_, err := c.DB.ExecContext(ctx, `DELETE FROM generation_cache WHERE user_id = $1`, userID)
	return err
}

func (c *PGCache) PurgeStale(ctx context.Context, userID, fingerprint string) error {
	_, err := c.DB.ExecContext(ctx,
		`DELETE FROM generation_cache WHERE user_id = $1 AND fingerprint <> $2`,
		userID, fingerprint)
	return err
}

var _ Cache = (*PGCache)(nil)
