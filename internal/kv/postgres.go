package kv

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps documents in the kv_store table (see internal/postgres
// migrations). Values are jsonb, so anything stored must be valid JSON.
type Postgres struct {
	DB *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{DB: db}
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := p.DB.QueryRow(ctx, `SELECT value::text FROM kv_store WHERE key=$1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.DB.Exec(ctx, `
		INSERT INTO kv_store(key, value) VALUES ($1, $2::jsonb)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, string(value))
	return err
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.DB.Exec(ctx, `DELETE FROM kv_store WHERE key=$1`, key)
	return err
}

func (p *Postgres) GetByPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	rows, err := p.DB.Query(ctx, `SELECT value::text FROM kv_store WHERE starts_with(key, $1)`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([][]byte, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, []byte(v))
	}
	return out, rows.Err()
}

// Incr is a single upsert statement, so concurrent callers never observe
// the same value.
func (p *Postgres) Incr(ctx context.Context, key string) (int64, error) {
	var n int64
	err := p.DB.QueryRow(ctx, `
		INSERT INTO kv_store(key, value) VALUES ($1, '1'::jsonb)
		ON CONFLICT (key) DO UPDATE
			SET value = to_jsonb((kv_store.value #>> '{}')::bigint + 1)
		RETURNING (value #>> '{}')::bigint
	`, key).Scan(&n)
	return n, err
}

func (p *Postgres) Close() error {
	p.DB.Close()
	return nil
}
