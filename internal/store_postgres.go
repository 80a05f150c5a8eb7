package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps every collection as one jsonb array row in the
// collections table.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	if err := migrate(ctx, db); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ReadAll(ctx context.Context, collection string) ([]json.RawMessage, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	var raw []byte
	err := qRow(ctx, s.db,
		psql.Select("docs").From("collections").Where(sq.Eq{"name": collection}),
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}

	docs := []json.RawMessage{}
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return docs, nil
}

func (s *PostgresStore) WriteAll(ctx context.Context, collection string, docs []json.RawMessage) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if docs == nil {
		docs = []json.RawMessage{}
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}

	_, err = qExec(ctx, s.db,
		psql.Insert("collections").
			Columns("name", "docs", "updated_at").
			Values(collection, sq.Expr("?::jsonb", string(b)), sq.Expr("now()")).
			Suffix("ON CONFLICT (name) DO UPDATE SET docs = EXCLUDED.docs, updated_at = EXCLUDED.updated_at"),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	return nil
}
