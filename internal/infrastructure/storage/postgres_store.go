// Package storage persists the recommendation schema in Postgres.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"SlateBuilder/internal/domain"
	"SlateBuilder/internal/ports"
)

// PostgresStore implements the library reads, content ingest, domain-stats
// maintenance, and the transactional slate write.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.Library         = (*PostgresStore)(nil)
	_ ports.SlateStore      = (*PostgresStore)(nil)
	_ ports.ContentWriter   = (*PostgresStore)(nil)
	_ ports.StatsMaintainer = (*PostgresStore)(nil)
)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Migrate creates the schema when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS contents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		domain TEXT NOT NULL DEFAULT '',
		saved_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contents_user_saved ON contents(user_id, saved_at DESC);

	CREATE TABLE IF NOT EXISTS content_features (
		content_id TEXT PRIMARY KEY REFERENCES contents(id),
		reading_bucket TEXT
	);

	CREATE TABLE IF NOT EXISTS theme_items (
		content_id TEXT NOT NULL REFERENCES contents(id),
		theme_id TEXT NOT NULL,
		PRIMARY KEY (content_id, theme_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		content_id TEXT,
		slate_id TEXT,
		type TEXT NOT NULL,
		context JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_events_user_content_type ON events(user_id, content_id, type);

	CREATE TABLE IF NOT EXISTS user_domain_stats (
		user_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		save_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, domain)
	);

	CREATE TABLE IF NOT EXISTS slates (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		meta JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS slate_items (
		slate_id TEXT NOT NULL REFERENCES slates(id),
		position INTEGER NOT NULL,
		content_id TEXT NOT NULL,
		score INTEGER NOT NULL,
		reasons TEXT[] NOT NULL DEFAULT '{}',
		PRIMARY KEY (slate_id, position)
	);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SavedItems lists a user's saved items newest first, including the optional
// reading bucket and theme features.
func (s *PostgresStore) SavedItems(ctx context.Context, userID string, limit int) ([]domain.SavedItem, error) {
	query := s.builder.
		Select("c.id", "c.user_id", "c.url", "c.title", "c.domain", "c.saved_at", "f.reading_bucket").
		From("contents c").
		LeftJoin("content_features f ON f.content_id = c.id").
		Where(sq.Eq{"c.user_id": userID}).
		OrderBy("c.saved_at DESC").
		Limit(uint64(limit))

	sqlText, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build saved items query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("query saved items: %w", err))
	}
	defer rows.Close()

	var items []domain.SavedItem
	ids := make([]string, 0)
	for rows.Next() {
		var item domain.SavedItem
		var bucket sql.NullString
		if err := rows.Scan(&item.ID, &item.UserID, &item.URL, &item.Title, &item.Domain, &item.SavedAt, &bucket); err != nil {
			return nil, fmt.Errorf("scan saved item: %w", err)
		}
		if bucket.Valid {
			item.ReadingBucket = domain.ReadingBucket(bucket.String)
		}
		items = append(items, item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("rows iteration: %w", err))
	}

	if len(items) == 0 {
		return nil, nil
	}

	themes, err := s.themesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ThemeIDs = themes[items[i].ID]
	}

	return items, nil
}

func (s *PostgresStore) themesFor(ctx context.Context, contentIDs []string) (map[string][]string, error) {
	query := `SELECT content_id, theme_id FROM theme_items WHERE content_id = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.StringArray(contentIDs))
	if err != nil {
		return nil, classify(fmt.Errorf("query themes: %w", err))
	}
	defer rows.Close()

	themes := make(map[string][]string)
	for rows.Next() {
		var contentID, themeID string
		if err := rows.Scan(&contentID, &themeID); err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		themes[contentID] = append(themes[contentID], themeID)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("rows iteration: %w", err))
	}

	return themes, nil
}

// OpenCount counts "open" interaction events for one (user, content) pair.
func (s *PostgresStore) OpenCount(ctx context.Context, userID, contentID string) (int, error) {
	sqlText, args, err := s.builder.
		Select("COUNT(*)").
		From("events").
		Where(sq.Eq{"user_id": userID, "content_id": contentID, "type": eventOpen}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build open count query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, sqlText, args...).Scan(&count); err != nil {
		return 0, classify(fmt.Errorf("count opens: %w", err))
	}
	return count, nil
}

// DomainStats lists a user's domains ordered by save count descending.
func (s *PostgresStore) DomainStats(ctx context.Context, userID string, limit int) ([]domain.DomainStat, error) {
	sqlText, args, err := s.builder.
		Select("domain", "save_count").
		From("user_domain_stats").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("save_count DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build domain stats query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("query domain stats: %w", err))
	}
	defer rows.Close()

	var stats []domain.DomainStat
	for rows.Next() {
		var ds domain.DomainStat
		if err := rows.Scan(&ds.Domain, &ds.SaveCount); err != nil {
			return nil, fmt.Errorf("scan domain stat: %w", err)
		}
		stats = append(stats, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("rows iteration: %w", err))
	}

	return stats, nil
}

// CreateSlate writes the slate row, its ranked items, and one impression
// event per item inside a single transaction. Any failure rolls the whole
// write back; transient failures are marked for the persistor's retry.
func (s *PostgresStore) CreateSlate(ctx context.Context, slate domain.Slate, items []domain.SlateItem, events []domain.ImpressionEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin slate tx: %w", err))
	}
	defer tx.Rollback()

	meta, err := json.Marshal(slate.Meta)
	if err != nil {
		return fmt.Errorf("marshal slate meta: %w", err)
	}

	sqlText, args, err := s.builder.
		Insert("slates").
		Columns("id", "user_id", "meta").
		Values(slate.ID, slate.UserID, meta).
		ToSql()
	if err != nil {
		return fmt.Errorf("build slate insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqlText, args...); err != nil {
		return classify(fmt.Errorf("insert slate: %w", err))
	}

	if len(items) > 0 {
		insert := s.builder.
			Insert("slate_items").
			Columns("slate_id", "position", "content_id", "score", "reasons")
		for _, item := range items {
			insert = insert.Values(item.SlateID, item.Position, item.ContentID, item.Score, pq.StringArray(item.Reasons))
		}
		sqlText, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("build slate items insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, sqlText, args...); err != nil {
			return classify(fmt.Errorf("insert slate items: %w", err))
		}
	}

	for _, ev := range events {
		evCtx, err := json.Marshal(map[string]any{"reasons": ev.Reasons})
		if err != nil {
			return fmt.Errorf("marshal event context: %w", err)
		}

		sqlText, args, err = s.builder.
			Insert("events").
			Columns("id", "user_id", "content_id", "slate_id", "type", "context").
			Values(ev.ID, ev.UserID, ev.ContentID, ev.SlateID, eventImpression, evCtx).
			ToSql()
		if err != nil {
			return fmt.Errorf("build impression insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, sqlText, args...); err != nil {
			return classify(fmt.Errorf("insert impression: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit slate tx: %w", err))
	}
	return nil
}

// SaveContent stores an ingested item and bumps the domain save count in the
// same transaction.
func (s *PostgresStore) SaveContent(ctx context.Context, item domain.SavedItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin ingest tx: %w", err))
	}
	defer tx.Rollback()

	query := `INSERT INTO contents (id, user_id, url, title, domain, saved_at)
              VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, query,
		item.ID, item.UserID, item.URL, item.Title, item.Domain, item.SavedAt); err != nil {
		return classify(fmt.Errorf("insert content: %w", err))
	}

	bump := `INSERT INTO user_domain_stats (user_id, domain, save_count)
             VALUES ($1, $2, 1)
             ON CONFLICT (user_id, domain) DO UPDATE
             SET save_count = user_domain_stats.save_count + 1`
	if _, err := tx.ExecContext(ctx, bump, item.UserID, item.Domain); err != nil {
		return classify(fmt.Errorf("bump domain stat: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit ingest tx: %w", err))
	}
	return nil
}

// RecordOpen stores one "open" interaction event.
func (s *PostgresStore) RecordOpen(ctx context.Context, userID, contentID string) error {
	sqlText, args, err := s.builder.
		Insert("events").
		Columns("id", "user_id", "content_id", "type").
		Values(sq.Expr("gen_random_uuid()::text"), userID, contentID, eventOpen).
		ToSql()
	if err != nil {
		return fmt.Errorf("build open insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, sqlText, args...); err != nil {
		return classify(fmt.Errorf("insert open event: %w", err))
	}
	return nil
}

// RecomputeDomainStats rebuilds the per-user save counts from the raw
// content rows. Incremental bumps keep the counts fresh between runs; this
// reconciles drift.
func (s *PostgresStore) RecomputeDomainStats(ctx context.Context) error {
	query := `INSERT INTO user_domain_stats (user_id, domain, save_count)
              SELECT user_id, domain, COUNT(*)
              FROM contents
              WHERE domain <> ''
              GROUP BY user_id, domain
              ON CONFLICT (user_id, domain) DO UPDATE
              SET save_count = EXCLUDED.save_count`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return classify(fmt.Errorf("recompute domain stats: %w", err))
	}
	return nil
}

const (
	eventOpen       = "OPEN"
	eventImpression = "IMPRESSION"
)
