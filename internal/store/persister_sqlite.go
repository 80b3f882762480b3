// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/MKhiriev/go-note-sync/internal/logger"
	"github.com/MKhiriev/go-note-sync/models"
	"github.com/sethvargo/go-retry"
)

const (
	tableCollections = "collections"
	tableItems       = "items"
	tableConflicts   = "conflicts"

	busyRetries    = 3
	busyRetryDelay = 50 * time.Millisecond
)

var (
	collectionColumns = []string{"uid", "key_id", "checkpoint", "meta"}
	itemColumns       = []string{
		"collection_uid", "uid", "meta", "content",
		"revision_id", "revision_parent", "revision_number", "history", "conflicted",
	}
	conflictColumns = []string{"collection_uid", "item_uid", "id", "record", "detected_at"}
)

// cachePersister stores the decrypted cache of one owner in sqlite.
type cachePersister struct {
	*DB
	owner  string
	sql    sq.StatementBuilderType
	logger *logger.Logger
}

// NewCachePersister returns a [Persister] over db scoped to owner (the
// account login). Rows of other owners are never read or written.
func NewCachePersister(db *DB, owner string, logger *logger.Logger) (Persister, error) {
	if owner == "" {
		return nil, ErrEmptyOwner
	}
	return &cachePersister{
		DB:     db,
		owner:  owner,
		sql:    sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger: logger,
	}, nil
}

// Load implements [Persister].
func (p *cachePersister) Load(ctx context.Context) ([]CollectionState, error) {
	log := logger.FromContext(ctx)

	cols, err := p.loadCollections(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]CollectionState, 0, len(cols))
	index := make(map[string]int, len(cols))
	for i, col := range cols {
		index[col.UID] = i
		states = append(states, CollectionState{Collection: col})
	}

	items, err := p.loadItems(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		i, ok := index[item.CollectionUID]
		if !ok {
			continue
		}
		states[i].Items = append(states[i].Items, item)
	}

	conflicts, err := p.loadConflicts(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range conflicts {
		i, ok := index[c.CollectionUID]
		if !ok {
			continue
		}
		states[i].Conflicts = append(states[i].Conflicts, c)
	}

	log.Debug().
		Str("func", "cachePersister.Load").
		Int("collections", len(states)).
		Int("items", len(items)).
		Int("conflicts", len(conflicts)).
		Msg("loaded cache from disk")

	return states, nil
}

func (p *cachePersister) loadCollections(ctx context.Context) ([]models.Collection, error) {
	query, args, err := p.sql.Select(collectionColumns...).
		From(tableCollections).
		Where(sq.Eq{"owner": p.owner}).
		OrderBy("uid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: collections: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var cols []models.Collection
	for rows.Next() {
		var (
			col  models.Collection
			meta sql.NullString
		)
		if err := rows.Scan(&col.UID, &col.KeyID, &col.Checkpoint, &meta); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if col.Meta, err = decodeMeta(meta); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return cols, nil
}

func (p *cachePersister) loadItems(ctx context.Context) ([]models.Item, error) {
	query, args, err := p.sql.Select(itemColumns...).
		From(tableItems).
		Where(sq.Eq{"owner": p.owner}).
		OrderBy("collection_uid", "uid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: items: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var (
			item    models.Item
			meta    sql.NullString
			history sql.NullString
		)
		if err := rows.Scan(
			&item.CollectionUID,
			&item.UID,
			&meta,
			&item.Content,
			&item.Revision.ID,
			&item.Revision.Parent,
			&item.Revision.Number,
			&history,
			&item.Conflicted,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if item.Meta, err = decodeMeta(meta); err != nil {
			return nil, err
		}
		if history.Valid && history.String != "" {
			if err := json.Unmarshal([]byte(history.String), &item.History); err != nil {
				return nil, fmt.Errorf("%w: history of %s: %w", ErrDecodingRow, item.UID, err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return items, nil
}

func (p *cachePersister) loadConflicts(ctx context.Context) ([]models.ConflictRecord, error) {
	query, args, err := p.sql.Select("record").
		From(tableConflicts).
		Where(sq.Eq{"owner": p.owner}).
		OrderBy("collection_uid", "item_uid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: conflicts: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.ConflictRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		var rec models.ConflictRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%w: conflict: %w", ErrDecodingRow, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

// SaveCollection implements [Persister].
func (p *cachePersister) SaveCollection(ctx context.Context, col models.Collection) error {
	meta, err := encodeJSON(col.Meta)
	if err != nil {
		return err
	}

	query, args, err := p.sql.Insert(tableCollections).
		Columns("owner", "uid", "key_id", "checkpoint", "meta").
		Values(p.owner, col.UID, col.KeyID, col.Checkpoint, meta).
		Suffix("ON CONFLICT (owner, uid) DO UPDATE SET key_id = excluded.key_id, checkpoint = excluded.checkpoint, meta = excluded.meta, updated_at = CURRENT_TIMESTAMP").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := p.DB.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "cachePersister.SaveCollection").
			Str("collection_uid", col.UID).
			Msg("failed to save collection")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ApplyMutations implements [Persister]. A transaction that fails with
// SQLITE_BUSY or SQLITE_LOCKED is retried as a whole.
func (p *cachePersister) ApplyMutations(ctx context.Context, collectionUID string, m models.Mutations) error {
	if m.Empty() {
		return nil
	}

	statements, err := p.mutationStatements(collectionUID, m)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(busyRetries, retry.NewConstant(busyRetryDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := p.execInTx(ctx, collectionUID, statements)
		if err != nil && p.errorClassificator != nil && p.errorClassificator.Classify(err) == Retryable {
			return retry.RetryableError(err)
		}
		return err
	})
}

type statement struct {
	query string
	args  []any
}

func (p *cachePersister) mutationStatements(collectionUID string, m models.Mutations) ([]statement, error) {
	var builders []sq.Sqlizer

	if len(m.Deletes) > 0 {
		builders = append(builders, p.sql.Delete(tableItems).
			Where(sq.Eq{"owner": p.owner, "collection_uid": collectionUID, "uid": m.Deletes}))
	}

	if len(m.Upserts) > 0 {
		ins := p.sql.Insert(tableItems).Columns(append([]string{"owner"}, itemColumns...)...)
		for _, item := range m.Upserts {
			meta, err := encodeJSON(item.Meta)
			if err != nil {
				return nil, err
			}
			history, err := encodeJSON(item.History)
			if err != nil {
				return nil, err
			}
			ins = ins.Values(
				p.owner, collectionUID, item.UID, meta, item.Content,
				item.Revision.ID, item.Revision.Parent, item.Revision.Number, history, item.Conflicted,
			)
		}
		builders = append(builders, ins.Suffix(
			"ON CONFLICT (owner, collection_uid, uid) DO UPDATE SET "+
				"meta = excluded.meta, content = excluded.content, "+
				"revision_id = excluded.revision_id, revision_parent = excluded.revision_parent, "+
				"revision_number = excluded.revision_number, history = excluded.history, "+
				"conflicted = excluded.conflicted"))
	}

	if len(m.ResolvedConflicts) > 0 {
		builders = append(builders, p.sql.Delete(tableConflicts).
			Where(sq.Eq{"owner": p.owner, "collection_uid": collectionUID, "item_uid": m.ResolvedConflicts}))
	}

	if len(m.Conflicts) > 0 {
		ins := p.sql.Insert(tableConflicts).Columns(append([]string{"owner"}, conflictColumns...)...)
		for _, c := range m.Conflicts {
			record, err := json.Marshal(c)
			if err != nil {
				return nil, fmt.Errorf("%w: conflict %s: %w", ErrBuildingSQLQuery, c.ItemUID, err)
			}
			ins = ins.Values(p.owner, collectionUID, c.ItemUID, c.ID, string(record), c.DetectedAt.UTC())
		}
		builders = append(builders, ins.Suffix(
			"ON CONFLICT (owner, collection_uid, item_uid) DO UPDATE SET "+
				"id = excluded.id, record = excluded.record, detected_at = excluded.detected_at"))
	}

	if m.Checkpoint != "" {
		builders = append(builders, p.sql.Update(tableCollections).
			Set("checkpoint", m.Checkpoint).
			Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
			Where(sq.Eq{"owner": p.owner, "uid": collectionUID}))
	}

	statements := make([]statement, 0, len(builders))
	for _, b := range builders {
		query, args, err := b.ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}
		statements = append(statements, statement{query: query, args: args})
	}

	return statements, nil
}

func (p *cachePersister) execInTx(ctx context.Context, collectionUID string, statements []statement) error {
	log := logger.FromContext(ctx)

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "cachePersister.ApplyMutations").
			Str("collection_uid", collectionUID).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	for idx, st := range statements {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			log.Err(err).
				Str("func", "cachePersister.ApplyMutations").
				Str("collection_uid", collectionUID).
				Int("statement", idx+1).
				Int("total", len(statements)).
				Msg("failed to execute statement in transaction")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "cachePersister.ApplyMutations").
			Str("collection_uid", collectionUID).
			Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	log.Debug().
		Str("func", "cachePersister.ApplyMutations").
		Str("collection_uid", collectionUID).
		Int("statements", len(statements)).
		Msg("mutations persisted")

	return nil
}

// DeleteCollection implements [Persister].
func (p *cachePersister) DeleteCollection(ctx context.Context, collectionUID string) error {
	tables := []struct {
		name   string
		column string
	}{
		{tableConflicts, "collection_uid"},
		{tableItems, "collection_uid"},
		{tableCollections, "uid"},
	}

	statements := make([]statement, 0, len(tables))
	for _, t := range tables {
		query, args, err := p.sql.Delete(t.name).Where(sq.Eq{"owner": p.owner, t.column: collectionUID}).ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}
		statements = append(statements, statement{query: query, args: args})
	}

	return p.execInTx(ctx, collectionUID, statements)
}

func encodeJSON(v any) (any, error) {
	switch t := v.(type) {
	case models.ItemMeta:
		if t == nil {
			return nil, nil
		}
	case []string:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return string(b), nil
}

func decodeMeta(raw sql.NullString) (models.ItemMeta, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var meta models.ItemMeta
	if err := json.Unmarshal([]byte(raw.String), &meta); err != nil {
		return nil, fmt.Errorf("%w: meta: %w", ErrDecodingRow, err)
	}
	return meta, nil
}
