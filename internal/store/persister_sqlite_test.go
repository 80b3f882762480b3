package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-note-sync/internal/logger"
	"github.com/MKhiriev/go-note-sync/models"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// newDBFromSQL wraps an existing *sql.DB for tests.
func newDBFromSQL(db *sql.DB) *DB {
	return &DB{
		DB:                 db,
		errorClassificator: NewSQLiteErrorClassifier(),
		logger:             logger.Nop(),
	}
}

func newTestPersister(t *testing.T, db *sql.DB) Persister {
	t.Helper()
	p, err := NewCachePersister(newDBFromSQL(db), "alice", logger.Nop())
	require.NoError(t, err)
	return p
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

// ── constructor ──────────────────────────────────────────────────────────────

func TestNewCachePersister_EmptyOwner(t *testing.T) {
	db, _ := newTestDB(t)
	_, err := NewCachePersister(newDBFromSQL(db), "", logger.Nop())
	assert.ErrorIs(t, err, ErrEmptyOwner)
}

// ── SaveCollection ───────────────────────────────────────────────────────────

func TestSaveCollection_Upserts(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	mock.ExpectExec(`INSERT INTO collections \(owner,uid,key_id,checkpoint,meta\) VALUES \(\?,\?,\?,\?,\?\) ON CONFLICT`).
		WithArgs("alice", "notes", "k1", "c0", `{"name":"Notes"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := p.SaveCollection(testContext(), models.Collection{
		UID: "notes", KeyID: "k1", Checkpoint: "c0", Meta: models.ItemMeta{"name": "Notes"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCollection_NilMetaStoredAsNull(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	mock.ExpectExec(`INSERT INTO collections`).
		WithArgs("alice", "notes", "", "", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.SaveCollection(testContext(), models.Collection{UID: "notes"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCollection_ExecError(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	mock.ExpectExec(`INSERT INTO collections`).WillReturnError(errors.New("readonly database"))

	err := p.SaveCollection(testContext(), models.Collection{UID: "notes"})
	assert.ErrorIs(t, err, ErrExecutingStatement)
}

// ── ApplyMutations ───────────────────────────────────────────────────────────

func TestApplyMutations_EmptyDoesNothing(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	require.NoError(t, p.ApplyMutations(testContext(), "notes", models.Mutations{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMutations_SingleTransaction(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	detected := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	item := models.Item{
		UID:      "a",
		Meta:     models.ItemMeta{"name": "A"},
		Content:  []byte("body"),
		Revision: models.Revision{ID: "r2", Parent: "r1", Number: 2},
		History:  []string{"r1"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM items WHERE`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO items \(owner,collection_uid,uid,meta,content,revision_id,revision_parent,revision_number,history,conflicted\)`).
		WithArgs("alice", "notes", "a", `{"name":"A"}`, []byte("body"), "r2", "r1", int64(2), `["r1"]`, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM conflicts WHERE`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO conflicts \(owner,collection_uid,item_uid,id,record,detected_at\)`).
		WithArgs("alice", "notes", "c", "conf-1", sqlmock.AnyArg(), detected).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE collections SET checkpoint = \?, updated_at = CURRENT_TIMESTAMP WHERE`).
		WithArgs("c2", "alice", "notes").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := p.ApplyMutations(testContext(), "notes", models.Mutations{
		Upserts:           []models.Item{item},
		Deletes:           []string{"b"},
		Conflicts:         []models.ConflictRecord{{ID: "conf-1", CollectionUID: "notes", ItemUID: "c", DetectedAt: detected}},
		ResolvedConflicts: []string{"d"},
		Checkpoint:        "c2",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMutations_RollsBackOnFailure(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO items`).WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	err := p.ApplyMutations(testContext(), "notes", models.Mutations{
		Upserts:    []models.Item{{UID: "a", Revision: models.Revision{ID: "r1"}}},
		Checkpoint: "c1",
	})
	require.ErrorIs(t, err, ErrExecutingStatement)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMutations_RetriesBusyDatabase(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE collections`).WillReturnError(sqlite3.Error{Code: sqlite3.ErrBusy})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE collections`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, p.ApplyMutations(testContext(), "notes", models.Mutations{Checkpoint: "c1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMutations_BeginFails(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	mock.ExpectBegin().WillReturnError(errors.New("closed"))

	err := p.ApplyMutations(testContext(), "notes", models.Mutations{Checkpoint: "c1"})
	assert.ErrorIs(t, err, ErrBeginningTransaction)
}

func TestApplyMutations_CommitFails(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE collections`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("io error"))

	err := p.ApplyMutations(testContext(), "notes", models.Mutations{Checkpoint: "c1"})
	assert.ErrorIs(t, err, ErrCommitingTransaction)
}

// ── DeleteCollection ─────────────────────────────────────────────────────────

func TestDeleteCollection(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM conflicts WHERE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM items WHERE`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM collections WHERE`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, p.DeleteCollection(testContext(), "notes"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_AssemblesStates(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	mock.ExpectQuery(`SELECT uid, key_id, checkpoint, meta FROM collections WHERE owner = \?`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(collectionColumns).
			AddRow("notes", "k1", "c3", `{"name":"Notes"}`).
			AddRow("todo", "k2", "", nil))

	mock.ExpectQuery(`SELECT .+ FROM items WHERE owner = \?`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow("notes", "a", `{"name":"A","mtime":1700000000000}`, []byte("body"), "r2", "r1", int64(2), `["r1"]`, false).
			AddRow("ghost", "x", nil, nil, "r1", "", int64(1), nil, false))

	mock.ExpectQuery(`SELECT record FROM conflicts WHERE owner = \?`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"record"}).
			AddRow(`{"id":"conf-1","collection_uid":"todo","item_uid":"t","local":{"uid":"t","collection_uid":"todo","meta":null,"content":null,"revision":{"id":"r1","number":1},"conflicted":true},"remote":[],"delete_deferred":true,"detected_at":"2026-01-02T03:04:05Z"}`))

	states, err := p.Load(testContext())
	require.NoError(t, err)
	require.Len(t, states, 2)

	notes := states[0]
	assert.Equal(t, "c3", notes.Collection.Checkpoint)
	assert.Equal(t, "Notes", notes.Collection.Meta.Name())
	require.Len(t, notes.Items, 1)
	assert.Equal(t, "A", notes.Items[0].Meta.Name())
	assert.Equal(t, []string{"r1"}, notes.Items[0].History)
	assert.Equal(t, models.Revision{ID: "r2", Parent: "r1", Number: 2}, notes.Items[0].Revision)

	todo := states[1]
	assert.Nil(t, todo.Collection.Meta)
	assert.Empty(t, todo.Items, "items of unknown collections are skipped")
	require.Len(t, todo.Conflicts, 1)
	assert.True(t, todo.Conflicts[0].DeleteDeferred)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_QueryError(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	mock.ExpectQuery(`FROM collections`).WillReturnError(errors.New("no such table"))

	_, err := p.Load(testContext())
	assert.ErrorIs(t, err, ErrExecutingQuery)
}

func TestLoad_CorruptMeta(t *testing.T) {
	db, mock := newTestDB(t)
	p := newTestPersister(t, db)

	mock.ExpectQuery(`FROM collections`).
		WillReturnRows(sqlmock.NewRows(collectionColumns).AddRow("notes", "k1", "", "{broken"))

	_, err := p.Load(testContext())
	assert.ErrorIs(t, err, ErrDecodingRow)
}
