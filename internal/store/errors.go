package store

import "errors"

// Sentinel errors returned by the cache and its persisters. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrCollectionNotCached is returned when a write targets a collection the
	// cache does not know (never upserted, or removed concurrently).
	ErrCollectionNotCached = errors.New("collection is not cached")

	// ErrEmptyOwner is returned when a persister is built without an owner.
	ErrEmptyOwner = errors.New("cache owner is empty")
)

// Low-level database operation errors. These are returned (or wrapped) by
// persister methods when a SQL-level operation fails.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails.
	ErrScanningRows = errors.New("failed to scan cache rows")

	// ErrDecodingRow is returned when a JSON column cannot be decoded.
	ErrDecodingRow = errors.New("failed to decode cache row")
)
