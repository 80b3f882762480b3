package adapter

import "errors"

var (
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized requires re-authentication; it is never retried.
	ErrUnauthorized = errors.New("client unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrCollectionNotFound signals that the collection was deleted remotely.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrRemoteUnavailable is transient: server errors, throttling and
	// transport failures.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	ErrMalformedResponse = errors.New("malformed response")
)
