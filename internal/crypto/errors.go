package crypto

import (
	"errors"
	"fmt"
)

var (
	// ErrDecryptionFailure marks corrupt or tampered ciphertext.
	ErrDecryptionFailure = errors.New("decryption failure")
	// ErrKeyMismatch marks a collection key that was rotated or is missing.
	ErrKeyMismatch = errors.New("collection key mismatch")
	// ErrInvalidKey marks key material of the wrong length.
	ErrInvalidKey = errors.New("invalid key length")
)

// DecryptError reports which record of a collection could not be opened.
type DecryptError struct {
	CollectionUID string
	ItemUID       string
	RevisionID    string
	Err           error
}

func (e *DecryptError) Error() string {
	return fmt.Sprintf("%s: collection %s item %s revision %s: %v",
		ErrDecryptionFailure, e.CollectionUID, e.ItemUID, e.RevisionID, e.Err)
}

// Is makes errors.Is(err, ErrDecryptionFailure) hold for every DecryptError.
func (e *DecryptError) Is(target error) bool {
	return target == ErrDecryptionFailure
}

func (e *DecryptError) Unwrap() error {
	return e.Err
}
