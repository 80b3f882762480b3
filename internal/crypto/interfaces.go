package crypto

import "github.com/MKhiriev/go-note-sync/models"

//go:generate mockgen -source=interfaces.go -destination=../mock/codec_mock.go -package=mock

// Codec is the client-side cryptography of the sync engine. It knows nothing
// about the network or the cache: it derives the account key, unwraps
// collection keys and seals/opens item payloads.
//
// Key hierarchy:
//
//	AccountKey    = DeriveAccountKey(password, salt)            (Argon2id)
//	CollectionKey = CollectionKey(AccountKey, RemoteCollection) (AES-GCM unwrap)
//	Item          = DecryptItem(CollectionKey, EncryptedChange) (AES-GCM, AAD bound)
type Codec interface {
	// DeriveAccountKey derives the 256-bit account key from the master
	// password and the account salt.
	DeriveAccountKey(password string, salt []byte) []byte

	// CollectionKey unwraps the collection key announced by the remote
	// authority. A wrong account key, a corrupted blob or a fingerprint that
	// does not match rc.KeyID all yield ErrKeyMismatch.
	CollectionKey(accountKey []byte, rc models.RemoteCollection) ([]byte, error)

	// WrapCollectionKey seals collectionKey with accountKey (nonce || ciphertext).
	WrapCollectionKey(accountKey, collectionKey []byte) ([]byte, error)

	// KeyID returns the public fingerprint of a collection key.
	KeyID(collectionKey []byte) string

	// DecryptMeta opens optional collection metadata.
	DecryptMeta(collectionKey []byte, collectionUID string, sealed []byte) (models.ItemMeta, error)

	// DecryptItem opens one change-log record into an Item. A KeyID that does
	// not match collectionKey yields ErrKeyMismatch; any integrity or decoding
	// failure yields a *DecryptError wrapping ErrDecryptionFailure.
	DecryptItem(collectionKey []byte, collectionUID string, ch models.EncryptedChange) (models.Item, error)

	// EncryptItem is the inverse of DecryptItem.
	EncryptItem(collectionKey []byte, item models.Item, action models.ChangeAction) (models.EncryptedChange, error)
}
