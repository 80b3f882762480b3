// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/MKhiriev/go-note-sync/models"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	keyLen = 32

	// keyIDLen is the number of fingerprint bytes kept in a KeyID.
	keyIDLen = 8

	keyIDInfo = "go-note-sync/key-id/v1"
)

var errCiphertextTooShort = errors.New("ciphertext too short")

// codec is the private implementation of [Codec].
type codec struct {
	// Argon2id tuning parameters.
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
}

// NewCodec constructs a [Codec] with the Argon2id parameters recommended by
// OWASP (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func NewCodec() Codec {
	return &codec{
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
	}
}

// DeriveAccountKey implements [Codec].
func (c *codec) DeriveAccountKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, c.argonTime, c.argonMemory, c.argonThreads, keyLen)
}

// KeyID implements [Codec]. The fingerprint is HKDF-SHA256 output with a fixed
// info string so it never equals any key the codec actually uses.
func (c *codec) KeyID(collectionKey []byte) string {
	r := hkdf.New(sha256.New, collectionKey, nil, []byte(keyIDInfo))
	fp := make([]byte, keyIDLen)
	// hkdf only fails past 255*HashLen bytes of output.
	_, _ = io.ReadFull(r, fp)
	return hex.EncodeToString(fp)
}

// WrapCollectionKey implements [Codec].
func (c *codec) WrapCollectionKey(accountKey, collectionKey []byte) ([]byte, error) {
	if len(collectionKey) != keyLen {
		return nil, ErrInvalidKey
	}
	return seal(accountKey, collectionKey, nil)
}

// CollectionKey implements [Codec].
func (c *codec) CollectionKey(accountKey []byte, rc models.RemoteCollection) ([]byte, error) {
	key, err := open(accountKey, rc.EncryptedKey, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrap collection %s: %v", ErrKeyMismatch, rc.UID, err)
	}
	if len(key) != keyLen {
		return nil, fmt.Errorf("%w: collection %s key has %d bytes", ErrKeyMismatch, rc.UID, len(key))
	}
	if rc.KeyID != "" && !hmac.Equal([]byte(rc.KeyID), []byte(c.KeyID(key))) {
		return nil, fmt.Errorf("%w: collection %s announces key %s", ErrKeyMismatch, rc.UID, rc.KeyID)
	}
	return key, nil
}

// DecryptMeta implements [Codec]. Empty input yields nil metadata.
func (c *codec) DecryptMeta(collectionKey []byte, collectionUID string, sealed []byte) (models.ItemMeta, error) {
	if len(sealed) == 0 {
		return nil, nil
	}
	plaintext, err := open(collectionKey, sealed, []byte(collectionUID))
	if err != nil {
		return nil, &DecryptError{CollectionUID: collectionUID, Err: err}
	}
	var meta models.ItemMeta
	if err := json.Unmarshal(plaintext, &meta); err != nil {
		return nil, &DecryptError{CollectionUID: collectionUID, Err: err}
	}
	return meta, nil
}

// DecryptItem implements [Codec]. Delete records carry no payload and decode
// into an Item that holds only identity and revision.
func (c *codec) DecryptItem(collectionKey []byte, collectionUID string, ch models.EncryptedChange) (models.Item, error) {
	item := models.Item{
		UID:           ch.ItemUID,
		CollectionUID: collectionUID,
		Revision:      ch.Revision,
	}

	if ch.KeyID != "" && ch.KeyID != c.KeyID(collectionKey) {
		return models.Item{}, fmt.Errorf("%w: item %s sealed with key %s", ErrKeyMismatch, ch.ItemUID, ch.KeyID)
	}

	if ch.Action == models.ActionDelete && len(ch.Payload) == 0 {
		return item, nil
	}

	fail := func(err error) (models.Item, error) {
		return models.Item{}, &DecryptError{
			CollectionUID: collectionUID,
			ItemUID:       ch.ItemUID,
			RevisionID:    ch.Revision.ID,
			Err:           err,
		}
	}

	plaintext, err := open(collectionKey, ch.Payload, itemAAD(collectionUID, ch.ItemUID, ch.Revision))
	if err != nil {
		return fail(err)
	}

	var plain models.PlainItem
	if err := json.Unmarshal(plaintext, &plain); err != nil {
		return fail(fmt.Errorf("unmarshal payload: %w", err))
	}

	item.Meta = plain.Meta
	item.Content = plain.Content
	return item, nil
}

// EncryptItem implements [Codec].
func (c *codec) EncryptItem(collectionKey []byte, item models.Item, action models.ChangeAction) (models.EncryptedChange, error) {
	ch := models.EncryptedChange{
		ItemUID:  item.UID,
		Action:   action,
		Revision: item.Revision,
		KeyID:    c.KeyID(collectionKey),
	}
	if action == models.ActionDelete {
		return ch, nil
	}

	plaintext, err := json.Marshal(models.PlainItem{Meta: item.Meta, Content: item.Content})
	if err != nil {
		return models.EncryptedChange{}, fmt.Errorf("marshal item: %w", err)
	}

	ch.Payload, err = seal(collectionKey, plaintext, itemAAD(item.CollectionUID, item.UID, item.Revision))
	if err != nil {
		return models.EncryptedChange{}, fmt.Errorf("seal item: %w", err)
	}
	return ch, nil
}

// itemAAD binds a payload to its position so a valid ciphertext cannot be
// replayed as another item or revision.
func itemAAD(collectionUID, itemUID string, rev models.Revision) []byte {
	aad := make([]byte, 0, len(collectionUID)+len(itemUID)+len(rev.ID)+24)
	aad = append(aad, collectionUID...)
	aad = append(aad, '|')
	aad = append(aad, itemUID...)
	aad = append(aad, '|')
	aad = append(aad, rev.ID...)
	aad = append(aad, '|')
	aad = strconv.AppendInt(aad, rev.Number, 10)
	return aad
}

// seal encrypts plaintext with AES-256-GCM: blob = nonce || ciphertext.
func seal(key, plaintext, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

// open reverses seal.
func open(key, blob, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize+gcm.Overhead() {
		return nil, errCiphertextTooShort
	}

	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keyLen {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
