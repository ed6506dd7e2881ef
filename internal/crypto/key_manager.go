package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/hkdf"
)

// sealedPrefix marks comments written by a KeyManager. Anything without it is
// passed through unchanged so unencrypted rows stay readable.
const sealedPrefix = "enc:v1:"

var ErrInvalidMasterKey = errors.New("invalid master key: must be base64 encoded 32 bytes")

// KeyManager encrypts journal comments with a key derived per user handle.
type KeyManager struct {
	masterKey []byte
	keys      map[string][]byte // handle -> derived key
	mu        sync.RWMutex
}

// NewKeyManager builds a KeyManager from a base64 encoded 32-byte master key.
func NewKeyManager(masterKeyBase64 string) (*KeyManager, error) {
	masterKey, err := base64.StdEncoding.DecodeString(strings.TrimSpace(masterKeyBase64))
	if err != nil || len(masterKey) != keySize {
		return nil, ErrInvalidMasterKey
	}

	return &KeyManager{
		masterKey: masterKey,
		keys:      make(map[string][]byte),
	}, nil
}

// keyFor derives (and caches) the key for a user handle.
func (km *KeyManager) keyFor(handle string) ([]byte, error) {
	km.mu.RLock()
	key, ok := km.keys[handle]
	km.mu.RUnlock()
	if ok {
		return key, nil
	}

	key = make([]byte, keySize)
	kdf := hkdf.New(sha256.New, km.masterKey, nil, []byte("moodwatch comment:"+handle))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}

	km.mu.Lock()
	km.keys[handle] = key
	km.mu.Unlock()
	return key, nil
}

// EncryptComment seals a comment for the given user.
func (km *KeyManager) EncryptComment(handle, plaintext string) (string, error) {
	key, err := km.keyFor(handle)
	if err != nil {
		return "", err
	}
	sealed, err := seal([]byte(plaintext), key)
	if err != nil {
		return "", err
	}
	return sealedPrefix + sealed, nil
}

// DecryptComment opens a comment sealed by EncryptComment. Plain comments are
// returned as they are.
func (km *KeyManager) DecryptComment(handle, stored string) (string, error) {
	if !IsSealed(stored) {
		return stored, nil
	}
	key, err := km.keyFor(handle)
	if err != nil {
		return "", err
	}
	plaintext, err := open(strings.TrimPrefix(stored, sealedPrefix), key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// IsSealed reports whether a stored comment is encrypted.
func IsSealed(stored string) bool {
	return strings.HasPrefix(stored, sealedPrefix)
}

// GenerateMasterKey returns a fresh random master key, base64 encoded.
func GenerateMasterKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(randReader, key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
