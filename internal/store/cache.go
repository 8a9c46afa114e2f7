// Package store is a content-addressed cache of encoded binary modules.
// Keys are blake2b-256 hashes of the encoded word stream, so a cached entry
// can never disagree with its key.
package store

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/lumenvm/lumen/pkg/db"
	"github.com/lumenvm/lumen/pkg/log"
)

// keyPrefix namespaces cache entries inside a shared KVStore.
var keyPrefix = []byte("mod/")

var (
	ErrNotCached  = errors.New("module not in cache")
	ErrBadDigest  = errors.New("cached bytes do not match their key")
	ErrEmptyBlob  = errors.New("refusing to cache an empty module")
	errKeyTooLong = errors.New("malformed cache key")
)

// Key identifies one encoded module.
type Key [blake2b.Size256]byte

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyOf computes the content address of an encoded module.
func KeyOf(encoded []byte) Key {
	return blake2b.Sum256(encoded)
}

// ModuleCache stores encoded modules in a KVStore.
type ModuleCache struct {
	kv db.KVStore
}

func NewModuleCache(kv db.KVStore) *ModuleCache {
	return &ModuleCache{kv: kv}
}

// Put stores encoded bytes and returns their content address. Storing the
// same bytes twice is a no-op with the same key.
func (c *ModuleCache) Put(encoded []byte) (Key, error) {
	if len(encoded) == 0 {
		return Key{}, ErrEmptyBlob
	}
	key := KeyOf(encoded)
	if err := c.kv.Put(storeKey(key), encoded); err != nil {
		return Key{}, fmt.Errorf("caching module %s: %w", key, err)
	}
	log.Store.Debug().Str("key", key.String()).Int("bytes", len(encoded)).Msg("module cached")
	return key, nil
}

// Get returns the encoded module for key, re-checking the digest so a
// corrupted store surfaces as ErrBadDigest rather than bad decode errors
// downstream.
func (c *ModuleCache) Get(key Key) ([]byte, error) {
	encoded, err := c.kv.Get(storeKey(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, key)
	}
	if KeyOf(encoded) != key {
		return nil, fmt.Errorf("%w: %s", ErrBadDigest, key)
	}
	return encoded, nil
}

// Has reports whether key is cached.
func (c *ModuleCache) Has(key Key) (bool, error) {
	return c.kv.Has(storeKey(key))
}

// Delete drops an entry; deleting a missing key is not an error.
func (c *ModuleCache) Delete(key Key) error {
	return c.kv.Delete(storeKey(key))
}

// Keys lists every cached module's content address.
func (c *ModuleCache) Keys() ([]Key, error) {
	end := append(append([]byte{}, keyPrefix...), 0xff)
	it, err := c.kv.NewIterator(keyPrefix, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var keys []Key
	for it.Next() {
		raw := it.Key()
		if len(raw) != len(keyPrefix)+len(Key{}) {
			return nil, fmt.Errorf("%w: %x", errKeyTooLong, raw)
		}
		var k Key
		copy(k[:], raw[len(keyPrefix):])
		keys = append(keys, k)
	}
	return keys, nil
}

func storeKey(k Key) []byte {
	return append(append([]byte{}, keyPrefix...), k[:]...)
}
