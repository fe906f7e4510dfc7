// Package auth validates caller API keys and admin JWT tokens.
package auth

import (
	"errors"

	"lingo_gateway/internal/utils"
)

// ErrKeyNotFound is returned when an API key is not recognized.
var ErrKeyNotFound = errors.New("api key not found")

// APIKeyStore validates caller keys. Keys are indexed by SHA-256 hash so the
// plaintext never sits in a map.
type APIKeyStore struct {
	hashes map[string]struct{}
}

// NewAPIKeyStore builds a store from plaintext keys. An empty key list means
// open access (local development only).
func NewAPIKeyStore(keys []string) *APIKeyStore {
	s := &APIKeyStore{hashes: make(map[string]struct{}, len(keys))}
	for _, key := range keys {
		s.hashes[utils.HashString(key)] = struct{}{}
	}
	return s
}

// Open reports whether the store accepts any key.
func (s *APIKeyStore) Open() bool {
	return len(s.hashes) == 0
}

// Lookup validates a plaintext key and returns its hash as the caller ID.
func (s *APIKeyStore) Lookup(key string) (string, error) {
	hashed := utils.HashString(key)
	if s.Open() {
		return hashed, nil
	}
	if _, ok := s.hashes[hashed]; !ok {
		return "", ErrKeyNotFound
	}
	return hashed, nil
}
