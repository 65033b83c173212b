// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain keeps host session tokens in the OS credential store, one
// entry per host address. On macOS the security command is preferred;
// elsewhere the keyring library picks the native backend.
package keychain

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName namespaces powerdata's entries in the credential store.
const ServiceName = "powerdata"

// ErrNotFound is returned when no token is stored for a host.
var ErrNotFound = errors.New("no session token stored for host")

// Secrets is a flat key/value credential store.
type Secrets interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Store maps host addresses to session tokens.
type Store struct {
	mu      sync.RWMutex
	secrets Secrets
}

var (
	defaultMu    sync.Mutex
	defaultStore *Store
)

// NewStore returns a Store over s.
func NewStore(s Secrets) *Store {
	return &Store{secrets: s}
}

// FromRing returns a Store backed by an opened keyring.
func FromRing(ring keyring.Keyring) *Store {
	return NewStore(ringSecrets{ring})
}

// Open opens the platform credential store.
func Open() (*Store, error) {
	if s, err := nativeSecrets(); err == nil {
		return NewStore(s), nil
	}
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return FromRing(ring), nil
}

// Default returns the process-wide Store. A failed open is retried on the
// next call.
func Default() (*Store, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultStore == nil {
		s, err := Open()
		if err != nil {
			return nil, err
		}
		defaultStore = s
	}
	return defaultStore, nil
}

func openRing() (keyring.Keyring, error) {
	var backends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		backends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		backends = []keyring.BackendType{keyring.WinCredBackend}
	case "linux":
		backends = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
	default:
		return nil, fmt.Errorf("no credential store available on %s", runtime.GOOS)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: backends,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	return ring, nil
}

// tokenKey normalizes a host address so grpc://h:1 and h:1 share a token.
func tokenKey(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	for _, scheme := range []string{"grpcs://", "grpc://"} {
		host = strings.TrimPrefix(host, scheme)
	}
	return "host:" + strings.TrimRight(host, "/")
}

// SaveToken stores token for host, replacing any previous one.
func (s *Store) SaveToken(host, token string) error {
	if strings.TrimSpace(host) == "" {
		return errors.New("host address is required")
	}
	if token == "" {
		return errors.New("empty session token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secrets.Set(tokenKey(host), token)
}

// Token returns the session token for host or ErrNotFound.
func (s *Store) Token(host string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, err := s.secrets.Get(tokenKey(host))
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// ForgetToken removes the token for host. A missing entry is not an error.
func (s *Store) ForgetToken(host string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secrets.Delete(tokenKey(host))
}

type ringSecrets struct{ ring keyring.Keyring }

func (r ringSecrets) Set(key, value string) error {
	return r.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: ServiceName + " " + key})
}

func (r ringSecrets) Get(key string) (string, error) {
	it, err := r.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

func (r ringSecrets) Delete(key string) error {
	if err := r.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
