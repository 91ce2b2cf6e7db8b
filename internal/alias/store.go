package alias

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Store.
type Logger interface {
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}

// Store wraps a Repository with an in-memory cache of alias names.
//
// The cache is loaded by Refresh and kept in sync by Set and Delete, so
// Alias never blocks on the database. All methods are safe for concurrent use.
type Store struct {
	repo   Repository
	mu     sync.RWMutex
	cache  map[string]Alias
	logger Logger
}

// NewStore creates a Store over repo. Call Refresh before serving lookups.
func NewStore(repo Repository) *Store {
	return &Store{
		repo:   repo,
		cache:  make(map[string]Alias),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Refresh reloads every alias from the repository.
func (s *Store) Refresh(ctx context.Context) error {
	aliases, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading aliases: %w", err)
	}

	cache := make(map[string]Alias, len(aliases))
	for _, a := range aliases {
		cache[a.MAC] = a
	}

	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()

	s.logger.Info("alias cache refreshed", "count", len(aliases))
	return nil
}

// Alias returns the name for mac from the cache.
func (s *Store) Alias(mac string) (string, bool) {
	s.mu.RLock()
	a, ok := s.cache[mac]
	s.mu.RUnlock()
	if ok {
		return a.Name, true
	}

	// Callers outside the report path may pass non-canonical forms.
	canonical, err := NormalizeMAC(mac)
	if err != nil || canonical == mac {
		return "", false
	}
	s.mu.RLock()
	a, ok = s.cache[canonical]
	s.mu.RUnlock()
	return a.Name, ok
}

// List returns cached aliases sorted by MAC.
func (s *Store) List() []Alias {
	s.mu.RLock()
	out := make([]Alias, 0, len(s.cache))
	for _, a := range s.cache {
		out = append(out, a)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].MAC < out[j].MAC })
	return out
}

// Get returns the cached alias for mac or ErrAliasNotFound.
func (s *Store) Get(mac string) (Alias, error) {
	canonical, err := NormalizeMAC(mac)
	if err != nil {
		return Alias{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.cache[canonical]
	if !ok {
		return Alias{}, ErrAliasNotFound
	}
	return a, nil
}

// Set validates and persists name for mac, then updates the cache.
func (s *Store) Set(ctx context.Context, mac, name string) (Alias, error) {
	canonical, err := NormalizeMAC(mac)
	if err != nil {
		return Alias{}, err
	}
	name, err = ValidateName(name)
	if err != nil {
		return Alias{}, err
	}

	a := Alias{MAC: canonical, Name: name}
	if err := s.repo.Upsert(ctx, &a); err != nil {
		return Alias{}, err
	}

	s.mu.Lock()
	s.cache[canonical] = a
	s.mu.Unlock()

	s.logger.Info("alias set", "mac", canonical, "alias", name)
	return a, nil
}

// Delete removes the alias for mac from storage and cache.
func (s *Store) Delete(ctx context.Context, mac string) error {
	canonical, err := NormalizeMAC(mac)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, canonical); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.cache, canonical)
	s.mu.Unlock()

	s.logger.Info("alias deleted", "mac", canonical)
	return nil
}
