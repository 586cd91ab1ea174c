// Package filestore persists a session record as a JSON file per named slot.
package filestore

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store keeps one session record in <dir>/<slot>.json.
//
// SECURITY: the file holds bearer tokens.
//   - The directory is created with 0700 permissions
//   - Files are written with 0600 permissions via temp file + rename
//   - Token values are never logged
type Store struct {
	mu     sync.Mutex
	path   string
	logger zerolog.Logger
}

var _ credentials.Store = (*Store)(nil)

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates the storage directory if needed. An empty slot uses credentials.DefaultSlot.
func New(dir, slot string, options ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("[filestore.New] storage directory is required")
	}
	if slot == "" {
		slot = credentials.DefaultSlot
	}
	if filepath.Base(slot) != slot {
		return nil, errors.Errorf("[filestore.New] invalid slot name %q", slot)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "[filestore.New] failed to create storage directory")
	}

	s := &Store{
		path:   filepath.Join(dir, slot+".json"),
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Path returns the file backing the slot.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() *credentials.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	// #nosec G304 -- path is built from the configured dir and a validated slot name
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("session record unreadable")
		}
		return nil
	}

	record, err := credentials.Decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("discarding malformed session record")
		if err := s.removeLocked(); err != nil {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to remove malformed session record")
		}
		return nil
	}
	return record
}

func (s *Store) Save(creds credentials.Credentials, id identity.Identity) error {
	data, err := credentials.Encode(creds, id)
	if err != nil {
		return errors.Wrap(err, "[filestore.Save]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return errors.Wrap(err, "[filestore.Save] failed to create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.Save] failed to restrict permissions")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.Save] failed to write session record")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filestore.Save] failed to close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "[filestore.Save] failed to replace session record")
	}

	s.logger.Debug().Str("path", s.path).Str("identity_id", id.ID).Msg("session record stored")
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.removeLocked(); err != nil {
		return errors.Wrap(err, "[filestore.Clear]")
	}
	s.logger.Debug().Str("path", s.path).Msg("session record cleared")
	return nil
}

// removeLocked deletes the slot file. REQUIRES: s.mu held.
func (s *Store) removeLocked() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
