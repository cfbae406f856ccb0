// Package envstore persists configuration values to a dotenv file.
package envstore

import (
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/envfile"
)

// Store writes KEY=value lines to one env file.
type Store struct {
	path string
}

// New creates a Store for path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the env file path.
func (s *Store) Path() string {
	return s.path
}

// Set replaces the key's line in place or appends it. Other lines are kept verbatim.
func (s *Store) Set(key, value string) error {
	if err := envfile.Upsert(s.path, key, value); err != nil {
		return apperror.Internal(apperror.CodeConfigStoreFailed, s.path, err)
	}
	return nil
}
