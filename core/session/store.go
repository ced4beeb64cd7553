// Package session holds the operator session of a client process.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/ftad-ncr/tapmonitor/core/account"
)

// Session is the signed-in operator plus the API token issued at login.
type Session struct {
	account.Session
	Token string `json:"token"`
}

func (s Session) IsZero() bool { return s.Username == "" }

type Persister interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// Store is the process-wide session: loaded once at startup, replaced on login or update, cleared on logout.
type Store struct {
	mu        sync.RWMutex
	current   Session
	persister Persister
}

// NewStore loads the persisted session. An unreadable session means logged out.
func NewStore(p Persister) (*Store, error) {
	s := &Store{persister: p}
	sess, err := p.Load()
	if err != nil {
		_ = p.Clear()
		return s, errors.Wrap(err, "loading session")
	}
	s.current = sess
	return s, nil
}

// Current returns the session and whether someone is logged in.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, !s.current.IsZero()
}

func (s *Store) Replace(sess Session) error {
	if sess.IsZero() {
		return s.Clear()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persister.Save(sess); err != nil {
		return errors.Wrap(err, "saving session")
	}
	s.current = sess
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
	return errors.Wrap(s.persister.Clear(), "clearing session")
}

// FilePersister keeps the session as a JSON document under one path.
type FilePersister struct {
	Path string
}

func (fp FilePersister) Load() (Session, error) {
	var sess Session
	data, err := os.ReadFile(fp.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return sess, nil
		}
		return sess, err
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (fp FilePersister) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(fp.Path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	tmp := fp.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, fp.Path)
}

func (fp FilePersister) Clear() error {
	if err := os.Remove(fp.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
