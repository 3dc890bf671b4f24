package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mind-engage/gradecalc/internal/grading"
	"github.com/mind-engage/gradecalc/internal/storage"
)

// DefaultKey is the blob name the history is persisted under.
const DefaultKey = "testHistory"

// PersistError reports a failed read or write of the persisted history.
// The in-memory history is left as it was before the failing call.
type PersistError struct {
	Op  string // load|append|remove|clear
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("history %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Store is the newest-first list of past calculations, written through to a
// single KV key on every mutation. It is not safe for concurrent use; the
// session controller serializes access.
type Store struct {
	kv      storage.KV
	key     string
	log     zerolog.Logger
	entries []grading.Entry
	// unread is set while the persisted blob could not be read; writes must
	// not replace a blob whose contents were never seen.
	unread bool
}

type Option func(*Store)

func WithKey(k string) Option {
	return func(s *Store) {
		if k != "" {
			s.key = k
		}
	}
}

func WithLogger(l zerolog.Logger) Option { return func(s *Store) { s.log = l } }

func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{kv: kv, key: DefaultKey, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load replaces the in-memory history with the persisted one. A missing or
// malformed blob yields an empty history without error.
func (s *Store) Load(ctx context.Context) error {
	s.entries = nil
	s.unread = false
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.unread = true
		return &PersistError{Op: "load", Key: s.key, Err: err}
	}
	var entries []grading.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("discarding malformed history")
		return nil
	}
	s.entries = entries
	s.log.Debug().Int("entries", len(entries)).Msg("history loaded")
	return nil
}

// Append puts e at the front of the history.
func (s *Store) Append(ctx context.Context, e grading.Entry) error {
	if err := s.ensureLoaded(ctx, "append"); err != nil {
		return err
	}
	next := make([]grading.Entry, 0, len(s.entries)+1)
	next = append(next, e)
	next = append(next, s.entries...)
	if err := s.write(ctx, "append", next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

// Remove deletes the entry with the given id. It reports whether an entry was
// removed; an unknown id is a no-op and touches no storage.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	if err := s.ensureLoaded(ctx, "remove"); err != nil {
		return false, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	next := make([]grading.Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:idx]...)
	next = append(next, s.entries[idx+1:]...)
	if err := s.write(ctx, "remove", next); err != nil {
		return false, err
	}
	s.entries = next
	return true, nil
}

// Clear empties the history and drops the persisted key.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, s.key); err != nil {
		return &PersistError{Op: "clear", Key: s.key, Err: err}
	}
	s.entries = nil
	s.unread = false
	return nil
}

// Loaded reports whether the persisted history has been read successfully.
func (s *Store) Loaded() bool { return !s.unread }

// ensureLoaded retries a failed Load before a write.
func (s *Store) ensureLoaded(ctx context.Context, op string) error {
	if !s.unread {
		return nil
	}
	if err := s.Load(ctx); err != nil {
		var pe *PersistError
		if errors.As(err, &pe) {
			pe.Op = op
		}
		return err
	}
	s.log.Info().Int("entries", len(s.entries)).Msg("history recovered after failed load")
	return nil
}

// Entries returns a copy, newest first.
func (s *Store) Entries() []grading.Entry {
	out := make([]grading.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int { return len(s.entries) }

func (s *Store) Get(id string) (grading.Entry, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.entries[i], true
	}
	return grading.Entry{}, false
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) write(ctx context.Context, op string, entries []grading.Entry) error {
	b, err := json.Marshal(entries)
	if err != nil {
		return &PersistError{Op: op, Key: s.key, Err: err}
	}
	if err := s.kv.Set(ctx, s.key, string(b)); err != nil {
		s.log.Error().Err(err).Str("op", op).Str("key", s.key).Msg("history write failed")
		return &PersistError{Op: op, Key: s.key, Err: err}
	}
	return nil
}
