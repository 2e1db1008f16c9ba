// Package state persists the sync cursor: the Spotify track ids already handled and the newest
// added_at timestamp seen so far.
//
// The file is a small JSON document replaced atomically on every save, so an interrupted run
// resumes from the last track it finished.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ymsync/internal/shared"
)

// DefaultFile is the state file name used when none is configured.
const DefaultFile = "spotify_yandex_state.json"

// State is the in-memory sync cursor.
type State struct {
	ProcessedIDs []string   // Spotify track ids in the order they were first processed
	LastAddedAt  *time.Time // newest added_at seen; nil before the first import

	seen map[string]struct{}
}

// New returns an empty State.
func New() *State {
	return &State{ProcessedIDs: []string{}, seen: map[string]struct{}{}}
}

// Processed reports whether the Spotify track id was handled in an earlier run.
func (s *State) Processed(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// MarkProcessed records id, returning false if it was already present.
func (s *State) MarkProcessed(id string) bool {
	if s.Processed(id) {
		return false
	}
	s.seen[id] = struct{}{}
	s.ProcessedIDs = append(s.ProcessedIDs, id)
	return true
}

// Advance moves LastAddedAt forward to t when t is newer. Returns true if it moved.
func (s *State) Advance(t *time.Time) bool {
	if t == nil {
		return false
	}
	if s.LastAddedAt != nil && !t.After(*s.LastAddedAt) {
		return false
	}
	v := t.UTC()
	s.LastAddedAt = &v
	return true
}

// Len returns the number of processed ids.
func (s *State) Len() int {
	return len(s.ProcessedIDs)
}

// document is the on-disk layout.
type document struct {
	ProcessedSpotifyIDs []string `json:"processed_spotify_ids"`
	LastSpotifyAddedAt  *string  `json:"last_spotify_added_at"`
}

// Store reads and writes a [State] at a fixed path.
type Store struct {
	path   string
	logger *log.Logger
}

// NewStore creates a Store for path, defaulting to [DefaultFile].
func NewStore(path string, logger *log.Logger) *Store {
	if path == "" {
		path = DefaultFile
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{path: path, logger: logger}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the state file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the state file. A missing file yields an empty State; an unreadable or malformed
// one is logged and also yields an empty State, so a damaged file never blocks a sync.
func (s *Store) Load() *State {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New()
	}
	if err != nil {
		s.logger.Warn("state file unreadable, starting fresh", "path", s.path, "error", err)
		return New()
	}

	st, err := Decode(data)
	if err != nil {
		s.logger.Warn("state file malformed, starting fresh", "path", s.path, "error", err)
		return New()
	}
	return st
}

// Save writes st to <path>.tmp and renames it over the state file.
func (s *Store) Save(st *State) error {
	data, err := Encode(st)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStateWrite, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStateWrite, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", shared.ErrStateWrite, err)
	}

	s.logger.Debug("state saved", "path", s.path, "processed", st.Len())
	return nil
}

// Reset deletes the state file. A missing file is not an error.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", shared.ErrStateWrite, err)
	}
	return nil
}

// Encode renders st as an indented JSON document.
func Encode(st *State) ([]byte, error) {
	doc := document{ProcessedSpotifyIDs: st.ProcessedIDs}
	if doc.ProcessedSpotifyIDs == nil {
		doc.ProcessedSpotifyIDs = []string{}
	}
	if st.LastAddedAt != nil {
		ts := shared.FormatSpotifyTime(st.LastAddedAt)
		doc.LastSpotifyAddedAt = &ts
	}

	data, err := shared.MarshalJSON(doc, true)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses a state document.
//
// Missing fields take their defaults, a non-list id field is treated as empty and non-string ids
// are kept in their JSON text form. An unparseable timestamp is dropped.
func Decode(data []byte) (*State, error) {
	var raw map[string]json.RawMessage
	if err := shared.UnmarshalJSON(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("state document is not an object")
	}

	st := New()

	var ids []json.RawMessage
	if msg, ok := raw["processed_spotify_ids"]; ok {
		if err := json.Unmarshal(msg, &ids); err != nil {
			ids = nil
		}
	}
	for _, msg := range ids {
		st.MarkProcessed(idString(msg))
	}

	if msg, ok := raw["last_spotify_added_at"]; ok {
		var ts string
		if err := json.Unmarshal(msg, &ts); err == nil {
			st.Advance(shared.ParseSpotifyTime(ts))
		}
	}

	return st, nil
}

func idString(msg json.RawMessage) string {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(msg))
}
