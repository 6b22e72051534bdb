// Package state holds the server-authoritative lobby snapshot for one lobby view and
// the transient error notice shown over it.
//
// A Store is owned by a single goroutine (the lobby loop) and is not safe for
// concurrent use.
package state

import (
	"github.com/DoyleJ11/landlord-client/internal/engine"
	"github.com/DoyleJ11/landlord-client/pkg/types"
)

type Store struct {
	baseline types.LobbyState
	current  types.LobbyState

	notice    string
	noticeGen uint64
}

// New seeds the store from the page-load snapshot.
func New(snapshot types.LobbyState) *Store {
	return &Store{baseline: snapshot, current: snapshot}
}

// ApplyPush replaces the current state wholesale. Fields missing from the push are
// absent afterwards; nothing is carried over from the previous state.
func (s *Store) ApplyPush(next types.LobbyState) {
	s.current = next
}

// ApplySnapshotRefresh replaces the baseline the store was seeded from, and the current
// state with it. Used when the navigation layer refetches (spectator -> seated).
func (s *Store) ApplySnapshotRefresh(next types.LobbyState) {
	s.baseline = next
	s.current = next
}

func (s *Store) Current() types.LobbyState  { return s.current }
func (s *Store) Baseline() types.LobbyState { return s.baseline }

func (s *Store) IsViewerTurn() bool          { return engine.IsViewerTurn(s.current) }
func (s *Store) PhaseLabel() string          { return engine.PhaseLabel(s.current) }
func (s *Store) LastPlayDescription() string { return engine.LastPlayDescription(s.current) }
func (s *Store) TurnNotice() string          { return engine.TurnNotice(s.current) }

// Flash shows text as the active notice, superseding any earlier one, and returns the
// generation to pass to Expire once the display timeout elapses.
func (s *Store) Flash(text string) uint64 {
	s.noticeGen++
	s.notice = text
	return s.noticeGen
}

// Expire clears the notice if gen is still the newest one. Returns whether it cleared.
func (s *Store) Expire(gen uint64) bool {
	if gen != s.noticeGen || s.notice == "" {
		return false
	}
	s.notice = ""
	return true
}

// Notice is the raw active error text, empty when none.
func (s *Store) Notice() string { return s.notice }

// Notification is the banner line: the active error if any, else whose turn it is.
func (s *Store) Notification() string {
	if s.notice != "" {
		return "Error: " + s.notice
	}
	return s.TurnNotice()
}
