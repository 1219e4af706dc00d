// Package moderation holds the in-memory chat policy state: the acting
// sysadmin, pending sysadmin handoffs, per-user violation counters and
// in-flight task drafts.
package moderation

import (
	"strings"
	"sync"
)

// Stage marks where a task draft is in its confirmation dialog.
type Stage int

const (
	StageConfirm Stage = iota
	StageClarify
)

// Draft is an unconfirmed task held while the author decides.
type Draft struct {
	Description string
	Category    string
	Stage       Stage
}

type State struct {
	mu sync.RWMutex

	sysadminID      int64
	sysadminSet     bool
	pendingUsername string

	violations map[int64]int
	drafts     map[int64]Draft
}

func NewState() *State {
	return &State{
		violations: map[int64]int{},
		drafts:     map[int64]Draft{},
	}
}

func (s *State) SysadminID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sysadminID, s.sysadminSet
}

func (s *State) IsSysadmin(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sysadminSet && s.sysadminID == userID
}

// SetSysadminID assigns the role directly and clears any pending handoff.
func (s *State) SetSysadminID(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sysadminID = userID
	s.sysadminSet = true
	s.pendingUsername = ""
}

// SetPendingUsername records a handle the role is offered to. The user
// claims it later from their own account.
func (s *State) SetPendingUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingUsername = strings.TrimPrefix(strings.TrimSpace(username), "@")
}

func (s *State) PendingUsername() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingUsername
}

// Claim succeeds when the caller's username matches the pending handle,
// case-insensitively, and makes the caller the sysadmin.
func (s *State) Claim(userID int64, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingUsername == "" || username == "" {
		return false
	}
	if !strings.EqualFold(s.pendingUsername, strings.TrimPrefix(username, "@")) {
		return false
	}
	s.sysadminID = userID
	s.sysadminSet = true
	s.pendingUsername = ""
	return true
}

// RecordViolation increments the user's counter and returns the new value.
func (s *State) RecordViolation(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations[userID]++
	return s.violations[userID]
}

func (s *State) Violations(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.violations[userID]
}

func (s *State) SetDraft(userID int64, draft Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[userID] = draft
}

func (s *State) Draft(userID int64) (Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[userID]
	return draft, ok
}

func (s *State) ClearDraft(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
}
