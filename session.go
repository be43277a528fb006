package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionClosed is returned by every mutator once the session has been
	// committed or cancelled.
	ErrSessionClosed = errors.New("edit session is closed")

	// ErrIndexOutOfRange rejects list edits that point outside the working
	// copy instead of corrupting it.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// EditSession is a working copy of SiteData opened for editing. It owns its
// copy outright: mutators replace whole slices rather than writing through
// shared backing arrays, so values handed out earlier never change underneath
// their holders. The committed store is untouched until Commit.
type EditSession struct {
	token   string
	store   *ContentStore
	working SiteData
	closed  bool
}

// openEditSession captures an independent copy of the store's committed data.
// The token identifies this session generation; async image ingestion checks
// it before applying results (see ingest.go).
func openEditSession(store *ContentStore) *EditSession {
	return &EditSession{
		token:   uuid.NewString(),
		store:   store,
		working: store.Data(),
	}
}

// Token returns the session's generation token.
func (s *EditSession) Token() string { return s.token }

// Closed reports whether the session has been committed or cancelled.
func (s *EditSession) Closed() bool { return s.closed }

// Working returns a copy of the current working value.
func (s *EditSession) Working() SiteData { return s.working.Clone() }

// SetProfileImage replaces the profile image reference (URL or data URI).
func (s *EditSession) SetProfileImage(img string) error {
	if s.closed {
		return ErrSessionClosed
	}
	next := s.working.Clone()
	next.ProfileImg = img
	s.working = next
	return nil
}

// SetBio replaces the biography text.
func (s *EditSession) SetBio(bio string) error {
	if s.closed {
		return ErrSessionClosed
	}
	next := s.working.Clone()
	next.Bio = bio
	s.working = next
	return nil
}

// UpdateCareerItem sets one field ("date", "title" or "role") of the career
// entry at index.
func (s *EditSession) UpdateCareerItem(index int, field, value string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if index < 0 || index >= len(s.working.Career) {
		return fmt.Errorf("career item %d: %w", index, ErrIndexOutOfRange)
	}

	next := s.working.Clone()
	item := &next.Career[index]
	switch field {
	case "date":
		item.Date = value
	case "title":
		item.Title = value
	case "role":
		item.Role = value
	default:
		return fmt.Errorf("unknown career field %q", field)
	}
	s.working = next
	return nil
}

// UpdateWorkField sets one field ("title", "img" or "url") of the work entry
// at index. The id field is not editable.
func (s *EditSession) UpdateWorkField(index int, field, value string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if index < 0 || index >= len(s.working.Works) {
		return fmt.Errorf("work item %d: %w", index, ErrIndexOutOfRange)
	}

	next := s.working.Clone()
	item := &next.Works[index]
	switch field {
	case "title":
		item.Title = value
	case "img":
		item.Img = value
	case "url":
		item.URL = value
	default:
		return fmt.Errorf("unknown work field %q", field)
	}
	s.working = next
	return nil
}

// AddWork appends an empty work entry with an id distinct from every id in
// the session. The candidate is time-derived and bumped past any existing id,
// so two back-to-back calls in the same millisecond still differ.
func (s *EditSession) AddWork() (WorkItem, error) {
	if s.closed {
		return WorkItem{}, ErrSessionClosed
	}

	id := time.Now().UnixMilli()
	for _, w := range s.working.Works {
		if w.ID >= id {
			id = w.ID + 1
		}
	}

	item := WorkItem{ID: id}
	next := s.working.Clone()
	next.Works = append(next.Works, item)
	s.working = next
	return item, nil
}

// RemoveWork deletes exactly one entry. Remaining entries keep their ids and
// relative order; nothing is renumbered.
func (s *EditSession) RemoveWork(index int) error {
	if s.closed {
		return ErrSessionClosed
	}
	if index < 0 || index >= len(s.working.Works) {
		return fmt.Errorf("work item %d: %w", index, ErrIndexOutOfRange)
	}

	next := s.working.Clone()
	next.Works = append(next.Works[:index], next.Works[index+1:]...)
	s.working = next
	return nil
}

// Commit pushes the working value into the store. On success the session is
// closed; on a persistence failure it stays open so the edit can be retried
// or cancelled.
func (s *EditSession) Commit() error {
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.store.Commit(s.working); err != nil {
		return err
	}
	s.closed = true
	return nil
}

// Cancel discards the working value and closes the session. The store is
// left untouched.
func (s *EditSession) Cancel() {
	s.closed = true
}
