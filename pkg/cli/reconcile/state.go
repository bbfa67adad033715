/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package reconcile holds the in-memory notebooks and notes and merges
// remote changes into them.
package reconcile

import (
	"bytes"

	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/pkg/errors"
)

// ErrNotFound is an error for a notebook or note that is not in the state
var ErrNotFound = errors.New("not found")

// State is the set of known notebooks and notes in insertion order. It is
// not safe for concurrent use and is meant to be owned by one goroutine.
type State struct {
	notebooks []*remote.Notebook
	notes     []*remote.Note
}

// NewState returns an empty state
func NewState() *State {
	return &State{}
}

// Restore replaces the content of the state
func (s *State) Restore(notebooks []*remote.Notebook, notes []*remote.Note) {
	s.notebooks = append([]*remote.Notebook(nil), notebooks...)
	s.notes = append([]*remote.Note(nil), notes...)
}

// Notebooks returns the notebooks
func (s *State) Notebooks() []*remote.Notebook {
	return append([]*remote.Notebook(nil), s.notebooks...)
}

// Notes returns the notes
func (s *State) Notes() []*remote.Note {
	return append([]*remote.Note(nil), s.notes...)
}

// Notebook returns the notebook with the given uid, or nil
func (s *State) Notebook(uid string) *remote.Notebook {
	for _, nb := range s.notebooks {
		if nb.UID == uid {
			return nb
		}
	}

	return nil
}

// Note returns the note with the given uid, or nil
func (s *State) Note(uid string) *remote.Note {
	for _, n := range s.notes {
		if n.UID == uid {
			return n
		}
	}

	return nil
}

// NotesIn returns the notes of the notebook
func (s *State) NotesIn(notebookUID string) []*remote.Note {
	var ret []*remote.Note
	for _, n := range s.notes {
		if n.NotebookUID == notebookUID {
			ret = append(ret, n)
		}
	}

	return ret
}

// AddNotebook appends the notebook
func (s *State) AddNotebook(nb *remote.Notebook) {
	s.notebooks = append(s.notebooks, nb)
}

// AddNote appends the note
func (s *State) AddNote(n *remote.Note) {
	s.notes = append(s.notes, n)
}

// RemoveNote removes the note and reports whether it was present
func (s *State) RemoveNote(uid string) bool {
	for i, n := range s.notes {
		if n.UID == uid {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return true
		}
	}

	return false
}

// RemoveNotebook removes the notebook along with its notes and reports
// whether it was present
func (s *State) RemoveNotebook(uid string) bool {
	found := false
	for i, nb := range s.notebooks {
		if nb.UID == uid {
			s.notebooks = append(s.notebooks[:i], s.notebooks[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return false
	}

	kept := s.notes[:0]
	for _, n := range s.notes {
		if n.NotebookUID != uid {
			kept = append(kept, n)
		}
	}
	s.notes = kept

	return true
}

// Edit replaces the content of the note. The note becomes dirty if the
// content changed.
func (s *State) Edit(uid string, content []byte) error {
	n := s.Note(uid)
	if n == nil {
		return errors.Wrapf(ErrNotFound, "note %s", uid)
	}

	if bytes.Equal(n.Content, content) {
		return nil
	}

	n.Content = append([]byte(nil), content...)
	n.Dirty = true

	return nil
}

// Rename renames the note. The note becomes dirty if the name changed.
func (s *State) Rename(uid, name string) error {
	n := s.Note(uid)
	if n == nil {
		return errors.Wrapf(ErrNotFound, "note %s", uid)
	}

	if n.Name == name {
		return nil
	}

	n.Name = name
	n.Dirty = true

	return nil
}

// MarkSaved clears the dirty flag of the note if its name and content are
// still the ones that were saved, and reports whether it did. Edits and
// renames made while the save was in flight keep the note dirty.
func (s *State) MarkSaved(uid, name string, content []byte) bool {
	n := s.Note(uid)
	if n == nil || n.Name != name || !bytes.Equal(n.Content, content) {
		return false
	}

	n.Dirty = false

	return true
}

// DirtyNotes returns the notes with unsaved changes
func (s *State) DirtyNotes() []*remote.Note {
	var ret []*remote.Note
	for _, n := range s.notes {
		if n.Dirty {
			ret = append(ret, n)
		}
	}

	return ret
}

// MissingNotebooks returns the uids of the known notebooks absent from a
// full listing
func (s *State) MissingNotebooks(listed []*remote.Notebook) []string {
	present := map[string]bool{}
	for _, nb := range listed {
		present[nb.UID] = true
	}

	var ret []string
	for _, nb := range s.notebooks {
		if !present[nb.UID] {
			ret = append(ret, nb.UID)
		}
	}

	return ret
}

// MissingNotes returns the uids of the known notes of the notebook absent
// from a full listing of its notes
func (s *State) MissingNotes(notebookUID string, listed []*remote.Note) []string {
	present := map[string]bool{}
	for _, n := range listed {
		present[n.UID] = true
	}

	var ret []string
	for _, n := range s.NotesIn(notebookUID) {
		if !present[n.UID] {
			ret = append(ret, n.UID)
		}
	}

	return ret
}
