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

package reconcile

import (
	"bytes"

	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/remote"
)

// Batch is a set of remote changes
type Batch struct {
	Notebooks        []*remote.Notebook
	Notes            []*remote.Note
	RemovedNotebooks []string
	RemovedNotes     []string
}

// Empty returns true if the batch carries no change
func (b Batch) Empty() bool {
	return len(b.Notebooks) == 0 && len(b.Notes) == 0 &&
		len(b.RemovedNotebooks) == 0 && len(b.RemovedNotes) == 0
}

// Kind is the kind of a change applied to the state
type Kind int

const (
	// KindNew is a notebook or note that was not known
	KindNew Kind = iota
	// KindUpdated is a known notebook or note that was overwritten
	KindUpdated
	// KindConflict is a note changed remotely while it had unsaved changes.
	// The local changes are kept.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNew:
		return "new"
	case KindUpdated:
		return "updated"
	case KindConflict:
		return "conflict"
	}

	return "unknown"
}

// NotebookChange is a notebook added or updated by a merge
type NotebookChange struct {
	Kind     Kind
	Notebook *remote.Notebook
}

// NoteChange is a note added or updated by a merge. For a conflict, Note is
// the kept local note and Incoming is the remote version, marked dirty.
type NoteChange struct {
	Kind     Kind
	Note     *remote.Note
	Incoming *remote.Note
}

// Result is the outcome of a merge
type Result struct {
	Notebooks        []NotebookChange
	Notes            []NoteChange
	RemovedNotebooks []string
	RemovedNotes     []string
	// Kept are the uids of notebooks and notes removed remotely but kept
	// locally because of unsaved changes
	Kept []string
}

// Empty returns true if the merge changed nothing
func (r Result) Empty() bool {
	return len(r.Notebooks) == 0 && len(r.Notes) == 0 &&
		len(r.RemovedNotebooks) == 0 && len(r.RemovedNotes) == 0 && len(r.Kept) == 0
}

// Conflicts returns the note changes that are conflicts
func (r Result) Conflicts() []NoteChange {
	var ret []NoteChange
	for _, c := range r.Notes {
		if c.Kind == KindConflict {
			ret = append(ret, c)
		}
	}

	return ret
}

func mergeNotebook(s *State, in *remote.Notebook) NotebookChange {
	local := s.Notebook(in.UID)
	if local == nil {
		s.AddNotebook(in)
		log.Debug("added notebook %s\n", in.Name)

		return NotebookChange{Kind: KindNew, Notebook: in}
	}

	local.Name = in.Name
	local.Color = in.Color
	local.Description = in.Description
	local.Collection = in.Collection
	log.Debug("updated notebook %s\n", in.Name)

	return NotebookChange{Kind: KindUpdated, Notebook: local}
}

// mergeNote applies the incoming note and returns the change, or false if
// the note is unchanged
func mergeNote(s *State, in *remote.Note) (NoteChange, bool) {
	local := s.Note(in.UID)
	if local == nil {
		s.AddNote(in)
		log.Debug("added note %s\n", in.Name)

		return NoteChange{Kind: KindNew, Note: in}, true
	}

	if local.Name == in.Name && bytes.Equal(local.Content, in.Content) {
		if !local.Dirty {
			local.Item = in.Item
		}

		return NoteChange{}, false
	}

	if !local.Dirty {
		local.Name = in.Name
		local.Content = in.Content
		local.Item = in.Item
		log.Debug("updated note %s\n", in.Name)

		return NoteChange{Kind: KindUpdated, Note: local}, true
	}

	// the next save overwrites the latest remote revision with the local copy
	in.Dirty = true
	local.Item = in.Item
	log.Debug("note %s changed remotely while it has unsaved changes\n", local.Name)

	return NoteChange{Kind: KindConflict, Note: local, Incoming: in}, true
}

func hasDirtyNotes(s *State, notebookUID string) bool {
	for _, n := range s.NotesIn(notebookUID) {
		if n.Dirty {
			return true
		}
	}

	return false
}

// Merge applies the batch to the state. Notebooks and notes are matched by
// uid only. A clean note is overwritten by its remote version, while a dirty
// note keeps its local changes. Removed notes and notebooks are dropped
// unless they hold unsaved changes.
func Merge(s *State, b Batch) Result {
	var res Result

	for _, nb := range b.Notebooks {
		res.Notebooks = append(res.Notebooks, mergeNotebook(s, nb))
	}

	for _, n := range b.Notes {
		if c, ok := mergeNote(s, n); ok {
			res.Notes = append(res.Notes, c)
		}
	}

	for _, uid := range b.RemovedNotes {
		n := s.Note(uid)
		if n == nil {
			continue
		}
		if n.Dirty {
			log.Debug("keeping note %s removed remotely with unsaved changes\n", n.Name)
			res.Kept = append(res.Kept, uid)
			continue
		}

		s.RemoveNote(uid)
		res.RemovedNotes = append(res.RemovedNotes, uid)
	}

	for _, uid := range b.RemovedNotebooks {
		if s.Notebook(uid) == nil {
			continue
		}
		if hasDirtyNotes(s, uid) {
			log.Debug("keeping notebook %s removed remotely with unsaved notes\n", uid)
			res.Kept = append(res.Kept, uid)
			continue
		}

		for _, n := range s.NotesIn(uid) {
			res.RemovedNotes = append(res.RemovedNotes, n.UID)
		}
		s.RemoveNotebook(uid)
		res.RemovedNotebooks = append(res.RemovedNotebooks, uid)
	}

	return res
}
