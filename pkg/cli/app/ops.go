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

package app

import (
	"time"

	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/reconcile"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/dnote/etenotes/pkg/cli/tasks"
	"github.com/pkg/errors"
)

// Edit replaces the content of a note
func (a *App) Edit(uid string, content []byte) error {
	return a.state.Edit(uid, content)
}

// Rename renames a note
func (a *App) Rename(uid, name string) error {
	return a.state.Rename(uid, name)
}

func (a *App) submit(j tasks.Job) {
	a.submitted++
	a.runner.Submit(j)
}

// Save starts a save of the given notes. Clean notes are only written when
// force is set. A note with a save in flight is saved again once that save
// is done, if it is still dirty then.
func (a *App) Save(notes []*remote.Note, force bool) {
	var ready []*remote.Note
	for _, n := range notes {
		if a.saving[n.UID] {
			log.Debug("note %s is being saved, saving it again later\n", n.UID)
			a.deferred[n.UID] = true
			continue
		}

		ready = append(ready, n)
	}
	if len(ready) == 0 {
		return
	}

	for _, n := range ready {
		a.saving[n.UID] = true
	}
	a.submit(tasks.NewSaveJob(a.remote, ready, force))
}

// saveDeferred saves the deferred notes whose save is done
func (a *App) saveDeferred() {
	var notes []*remote.Note
	for uid := range a.deferred {
		if a.saving[uid] {
			continue
		}
		delete(a.deferred, uid)

		if n := a.state.Note(uid); n != nil && n.Dirty {
			notes = append(notes, n)
		}
	}

	a.Save(notes, false)
}

// SaveAll starts a save of the dirty notes and returns their count
func (a *App) SaveAll() int {
	dirty := a.state.DirtyNotes()
	a.Save(dirty, false)

	return len(dirty)
}

// Export starts an export of the notes to the directory. An empty directory
// means the configured export path.
func (a *App) Export(notes []*remote.Note, dir string) {
	if dir == "" {
		dir = a.ctx.Config.ExportPath
	}

	a.submit(tasks.NewExportJob(notes, dir, a.ctx.Config.ExportExtension))
}

// CreateNotebook starts the creation of a notebook
func (a *App) CreateNotebook(name, description, color string) {
	a.submit(&tasks.CreateNotebookJob{
		Remote:      a.remote,
		Name:        name,
		Description: description,
		Color:       color,
	})
}

// UpdateNotebook starts an update of the name, description and color of a
// notebook. The state changes once the update is done.
func (a *App) UpdateNotebook(uid, name, description, color string) error {
	nb := a.state.Notebook(uid)
	if nb == nil {
		return errors.Wrapf(reconcile.ErrNotFound, "notebook %s", uid)
	}

	updated := *nb
	updated.Name = name
	updated.Description = description
	updated.Color = color

	a.submit(&tasks.UpdateNotebookJob{Remote: a.remote, Notebook: &updated})

	return nil
}

// DeleteNotebook starts the deletion of a notebook
func (a *App) DeleteNotebook(uid string) error {
	nb := a.state.Notebook(uid)
	if nb == nil {
		return errors.Wrapf(reconcile.ErrNotFound, "notebook %s", uid)
	}

	a.submit(&tasks.DeleteNotebookJob{Remote: a.remote, Notebook: nb})

	return nil
}

// CreateNote starts the creation of a note in a notebook
func (a *App) CreateNote(name, notebookUID string) error {
	nb := a.state.Notebook(notebookUID)
	if nb == nil {
		return errors.Wrapf(reconcile.ErrNotFound, "notebook %s", notebookUID)
	}

	a.submit(&tasks.CreateNoteJob{Remote: a.remote, Name: name, Notebook: nb})

	return nil
}

// DeleteNote starts the deletion of a note
func (a *App) DeleteNote(uid string) error {
	note := a.state.Note(uid)
	if note == nil {
		return errors.Wrapf(reconcile.ErrNotFound, "note %s", uid)
	}

	a.submit(&tasks.DeleteNoteJob{Remote: a.remote, Note: note})

	return nil
}

// SetPollInterval changes the interval of the periodic poll. Zero disables it.
func (a *App) SetPollInterval(d time.Duration) {
	a.scheduler.SetInterval(d)
}

// PollInterval returns the interval of the periodic poll
func (a *App) PollInterval() time.Duration {
	return a.scheduler.Interval()
}

// SyncOnce polls now and applies the changes. A full sync lists everything
// and removes what the server no longer has.
func (a *App) SyncOnce(full bool, h Handler) (reconcile.Result, error) {
	if h == nil {
		h = nopHandler{}
	}

	if !full {
		b, err := a.scheduler.Poll()
		if err != nil {
			return reconcile.Result{}, err
		}

		return a.applyUpdate(b, h), nil
	}

	var b reconcile.Batch
	var err error
	a.scheduler.Exclusive(func() {
		b, err = a.listAll()
	})
	if err != nil {
		return reconcile.Result{}, err
	}

	return a.applyUpdate(b, h), nil
}

// listAll lists every notebook and note. The sync tokens are left as they
// were if any listing fails.
func (a *App) listAll() (reconcile.Batch, error) {
	store := a.remote.Tokens()
	prev := store.Pair()

	b, err := a.listAllBatch()
	if err != nil {
		store.Restore(prev)
		return reconcile.Batch{}, err
	}

	return b, nil
}

func (a *App) listAllBatch() (reconcile.Batch, error) {
	var b reconcile.Batch

	nbs, err := a.remote.ListNotebooks(false)
	if err != nil {
		return b, errors.Wrap(err, "listing notebooks")
	}

	b.Notebooks = nbs.Notebooks
	b.RemovedNotebooks = append(nbs.Removed, a.state.MissingNotebooks(nbs.Notebooks)...)

	// each listing sets the note token; the first one is kept so that the
	// notes written during the later listings are listed again
	store := a.remote.Tokens()
	var noteToken *string
	for i, nb := range nbs.Notebooks {
		notes, err := a.remote.ListNotes(nb, false)
		if err != nil {
			return b, errors.Wrapf(err, "listing notes of %s", nb.UID)
		}
		if i == 0 {
			noteToken = store.Get(consts.ClassNote)
		}

		b.Notes = append(b.Notes, notes.Notes...)
		b.RemovedNotes = append(b.RemovedNotes, notes.Removed...)
		b.RemovedNotes = append(b.RemovedNotes, a.state.MissingNotes(nb.UID, notes.Notes)...)
	}
	if noteToken != nil {
		store.Set(consts.ClassNote, noteToken)
	}

	return b, nil
}
