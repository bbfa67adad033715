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

package tasks

import (
	"github.com/dnote/etenotes/pkg/cli/etebase"
	"github.com/dnote/etenotes/pkg/cli/export"
	"github.com/dnote/etenotes/pkg/cli/remote"
)

// Job kinds
const (
	KindSave           = "save"
	KindExport         = "export"
	KindCreateNotebook = "create-notebook"
	KindCreateNote     = "create-note"
	KindDeleteNotebook = "delete-notebook"
	KindDeleteNote     = "delete-note"
	KindUpdateNotebook = "update-notebook"
)

// Remote is the remote side of the jobs
type Remote interface {
	SaveNotes(notes []*remote.Note, force bool) (int, error)
	CreateNotebook(name, description, color string) (*remote.Notebook, error)
	UpdateNotebook(nb *remote.Notebook) error
	DeleteNotebook(nb *remote.Notebook) error
	CreateNote(name string, nb *remote.Notebook) (*remote.Note, error)
	DeleteNote(note *remote.Note) error
}

// SavedNote is a note as it was saved. Item is the uploaded item and Base
// the item of the note the save was started from.
type SavedNote struct {
	UID     string
	Name    string
	Content []byte
	Item    *etebase.Item
	Base    *etebase.Item
}

// SaveResult is the payload of a finished save
type SaveResult struct {
	Notes   []SavedNote
	Written int
}

// SaveJob pushes notes to the server. It works on copies, so the notes can
// keep being edited while the save runs.
type SaveJob struct {
	Remote Remote
	Notes  []*remote.Note
	Force  bool

	bases []*etebase.Item
}

// NewSaveJob returns a save of copies of the given notes
func NewSaveJob(r Remote, notes []*remote.Note, force bool) *SaveJob {
	copies := make([]*remote.Note, 0, len(notes))
	bases := make([]*etebase.Item, 0, len(notes))
	for _, n := range notes {
		copies = append(copies, n.Copy())
		bases = append(bases, n.Item)
	}

	return &SaveJob{Remote: r, Notes: copies, Force: force, bases: bases}
}

// UIDs returns the uids of the notes being saved
func (j *SaveJob) UIDs() []string {
	ret := make([]string, 0, len(j.Notes))
	for _, n := range j.Notes {
		ret = append(ret, n.UID)
	}

	return ret
}

// Kind returns the kind of the job
func (j *SaveJob) Kind() string { return KindSave }

// Run runs the job
func (j *SaveJob) Run() (interface{}, error) {
	n, err := j.Remote.SaveNotes(j.Notes, j.Force)
	if err != nil {
		return nil, err
	}

	res := SaveResult{Written: n}
	for i, note := range j.Notes {
		saved := SavedNote{UID: note.UID, Name: note.Name, Content: note.Content, Item: note.Item}
		if i < len(j.bases) {
			saved.Base = j.bases[i]
		}

		res.Notes = append(res.Notes, saved)
	}

	return res, nil
}

// ExportJob writes notes to files in a directory
type ExportJob struct {
	Notes []*remote.Note
	Dir   string
	Ext   string
}

// NewExportJob returns an export of copies of the given notes
func NewExportJob(notes []*remote.Note, dir, ext string) *ExportJob {
	copies := make([]*remote.Note, 0, len(notes))
	for _, n := range notes {
		copies = append(copies, n.Copy())
	}

	return &ExportJob{Notes: copies, Dir: dir, Ext: ext}
}

// Kind returns the kind of the job
func (j *ExportJob) Kind() string { return KindExport }

// Run runs the job. The payload is the list of written paths.
func (j *ExportJob) Run() (interface{}, error) {
	return export.Notes(j.Notes, j.Dir, j.Ext)
}

// CreateNotebookJob creates a notebook
type CreateNotebookJob struct {
	Remote      Remote
	Name        string
	Description string
	Color       string
}

// Kind returns the kind of the job
func (j *CreateNotebookJob) Kind() string { return KindCreateNotebook }

// Run runs the job. The payload is the created notebook.
func (j *CreateNotebookJob) Run() (interface{}, error) {
	return j.Remote.CreateNotebook(j.Name, j.Description, j.Color)
}

// UpdateNotebookJob pushes the name, color and description of a notebook
type UpdateNotebookJob struct {
	Remote   Remote
	Notebook *remote.Notebook
}

// Kind returns the kind of the job
func (j *UpdateNotebookJob) Kind() string { return KindUpdateNotebook }

// Run runs the job. The payload is the updated notebook.
func (j *UpdateNotebookJob) Run() (interface{}, error) {
	if err := j.Remote.UpdateNotebook(j.Notebook); err != nil {
		return nil, err
	}

	return j.Notebook, nil
}

// DeleteNotebookJob deletes a notebook
type DeleteNotebookJob struct {
	Remote   Remote
	Notebook *remote.Notebook
}

// Kind returns the kind of the job
func (j *DeleteNotebookJob) Kind() string { return KindDeleteNotebook }

// Run runs the job. The payload is the uid of the deleted notebook.
func (j *DeleteNotebookJob) Run() (interface{}, error) {
	if err := j.Remote.DeleteNotebook(j.Notebook); err != nil {
		return nil, err
	}

	return j.Notebook.UID, nil
}

// CreateNoteJob creates a note in a notebook
type CreateNoteJob struct {
	Remote   Remote
	Name     string
	Notebook *remote.Notebook
}

// Kind returns the kind of the job
func (j *CreateNoteJob) Kind() string { return KindCreateNote }

// Run runs the job. The payload is the created note.
func (j *CreateNoteJob) Run() (interface{}, error) {
	return j.Remote.CreateNote(j.Name, j.Notebook)
}

// DeleteNoteJob deletes a note
type DeleteNoteJob struct {
	Remote Remote
	Note   *remote.Note
}

// Kind returns the kind of the job
func (j *DeleteNoteJob) Kind() string { return KindDeleteNote }

// Run runs the job. The payload is the uid of the deleted note.
func (j *DeleteNoteJob) Run() (interface{}, error) {
	if err := j.Remote.DeleteNote(j.Note); err != nil {
		return nil, err
	}

	return j.Note.UID, nil
}
