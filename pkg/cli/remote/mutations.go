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

package remote

import (
	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/etebase"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/clock"
	"github.com/pkg/errors"
)

// noteItemType is the metadata type of note items
const noteItemType = "file"

// CreateNotebook creates a notebook on the server
func (r *Client) CreateNotebook(name, description, color string) (*Notebook, error) {
	cm, err := r.collectionManager()
	if err != nil {
		return nil, err
	}

	col, err := cm.Create(consts.CollectionType, etebase.ItemMetadata{
		Name:        name,
		Description: description,
		Color:       color,
	}, []byte{})
	if err != nil {
		return nil, errors.Wrap(err, "creating the collection")
	}
	if err := cm.Upload(col); err != nil {
		return nil, errors.Wrapf(err, "uploading notebook %s", name)
	}

	return newNotebook(col), nil
}

// UpdateNotebook pushes the name, color and description of the notebook
func (r *Client) UpdateNotebook(nb *Notebook) error {
	cm, err := r.collectionManager()
	if err != nil {
		return err
	}

	meta := nb.Collection.Meta()
	meta.Name = nb.Name
	meta.Color = nb.Color
	meta.Description = nb.Description
	nb.Collection.SetMeta(meta)

	if err := cm.Upload(nb.Collection); err != nil {
		return errors.Wrapf(err, "uploading notebook %s", nb.UID)
	}

	return nil
}

// DeleteNotebook deletes the notebook on the server
func (r *Client) DeleteNotebook(nb *Notebook) error {
	cm, err := r.collectionManager()
	if err != nil {
		return err
	}

	nb.Collection.Delete()
	if err := cm.Upload(nb.Collection); err != nil {
		return errors.Wrapf(err, "deleting notebook %s", nb.UID)
	}

	return nil
}

// CreateNote creates an empty note in the notebook on the server
func (r *Client) CreateNote(name string, nb *Notebook) (*Note, error) {
	cm, err := r.collectionManager()
	if err != nil {
		return nil, err
	}

	im := cm.ItemManager(nb.Collection)
	item, err := im.Create(etebase.ItemMetadata{
		Type:  noteItemType,
		Name:  name,
		Mtime: clock.UnixMilli(r.clock),
	}, []byte{})
	if err != nil {
		return nil, errors.Wrap(err, "creating the item")
	}
	if err := im.Batch([]*etebase.Item{item}); err != nil {
		return nil, errors.Wrapf(err, "uploading note %s", name)
	}

	return newNote(nb, item), nil
}

func (r *Client) itemManager(note *Note) (*etebase.ItemManager, error) {
	cm, err := r.collectionManager()
	if err != nil {
		return nil, err
	}
	if note.collection == nil || note.Item == nil {
		return nil, errors.Errorf("note %s has no remote handle", note.UID)
	}

	return cm.ItemManager(note.collection), nil
}

// DeleteNote deletes the note on the server
func (r *Client) DeleteNote(note *Note) error {
	im, err := r.itemManager(note)
	if err != nil {
		return err
	}

	note.Item.Delete()
	if err := im.Batch([]*etebase.Item{note.Item}); err != nil {
		return errors.Wrapf(err, "deleting note %s", note.UID)
	}

	return nil
}

func (r *Client) writeNote(note *Note) error {
	im, err := r.itemManager(note)
	if err != nil {
		return err
	}

	meta := note.Item.Meta()
	meta.Name = note.Name
	meta.Mtime = clock.UnixMilli(r.clock)
	note.Item.SetMeta(meta)
	note.Item.SetContent(append([]byte(nil), note.Content...))

	if err := im.Batch([]*etebase.Item{note.Item}); err != nil {
		return errors.Wrapf(err, "writing note %s", note.UID)
	}

	return nil
}

// WriteNote pushes the content of the note unless it is clean and force is
// false. It returns whether a write happened and clears the dirty flag on success.
func (r *Client) WriteNote(note *Note, force bool) (bool, error) {
	if !note.Dirty && !force {
		log.Debug("%s has no new contents, skipping\n", note.Name)
		return false, nil
	}

	if err := r.writeNote(note); err != nil {
		return false, err
	}
	note.Dirty = false

	return true, nil
}

// SaveNotes pushes the eligible notes and returns the number of writes.
// Dirty flags are cleared only if every write succeeds.
func (r *Client) SaveNotes(notes []*Note, force bool) (int, error) {
	var written []*Note

	for _, note := range notes {
		if !note.Dirty && !force {
			log.Debug("%s has no new contents, skipping\n", note.Name)
			continue
		}

		if err := r.writeNote(note); err != nil {
			return len(written), err
		}

		written = append(written, note)
	}

	for _, note := range written {
		note.Dirty = false
	}

	return len(written), nil
}
