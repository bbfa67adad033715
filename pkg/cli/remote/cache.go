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
	"github.com/pkg/errors"
)

// CacheSaveNotebook serializes the notebook into an opaque blob
func (r *Client) CacheSaveNotebook(nb *Notebook) ([]byte, error) {
	cm, err := r.collectionManager()
	if err != nil {
		return nil, err
	}

	return cm.CacheSave(nb.Collection)
}

// CacheLoadNotebook reconstructs a notebook from a blob produced by CacheSaveNotebook
func (r *Client) CacheLoadNotebook(blob []byte) (*Notebook, error) {
	cm, err := r.collectionManager()
	if err != nil {
		return nil, err
	}

	col, err := cm.CacheLoad(blob)
	if err != nil {
		return nil, err
	}

	return newNotebook(col), nil
}

// CacheSaveNote serializes the note into an opaque blob. Unsaved content is
// part of the blob and the note is restored dirty.
func (r *Client) CacheSaveNote(note *Note) ([]byte, error) {
	im, err := r.itemManager(note)
	if err != nil {
		return nil, err
	}

	item := note.Item
	if note.Dirty {
		item = note.Item.Pending(note.Name, note.Content)
	}

	return im.CacheSave(item)
}

// CacheLoadNote reconstructs a note of the notebook from a blob produced by CacheSaveNote
func (r *Client) CacheLoadNote(nb *Notebook, blob []byte) (*Note, error) {
	cm, err := r.collectionManager()
	if err != nil {
		return nil, err
	}

	item, err := cm.ItemManager(nb.Collection).CacheLoad(blob)
	if err != nil {
		return nil, errors.Wrapf(err, "loading a note of %s", nb.UID)
	}

	note := newNote(nb, item)
	note.Dirty = item.IsPending()

	return note, nil
}
