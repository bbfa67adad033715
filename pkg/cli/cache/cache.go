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

// Package cache persists the notebooks, notes and sync tokens to a local
// file so that the program can start without the network.
package cache

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/database"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/dnote/etenotes/pkg/cli/tokens"
	"github.com/dnote/etenotes/pkg/cli/utils"
	"github.com/dnote/etenotes/pkg/clock"
	"github.com/pkg/errors"
)

// Serializer turns notebooks and notes into opaque blobs and back
type Serializer interface {
	CacheSaveNotebook(nb *remote.Notebook) ([]byte, error)
	CacheSaveNote(note *remote.Note) ([]byte, error)
	CacheLoadNotebook(blob []byte) (*remote.Notebook, error)
	CacheLoadNote(nb *remote.Notebook, blob []byte) (*remote.Note, error)
}

// Cache is the local cache file
type Cache struct {
	path       string
	serializer Serializer
	tokens     *tokens.Store
	clock      clock.Clock
}

// New returns a cache at the given path
func New(path string, s Serializer, store *tokens.Store, c clock.Clock) *Cache {
	if c == nil {
		c = clock.New()
	}

	return &Cache{
		path:       path,
		serializer: s,
		tokens:     store,
		clock:      c,
	}
}

// Path returns the path to the cache file
func (c *Cache) Path() string {
	return c.path
}

func (c *Cache) open() (*database.DB, error) {
	db, err := database.Open(c.path)
	if err != nil {
		return nil, err
	}

	if _, err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Save replaces the snapshot in the cache file with the given notebooks,
// notes and token pair. The file holds either the previous or the new
// snapshot, never a mix.
func (c *Cache) Save(notebooks []*remote.Notebook, notes []*remote.Note, pair tokens.Pair) error {
	var nbRows []database.NotebookRow
	for i, nb := range notebooks {
		blob, err := c.serializer.CacheSaveNotebook(nb)
		if err != nil {
			return errors.Wrapf(err, "serializing notebook %s", nb.UID)
		}

		nbRows = append(nbRows, database.NotebookRow{UID: nb.UID, Position: i, Blob: blob})
	}

	var noteRows []database.NoteRow
	for i, note := range notes {
		blob, err := c.serializer.CacheSaveNote(note)
		if err != nil {
			return errors.Wrapf(err, "serializing note %s", note.UID)
		}

		noteRows = append(noteRows, database.NoteRow{UID: note.UID, NotebookUID: note.NotebookUID, Position: i, Blob: blob})
	}

	if err := utils.EnsureDir(filepath.Dir(c.path)); err != nil {
		return errors.Wrap(err, "creating the cache directory")
	}

	db, err := c.open()
	if err != nil {
		// an unreadable file is replaced
		log.Debug("opening the cache: %s\n", err)
		if err := c.Clear(); err != nil {
			return err
		}
		if db, err = c.open(); err != nil {
			return errors.Wrap(err, "opening the cache")
		}
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := writeSnapshot(tx, nbRows, noteRows, pair, c.clock.Now()); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "writing the cache")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing the cache")
	}

	log.Debug("cached %d notebooks and %d notes\n", len(nbRows), len(noteRows))

	return nil
}

func writeToken(tx *database.DB, key string, token *string) error {
	if token == nil {
		return database.DeleteSystem(tx, key)
	}

	return database.UpsertSystem(tx, key, *token)
}

func writeSnapshot(tx *database.DB, nbRows []database.NotebookRow, noteRows []database.NoteRow, pair tokens.Pair, now time.Time) error {
	if err := database.ExpungeAll(tx); err != nil {
		return err
	}

	for _, r := range nbRows {
		if err := r.Insert(tx); err != nil {
			return err
		}
	}
	for _, r := range noteRows {
		if err := r.Insert(tx); err != nil {
			return err
		}
	}

	if err := writeToken(tx, consts.SystemNotebookToken, pair.Notebook); err != nil {
		return err
	}
	if err := writeToken(tx, consts.SystemNoteToken, pair.Note); err != nil {
		return err
	}

	return database.UpsertSystem(tx, consts.SystemSavedAt, strconv.FormatInt(now.Unix(), 10))
}

func readToken(db *database.DB, key string) (*string, error) {
	var token string

	err := database.GetSystem(db, key, &token)
	if err == database.ErrNoSystemValue {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return &token, nil
}

type snapshot struct {
	notebooks []database.NotebookRow
	notes     []database.NoteRow
	pair      tokens.Pair
	savedAt   string
}

func (c *Cache) read() (snapshot, error) {
	var ret snapshot

	db, err := c.open()
	if err != nil {
		return ret, errors.Wrap(err, "opening the cache")
	}
	defer db.Close()

	if ret.notebooks, err = database.ListNotebookRows(db); err != nil {
		return ret, err
	}
	if ret.notes, err = database.ListNoteRows(db); err != nil {
		return ret, err
	}
	if ret.pair.Notebook, err = readToken(db, consts.SystemNotebookToken); err != nil {
		return ret, err
	}
	if ret.pair.Note, err = readToken(db, consts.SystemNoteToken); err != nil {
		return ret, err
	}
	if err := database.GetSystem(db, consts.SystemSavedAt, &ret.savedAt); err != nil && err != database.ErrNoSystemValue {
		return ret, err
	}

	return ret, nil
}

// Load reads the snapshot from the cache file. Any failure yields no
// notebooks and no notes, and is only logged. Notes of notebooks missing
// from the snapshot are dropped. On success the sync tokens are restored.
func (c *Cache) Load() ([]*remote.Notebook, []*remote.Note) {
	ok, err := utils.FileExists(c.path)
	if err != nil || !ok {
		log.Debug("no cache at %s\n", c.path)
		return nil, nil
	}

	snap, err := c.read()
	if err != nil {
		log.Debug("reading the cache: %s\n", err)
		return nil, nil
	}

	notebooks := []*remote.Notebook{}
	byUID := map[string]*remote.Notebook{}
	for _, r := range snap.notebooks {
		nb, err := c.serializer.CacheLoadNotebook(r.Blob)
		if err != nil {
			log.Debug("loading cached notebook %s: %s\n", r.UID, err)
			return nil, nil
		}

		notebooks = append(notebooks, nb)
		byUID[nb.UID] = nb
	}

	if len(notebooks) == 0 {
		return nil, nil
	}

	notes := []*remote.Note{}
	for _, r := range snap.notes {
		nb, ok := byUID[r.NotebookUID]
		if !ok {
			log.Debug("dropping cached note %s of unknown notebook %s\n", r.UID, r.NotebookUID)
			continue
		}

		note, err := c.serializer.CacheLoadNote(nb, r.Blob)
		if err != nil {
			log.Debug("loading cached note %s: %s\n", r.UID, err)
			return nil, nil
		}

		notes = append(notes, note)
	}

	c.tokens.Restore(snap.pair)
	log.Debug("loaded %d notebooks and %d notes cached at %s\n", len(notebooks), len(notes), snap.savedAt)

	return notebooks, notes
}

// Clear removes the cache file
func (c *Cache) Clear() error {
	if err := utils.RemoveFiles(c.path, c.path+"-journal"); err != nil {
		return errors.Wrap(err, "removing the cache")
	}

	return nil
}
