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

package database

import (
	"github.com/pkg/errors"
)

// NotebookRow is a cached notebook. Blob is opaque to this package.
type NotebookRow struct {
	UID      string
	Position int
	Blob     []byte
}

// NoteRow is a cached note belonging to a notebook. Blob is opaque to this package.
type NoteRow struct {
	UID         string
	NotebookUID string
	Position    int
	Blob        []byte
}

// Insert inserts a new notebook row
func (n NotebookRow) Insert(db *DB) error {
	_, err := db.Exec("INSERT INTO notebooks (uid, position, blob) VALUES (?, ?, ?)",
		n.UID, n.Position, n.Blob)

	if err != nil {
		return errors.Wrapf(err, "inserting notebook with uid %s", n.UID)
	}

	return nil
}

// Insert inserts a new note row
func (n NoteRow) Insert(db *DB) error {
	_, err := db.Exec("INSERT INTO notes (uid, notebook_uid, position, blob) VALUES (?, ?, ?, ?)",
		n.UID, n.NotebookUID, n.Position, n.Blob)

	if err != nil {
		return errors.Wrapf(err, "inserting note with uid %s", n.UID)
	}

	return nil
}

// ListNotebookRows returns all notebook rows in their saved order
func ListNotebookRows(db *DB) ([]NotebookRow, error) {
	rows, err := db.Query("SELECT uid, position, blob FROM notebooks ORDER BY position ASC")
	if err != nil {
		return nil, errors.Wrap(err, "querying notebooks")
	}
	defer rows.Close()

	ret := []NotebookRow{}
	for rows.Next() {
		var r NotebookRow
		if err := rows.Scan(&r.UID, &r.Position, &r.Blob); err != nil {
			return nil, errors.Wrap(err, "scanning a notebook row")
		}

		ret = append(ret, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating notebook rows")
	}

	return ret, nil
}

// ListNoteRows returns all note rows in their saved order
func ListNoteRows(db *DB) ([]NoteRow, error) {
	rows, err := db.Query("SELECT uid, notebook_uid, position, blob FROM notes ORDER BY position ASC")
	if err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}
	defer rows.Close()

	ret := []NoteRow{}
	for rows.Next() {
		var r NoteRow
		if err := rows.Scan(&r.UID, &r.NotebookUID, &r.Position, &r.Blob); err != nil {
			return nil, errors.Wrap(err, "scanning a note row")
		}

		ret = append(ret, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating note rows")
	}

	return ret, nil
}

// ExpungeAll hard-deletes every cached notebook and note
func ExpungeAll(db *DB) error {
	if _, err := db.Exec("DELETE FROM notes"); err != nil {
		return errors.Wrap(err, "expunging notes")
	}
	if _, err := db.Exec("DELETE FROM notebooks"); err != nil {
		return errors.Wrap(err, "expunging notebooks")
	}

	return nil
}
