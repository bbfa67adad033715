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

// Package export writes notes to plain files
package export

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/dnote/etenotes/pkg/cli/utils"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
)

// ExtHTML is the extension for which the markdown content is rendered to HTML
const ExtHTML = "html"

// ErrEmptyName is an error for a note whose name leaves nothing to name a file after
var ErrEmptyName = errors.New("empty file name")

// Filename returns the file name for the note with the given extension
func Filename(note *remote.Note, ext string) (string, error) {
	name := strings.TrimSpace(utils.CleanFilename(note.Name))
	if name == "" {
		return "", errors.Wrapf(ErrEmptyName, "note %s", note.UID)
	}

	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return name, nil
	}

	return name + "." + ext, nil
}

// Render returns the content of the note as written to a file with the given extension
func Render(note *remote.Note, ext string) ([]byte, error) {
	if strings.TrimPrefix(ext, ".") != ExtHTML {
		return note.Content, nil
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(note.Content, &buf); err != nil {
		return nil, errors.Wrap(err, "rendering markdown")
	}

	return buf.Bytes(), nil
}

// Note writes the note to the given path
func Note(note *remote.Note, path string) error {
	content, err := Render(note, filepath.Ext(path))
	if err != nil {
		return err
	}

	if err := utils.WriteFileAtomic(path, content, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}

	return nil
}

// Notes writes each note to a file in dir named after the note, and returns
// the paths written
func Notes(notes []*remote.Note, dir, ext string) ([]string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, errors.Wrap(err, "creating the export directory")
	}

	var paths []string
	for _, note := range notes {
		name, err := Filename(note, ext)
		if err != nil {
			return paths, err
		}

		path := filepath.Join(dir, name)
		if err := Note(note, path); err != nil {
			return paths, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}
