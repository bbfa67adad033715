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
	"strings"

	"github.com/dnote/etenotes/pkg/cli/reconcile"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/pkg/errors"
)

// ErrAmbiguous is returned when a reference matches more than one notebook or note
var ErrAmbiguous = errors.New("ambiguous reference")

type candidate struct {
	uid  string
	name string
}

// match returns the index of the candidate the reference points to. A
// reference is a uid, a prefix of a uid, or a name, tried in that order.
func match(ref string, cands []candidate) (int, error) {
	for i, c := range cands {
		if c.uid == ref {
			return i, nil
		}
	}

	for _, pred := range []func(c candidate) bool{
		func(c candidate) bool { return strings.HasPrefix(c.uid, ref) },
		func(c candidate) bool { return c.name == ref },
	} {
		found := -1
		for i, c := range cands {
			if !pred(c) {
				continue
			}
			if found != -1 {
				return -1, errors.Wrapf(ErrAmbiguous, "%q", ref)
			}
			found = i
		}

		if found != -1 {
			return found, nil
		}
	}

	return -1, errors.Wrapf(reconcile.ErrNotFound, "%q", ref)
}

// FindNotebook returns the notebook with the given uid, uid prefix or name
func (a *App) FindNotebook(ref string) (*remote.Notebook, error) {
	if ref == "" {
		return nil, errors.Wrap(reconcile.ErrNotFound, "empty reference")
	}

	nbs := a.state.Notebooks()
	cands := make([]candidate, 0, len(nbs))
	for _, nb := range nbs {
		cands = append(cands, candidate{uid: nb.UID, name: nb.Name})
	}

	i, err := match(ref, cands)
	if err != nil {
		return nil, errors.Wrap(err, "finding notebook")
	}

	return nbs[i], nil
}

// FindNote returns the note with the given uid, uid prefix or name
func (a *App) FindNote(ref string) (*remote.Note, error) {
	if ref == "" {
		return nil, errors.Wrap(reconcile.ErrNotFound, "empty reference")
	}

	notes := a.state.Notes()
	cands := make([]candidate, 0, len(notes))
	for _, n := range notes {
		cands = append(cands, candidate{uid: n.UID, name: n.Name})
	}

	i, err := match(ref, cands)
	if err != nil {
		return nil, errors.Wrap(err, "finding note")
	}

	return notes[i], nil
}
