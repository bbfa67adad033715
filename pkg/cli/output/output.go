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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"strings"

	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/reconcile"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/dnote/etenotes/pkg/cli/tasks"
	"github.com/dnote/etenotes/pkg/cli/utils"
	"github.com/dnote/etenotes/pkg/cli/utils/diff"
)

// NoteInfo prints a note information
func NoteInfo(note *remote.Note, nb *remote.Notebook) {
	if nb != nil {
		log.Infof("notebook: %s\n", nb.Name)
	}
	log.Infof("note name: %s\n", note.Name)
	log.Infof("note uid: %s\n", note.UID)
	if note.Dirty {
		log.Infof("status: %s\n", log.ColorYellow.Sprint("unsaved changes"))
	}

	fmt.Printf("\n------------------------content------------------------\n")
	fmt.Printf("%s", note.Content)
	fmt.Printf("\n-------------------------------------------------------\n")
}

// NoteContent prints the content of a note only
func NoteContent(note *remote.Note) {
	fmt.Printf("%s", note.Content)
}

// NotebookInfo prints a notebook information
func NotebookInfo(nb *remote.Notebook) {
	log.Infof("notebook name: %s\n", nb.Name)
	if nb.Description != "" {
		log.Infof("description: %s\n", nb.Description)
	}
	if nb.Color != "" {
		log.Infof("color: %s\n", nb.Color)
	}
	log.Infof("notebook uid: %s\n", nb.UID)
}

// NotebookLine formats a notebook as one line of a listing
func NotebookLine(nb *remote.Notebook, noteCount int) string {
	return fmt.Sprintf("%s %s %s", log.ColorGray.Sprint(utils.ShortUID(nb.UID)), nb.Name, log.ColorYellow.Sprintf("(%d)", noteCount))
}

// NoteLine formats a note as one line of a listing
func NoteLine(note *remote.Note) string {
	s := fmt.Sprintf("%s %s", log.ColorGray.Sprint(utils.ShortUID(note.UID)), note.Name)
	if note.Dirty {
		s += log.ColorYellow.Sprint(" *")
	}

	return s
}

// FormatDiff formats the line by line difference between two contents
func FormatDiff(from, to string) string {
	var sb strings.Builder

	for _, d := range diff.Do(from, to) {
		lines := strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n")

		for _, l := range lines {
			switch d.Type {
			case diff.DiffInsert:
				sb.WriteString(log.ColorGreen.Sprintf("+ %s", l))
			case diff.DiffDelete:
				sb.WriteString(log.ColorRed.Sprintf("- %s", l))
			default:
				sb.WriteString("  " + l)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// Conflict prints a note changed remotely while it had unsaved changes
func Conflict(c reconcile.NoteChange) {
	local, incoming := string(c.Note.Content), string(c.Incoming.Content)
	ins, del := diff.Stat(incoming, local)

	log.Warnf("%s changed remotely while it had unsaved changes. Keeping the local version (+%d -%d).\n", c.Note.Name, ins, del)
	fmt.Print(FormatDiff(incoming, local))
}

// Summary formats the changes applied by a merge
func Summary(res reconcile.Result) string {
	var added, updated int
	for _, c := range res.Notes {
		switch c.Kind {
		case reconcile.KindNew:
			added++
		case reconcile.KindUpdated:
			updated++
		}
	}

	parts := []string{
		fmt.Sprintf("%d notebooks", len(res.Notebooks)),
		fmt.Sprintf("%d new notes", added),
		fmt.Sprintf("%d updated notes", updated),
	}
	if n := len(res.RemovedNotebooks) + len(res.RemovedNotes); n > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", n))
	}
	if n := len(res.Conflicts()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d conflicts", n))
	}
	if n := len(res.Kept); n > 0 {
		parts = append(parts, fmt.Sprintf("%d kept with unsaved changes", n))
	}

	return strings.Join(parts, ", ")
}

// Result prints the changes applied by a merge
func Result(res reconcile.Result) {
	if res.Empty() {
		log.Info("already up to date\n")
		return
	}

	log.Successf("synced: %s\n", Summary(res))
	for _, c := range res.Conflicts() {
		Conflict(c)
	}
}

// Event prints the outcome of a job
func Event(ev tasks.Event) {
	switch ev.Status {
	case tasks.StatusStarted:
		log.Debug("%s started\n", ev.Kind)
	case tasks.StatusFailed:
		log.Errorf("%s failed: %s\n", ev.Kind, ev.Err)
	case tasks.StatusFinished:
		log.Success(EventMessage(ev) + "\n")
	}
}

// EventMessage describes a finished job
func EventMessage(ev tasks.Event) string {
	switch p := ev.Payload.(type) {
	case tasks.SaveResult:
		return fmt.Sprintf("saved %d notes", p.Written)
	case []string:
		return fmt.Sprintf("exported %d notes", len(p))
	case *remote.Notebook:
		if ev.Kind == tasks.KindCreateNotebook {
			return fmt.Sprintf("created notebook %s", p.Name)
		}
		return fmt.Sprintf("updated notebook %s", p.Name)
	case *remote.Note:
		return fmt.Sprintf("created note %s", p.Name)
	case string:
		return fmt.Sprintf("removed %s", p)
	}

	return ev.Kind + " done"
}

// Handler prints the changes and job outcomes applied by an application instance
type Handler struct{}

// OnUpdates prints the changes applied by a poll
func (Handler) OnUpdates(res reconcile.Result) {
	Result(res)
}

// OnEvent prints the outcome of a job
func (Handler) OnEvent(ev tasks.Event) {
	Event(ev)
}
