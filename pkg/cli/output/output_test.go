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

package output

import (
	"os"
	"testing"

	"github.com/dnote/etenotes/pkg/assert"
	"github.com/dnote/etenotes/pkg/cli/reconcile"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/dnote/etenotes/pkg/cli/tasks"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestFormatDiff(t *testing.T) {
	got := FormatDiff("a\nb\nc\n", "a\nB\nc\n")
	assert.Equal(t, got, "  a\n- b\n+ B\n  c\n", "diff mismatch")
}

func TestLines(t *testing.T) {
	nb := &remote.Notebook{UID: "0123456789abcdef", Name: "work"}
	assert.Equal(t, NotebookLine(nb, 3), "01234567 work (3)", "notebook line mismatch")

	n := &remote.Note{UID: "fedcba9876543210", Name: "todo", Dirty: true}
	assert.Equal(t, NoteLine(n), "fedcba98 todo *", "note line mismatch")
}

func TestSummary(t *testing.T) {
	res := reconcile.Result{
		Notebooks: []reconcile.NotebookChange{{Kind: reconcile.KindNew}},
		Notes: []reconcile.NoteChange{
			{Kind: reconcile.KindNew},
			{Kind: reconcile.KindUpdated},
			{Kind: reconcile.KindConflict},
		},
		RemovedNotes: []string{"x"},
		Kept:         []string{"y"},
	}

	expected := "1 notebooks, 1 new notes, 1 updated notes, 1 removed, 1 conflicts, 1 kept with unsaved changes"
	assert.Equal(t, Summary(res), expected, "summary mismatch")
}

func TestEventMessage(t *testing.T) {
	testCases := []struct {
		ev       tasks.Event
		expected string
	}{
		{
			ev:       tasks.Event{Kind: tasks.KindSave, Payload: tasks.SaveResult{Written: 2}},
			expected: "saved 2 notes",
		},
		{
			ev:       tasks.Event{Kind: tasks.KindExport, Payload: []string{"a", "b"}},
			expected: "exported 2 notes",
		},
		{
			ev:       tasks.Event{Kind: tasks.KindCreateNotebook, Payload: &remote.Notebook{Name: "work"}},
			expected: "created notebook work",
		},
		{
			ev:       tasks.Event{Kind: tasks.KindUpdateNotebook, Payload: &remote.Notebook{Name: "home"}},
			expected: "updated notebook home",
		},
		{
			ev:       tasks.Event{Kind: tasks.KindCreateNote, Payload: &remote.Note{Name: "todo"}},
			expected: "created note todo",
		},
		{
			ev:       tasks.Event{Kind: tasks.KindDeleteNote, Payload: "n1"},
			expected: "removed n1",
		},
		{
			ev:       tasks.Event{Kind: "other", Err: errors.New("x")},
			expected: "other done",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, EventMessage(tc.ev), tc.expected, "message mismatch")
		})
	}
}
