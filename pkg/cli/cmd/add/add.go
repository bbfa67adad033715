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

package add

import (
	"github.com/dnote/etenotes/pkg/cli/app"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/infra"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/output"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/dnote/etenotes/pkg/cli/tasks"
	"github.com/dnote/etenotes/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var contentFlag string

var example = `
 * Open an editor to write content
 etenotes add work todo

 * Skip the editor by providing content directly
 etenotes add work todo -c "write the report"

 * Send stdin content to a note
 echo "call the bank" | etenotes add work todo
 # or
 etenotes add work todo << EOF
 buy milk
 EOF`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new add command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <notebook> <name>",
		Short:   "Add a new note",
		Aliases: []string{"a", "n", "new"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&contentFlag, "content", "c", "", "The new content for the note")

	return cmd
}

func getContent(ctx context.NotesCtx) ([]byte, error) {
	if contentFlag != "" {
		return []byte(contentFlag), nil
	}

	if ui.StdinPiped() {
		c, err := ui.ReadStdInput()
		if err != nil {
			return nil, errors.Wrap(err, "Failed to get piped input")
		}
		return c, nil
	}

	c, err := ui.GetEditorInput(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get editor input")
	}

	return c, nil
}

// creation remembers the note created by a job
type creation struct {
	output.Handler
	note *remote.Note
}

func (c *creation) OnEvent(ev tasks.Event) {
	if ev.Kind == tasks.KindCreateNote && ev.Status == tasks.StatusFinished {
		c.note = ev.Payload.(*remote.Note)
	}

	c.Handler.OnEvent(ev)
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		notebookRef, name := args[0], args[1]

		content, err := getContent(ctx)
		if err != nil {
			return errors.Wrap(err, "getting content")
		}
		if len(content) == 0 {
			return errors.New("Empty content")
		}

		var nb *remote.Notebook
		err = infra.WithApp(ctx, output.Handler{}, func(a *app.App) error {
			infra.Refresh(a, nil)

			found, err := a.FindNotebook(notebookRef)
			if err != nil {
				return err
			}
			nb = found

			c := &creation{}
			if err := a.CreateNote(name, nb.UID); err != nil {
				return err
			}
			a.Flush(c)
			if c.note == nil {
				return errors.New("Failed to create the note")
			}

			// saved on shutdown
			return a.Edit(c.note.UID, content)
		})
		if err != nil {
			return err
		}

		log.Successf("added to %s\n", nb.Name)

		return nil
	}
}
