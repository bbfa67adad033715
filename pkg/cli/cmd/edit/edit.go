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

package edit

import (
	"github.com/dnote/etenotes/pkg/cli/app"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/infra"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/output"
	"github.com/dnote/etenotes/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var contentFlag string
var nameFlag string

var example = `
  * Edit a note by name or uid
  etenotes edit todo

  * Edit a note without launching an editor
  etenotes edit todo -c "new content"

  * Rename a note
  etenotes edit todo -n done
`

// NewCmd returns a new edit command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <note>",
		Short:   "Edit a note",
		Aliases: []string{"e"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&contentFlag, "content", "c", "", "a new content for the note")
	f.StringVarP(&nameFlag, "name", "n", "", "a new name for the note")

	return cmd
}

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		return infra.WithApp(ctx, output.Handler{}, func(a *app.App) error {
			infra.Refresh(a, nil)

			note, err := a.FindNote(args[0])
			if err != nil {
				return err
			}

			if nameFlag != "" {
				if err := a.Rename(note.UID, nameFlag); err != nil {
					return errors.Wrap(err, "renaming")
				}
			}

			var content []byte
			if contentFlag != "" {
				content = []byte(contentFlag)
			} else if nameFlag == "" {
				content, err = ui.GetEditorInput(ctx, note.Content)
				if err != nil {
					return errors.Wrap(err, "getting editor input")
				}
			}

			if content != nil {
				if err := a.Edit(note.UID, content); err != nil {
					return errors.Wrap(err, "editing")
				}
			}

			if !note.Dirty {
				log.Info("Nothing changed\n")
			}

			return nil
		})
	}
}
