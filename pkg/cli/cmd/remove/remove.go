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

package remove

import (
	"fmt"

	"github.com/dnote/etenotes/pkg/cli/app"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/infra"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/output"
	"github.com/dnote/etenotes/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  * Remove a note by name or uid
  etenotes remove todo
  etenotes remove 3f2a -y`

var yesFlag bool

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new remove command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <note>",
		Short:   "Remove a note",
		Aliases: []string{"rm", "d"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&yesFlag, "yes", "y", false, "remove without confirmation")

	return cmd
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		h := output.Handler{}

		return infra.WithApp(ctx, h, func(a *app.App) error {
			infra.Refresh(a, nil)

			note, err := a.FindNote(args[0])
			if err != nil {
				return err
			}

			if !yesFlag {
				output.NoteInfo(note, a.State().Notebook(note.NotebookUID))

				ok, err := ui.Confirm(fmt.Sprintf("remove note %s?", note.Name), false)
				if err != nil {
					return errors.Wrap(err, "getting confirmation")
				}
				if !ok {
					log.Warnf("aborted by user\n")
					return nil
				}
			}

			if err := a.DeleteNote(note.UID); err != nil {
				return err
			}
			a.Flush(h)

			return nil
		})
	}
}
