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

package cat

import (
	"github.com/dnote/etenotes/pkg/cli/app"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/infra"
	"github.com/dnote/etenotes/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * See a note by name or uid
 etenotes cat todo
 etenotes cat 3f2a

 * Print the content only
 etenotes cat todo --content-only
 `

var contentOnlyFlag bool

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of arguments")
	}

	return nil
}

// NewCmd returns a new cat command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cat <note>",
		Aliases: []string{"c", "view"},
		Short:   "See a note",
		Example: example,
		RunE:    NewRun(ctx),
		PreRunE: preRun,
	}

	f := cmd.Flags()
	f.BoolVarP(&contentOnlyFlag, "content-only", "", false, "print the content only")

	return cmd
}

// NewRun returns a new run function
func NewRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		return infra.WithApp(ctx, output.Handler{}, func(a *app.App) error {
			infra.Refresh(a, nil)

			note, err := a.FindNote(args[0])
			if err != nil {
				return err
			}

			if contentOnlyFlag {
				output.NoteContent(note)
			} else {
				output.NoteInfo(note, a.State().Notebook(note.NotebookUID))
			}

			return nil
		})
	}
}
