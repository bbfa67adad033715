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

package ls

import (
	"github.com/dnote/etenotes/pkg/cli/app"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/infra"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * List all notebooks
 etenotes ls

 * List the notes of a notebook
 etenotes ls work
 `

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new ls command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls [notebook]",
		Aliases: []string{"l", "notes"},
		Short:   "List notebooks or the notes of a notebook",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

func printNotebooks(a *app.App) {
	nbs := a.State().Notebooks()
	if len(nbs) == 0 {
		log.Info("no notebooks yet\n")
		return
	}

	for _, nb := range nbs {
		log.Plainf("%s\n", output.NotebookLine(nb, len(a.State().NotesIn(nb.UID))))
	}
}

func printNotes(a *app.App, ref string) error {
	nb, err := a.FindNotebook(ref)
	if err != nil {
		return err
	}

	log.Infof("on notebook %s\n", nb.Name)
	for _, n := range a.State().NotesIn(nb.UID) {
		log.Plainf("%s\n", output.NoteLine(n))
	}

	return nil
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		return infra.WithApp(ctx, output.Handler{}, func(a *app.App) error {
			infra.Refresh(a, nil)

			if len(args) == 0 {
				printNotebooks(a)
				return nil
			}

			return printNotes(a, args[0])
		})
	}
}
