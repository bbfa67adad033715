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

package export

import (
	"github.com/dnote/etenotes/pkg/cli/app"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/infra"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/output"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/dnote/etenotes/pkg/cli/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  * Export every note to the configured export directory
  etenotes export

  * Export one note to a directory
  etenotes export todo --dir ~/Desktop`

var dirFlag string

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new export command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export [note]",
		Short:   "Export notes to files",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&dirFlag, "dir", "d", "", "directory to export to (defaults to the export path setting)")

	return cmd
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		h := output.Handler{}

		return infra.WithApp(ctx, h, func(a *app.App) error {
			infra.Refresh(a, nil)

			notes := a.State().Notes()
			if len(args) == 1 {
				note, err := a.FindNote(args[0])
				if err != nil {
					return err
				}
				notes = []*remote.Note{note}
			}
			if len(notes) == 0 {
				log.Info("no notes to export\n")
				return nil
			}

			dir := dirFlag
			if dir == "" {
				dir = ctx.Config.ExportPath
			}
			if err := utils.EnsureDir(dir); err != nil {
				return errors.Wrap(err, "creating the export directory")
			}

			a.Export(notes, dir)
			a.Flush(h)

			log.Infof("exported to %s\n", dir)

			return nil
		})
	}
}
