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

package notebook

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
  etenotes notebook add work -d "things to do" --color "#ff0000"
  etenotes notebook edit work --name office
  etenotes notebook remove office`

var (
	descriptionFlag string
	colorFlag       string
	nameFlag        string
	yesFlag         bool
)

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.New("Incorrect number of argument")
		}

		return nil
	}
}

// NewCmd returns a new notebook command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notebook",
		Aliases: []string{"nb"},
		Short:   "Manage notebooks",
		Example: example,
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a notebook",
		Args:  exactArgs(1),
		RunE:  newAddRun(ctx),
	}
	add.Flags().StringVarP(&descriptionFlag, "description", "d", "", "description of the notebook")
	add.Flags().StringVar(&colorFlag, "color", "", "color of the notebook")

	edit := &cobra.Command{
		Use:   "edit <notebook>",
		Short: "Change the name, description or color of a notebook",
		Args:  exactArgs(1),
		RunE:  newEditRun(ctx),
	}
	edit.Flags().StringVarP(&nameFlag, "name", "n", "", "a new name")
	edit.Flags().StringVarP(&descriptionFlag, "description", "d", "", "a new description")
	edit.Flags().StringVar(&colorFlag, "color", "", "a new color")

	remove := &cobra.Command{
		Use:     "remove <notebook>",
		Aliases: []string{"rm"},
		Short:   "Remove a notebook and its notes",
		Args:    exactArgs(1),
		RunE:    newRemoveRun(ctx),
	}
	remove.Flags().BoolVarP(&yesFlag, "yes", "y", false, "remove without confirmation")

	cmd.AddCommand(add, edit, remove)

	return cmd
}

func newAddRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		h := output.Handler{}

		return infra.WithApp(ctx, h, func(a *app.App) error {
			a.CreateNotebook(args[0], descriptionFlag, colorFlag)
			a.Flush(h)

			return nil
		})
	}
}

func newEditRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		h := output.Handler{}
		f := cmd.Flags()

		return infra.WithApp(ctx, h, func(a *app.App) error {
			infra.Refresh(a, nil)

			nb, err := a.FindNotebook(args[0])
			if err != nil {
				return err
			}

			name, description, color := nb.Name, nb.Description, nb.Color
			if f.Changed("name") {
				name = nameFlag
			}
			if f.Changed("description") {
				description = descriptionFlag
			}
			if f.Changed("color") {
				color = colorFlag
			}
			if name == "" {
				return errors.New("Notebook name is empty")
			}

			if err := a.UpdateNotebook(nb.UID, name, description, color); err != nil {
				return err
			}
			a.Flush(h)

			return nil
		})
	}
}

func newRemoveRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		h := output.Handler{}

		return infra.WithApp(ctx, h, func(a *app.App) error {
			infra.Refresh(a, nil)

			nb, err := a.FindNotebook(args[0])
			if err != nil {
				return err
			}

			if !yesFlag {
				q := fmt.Sprintf("remove notebook %s and its %d notes?", nb.Name, len(a.State().NotesIn(nb.UID)))
				ok, err := ui.Confirm(q, false)
				if err != nil {
					return errors.Wrap(err, "getting confirmation")
				}
				if !ok {
					log.Warnf("aborted by user\n")
					return nil
				}
			}

			if err := a.DeleteNotebook(nb.UID); err != nil {
				return err
			}
			a.Flush(h)

			return nil
		})
	}
}
