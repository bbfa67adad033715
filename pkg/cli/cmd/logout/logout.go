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

package logout

import (
	"github.com/dnote/etenotes/pkg/cli/app"
	"github.com/dnote/etenotes/pkg/cli/cache"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/infra"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/output"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  etenotes logout`

// NewCmd returns a new logout command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logout",
		Short:   "Logout from the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

// Do saves the unsaved changes, ends the session and removes the cache
func Do(ctx context.NotesCtx) error {
	a, err := infra.NewApp(ctx, app.Options{})
	if err != nil {
		return err
	}
	if !a.Remote().Authenticated() {
		return remote.ErrNotLoggedIn
	}

	if n := a.SaveAll(); n > 0 {
		log.Infof("saving %d notes with unsaved changes\n", n)
	}
	a.Flush(output.Handler{})
	if n := len(a.State().DirtyNotes()); n > 0 {
		return errors.Errorf("could not save %d notes, staying logged in", n)
	}

	if err := a.Remote().Logout(); err != nil {
		return errors.Wrap(err, "ending the session")
	}

	c := cache.New(ctx.Config.CachePath, a.Remote(), a.Remote().Tokens(), ctx.Clock)
	if err := c.Clear(); err != nil {
		return errors.Wrap(err, "removing the cache")
	}

	return nil
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		err := Do(ctx)
		if errors.Cause(err) == remote.ErrNotLoggedIn {
			log.Error("not logged in\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging out")
		}

		log.Success("logged out\n")

		return nil
	}
}
