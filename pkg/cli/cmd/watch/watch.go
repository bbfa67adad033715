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

package watch

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dnote/etenotes/pkg/cli/app"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/infra"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  etenotes watch

  * Change the interval while watching, from another terminal
  etenotes interval 5`

// NewCmd returns a new watch command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Keep polling the server for changes until interrupted",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		a, err := infra.NewApp(ctx, app.Options{Background: true})
		if err != nil {
			return err
		}

		h := output.Handler{}
		if !a.Remote().Authenticated() {
			a.Shutdown(h)
			return infra.ErrNotLoggedIn
		}

		if d := a.PollInterval(); d > 0 {
			log.Infof("polling every %s. Press Ctrl+C to stop.\n", d)
		} else {
			log.Infof("periodic polling is disabled, set an interval with 'etenotes interval'. Press Ctrl+C to stop.\n")
		}

		done := make(chan struct{})
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		go func() {
			<-sig
			close(done)
		}()

		a.Run(done, h)

		if err := a.Shutdown(h); err != nil {
			return errors.Wrap(err, "shutting down")
		}

		return nil
	}
}
