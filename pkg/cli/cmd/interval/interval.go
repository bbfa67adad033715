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

package interval

import (
	"strings"

	"github.com/dnote/etenotes/pkg/cli/config"
	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/infra"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  * Show the interval
  etenotes interval

  * Poll every 5 minutes
  etenotes interval 5

  * Disable the periodic poll
  etenotes interval 0`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new interval command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interval [minutes]",
		Short:   "Show or set the interval of the background poll",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

// Set validates and writes the interval to the settings file
func Set(ctx context.NotesCtx, minutes string) error {
	minutes = strings.TrimSpace(minutes)
	if _, err := config.ParseInterval(minutes); err != nil {
		return err
	}

	ctx.Settings.Set(consts.SettingPollInterval, minutes)
	if err := ctx.Settings.Save(); err != nil {
		return errors.Wrap(err, "saving settings")
	}

	return nil
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if ctx.Config.PollInterval == 0 {
				log.Info("periodic polling is disabled\n")
			} else {
				log.Infof("polling every %s\n", ctx.Config.PollInterval)
			}

			return nil
		}

		if err := Set(ctx, args[0]); err != nil {
			return errors.Wrap(err, "setting the interval")
		}

		log.Successf("interval set to %s minutes\n", strings.TrimSpace(args[0]))

		return nil
	}
}
