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

package login

import (
	"github.com/dnote/etenotes/pkg/cli/cache"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/infra"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  etenotes login

  * Login to a self-hosted server
  etenotes login --server https://notes.example.com`

var usernameFlag, passwordFlag, serverFlag string

// NewCmd returns a new login command
func NewCmd(ctx context.NotesCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Login to the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&usernameFlag, "username", "u", "", "username")
	f.StringVarP(&passwordFlag, "password", "p", "", "password")
	f.StringVarP(&serverFlag, "server", "s", "", "URL of the server (defaults to the public server)")

	return cmd
}

func getCredentials() (string, string, error) {
	username := usernameFlag
	if username == "" {
		if err := ui.PromptInput("username", &username); err != nil {
			return "", "", errors.Wrap(err, "getting username input")
		}
	}
	if username == "" {
		return "", "", errors.New("Username is empty")
	}

	password := passwordFlag
	if password == "" {
		if err := ui.PromptPassword("password", &password); err != nil {
			return "", "", errors.Wrap(err, "getting password input")
		}
	}
	if password == "" {
		return "", "", errors.New("Password is empty")
	}

	return username, password, nil
}

// Do logs in and persists the session. The cache of a previous session is removed.
func Do(ctx context.NotesCtx, username, password, serverURL string) error {
	r := infra.NewRemote(ctx)

	if ok := r.Authenticate(username, password, serverURL, true); !ok {
		return errors.New("wrong credentials or incompatible server")
	}

	c := cache.New(ctx.Config.CachePath, r, r.Tokens(), ctx.Clock)
	if err := c.Clear(); err != nil {
		return errors.Wrap(err, "removing the previous cache")
	}

	return nil
}

func newRun(ctx context.NotesCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if r := infra.NewRemote(ctx); r.Authenticated() {
			log.Infof("already logged in as %s. Run 'etenotes logout' first to switch accounts.\n", r.Username())
			return nil
		}

		username, password, err := getCredentials()
		if err != nil {
			return err
		}

		if err := Do(ctx, username, password, serverFlag); err != nil {
			return errors.Wrap(err, "logging in")
		}

		log.Successf("logged in as %s\n", username)

		return nil
	}
}
