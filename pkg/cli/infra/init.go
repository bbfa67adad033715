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

// Package infra provides operations and definitions for the
// local infrastructure of the program
package infra

import (
	"os"

	"github.com/dnote/etenotes/pkg/cli/app"
	"github.com/dnote/etenotes/pkg/cli/cache"
	"github.com/dnote/etenotes/pkg/cli/client"
	"github.com/dnote/etenotes/pkg/cli/config"
	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/dnote/etenotes/pkg/cli/tokens"
	"github.com/dnote/etenotes/pkg/cli/utils"
	"github.com/dnote/etenotes/pkg/clock"
	"github.com/dnote/etenotes/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RunEFunc is a function type of etenotes commands
type RunEFunc func(*cobra.Command, []string) error

// newPaths returns the paths of the user
func newPaths() context.Paths {
	return context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
		State:  dirs.StateHome,
	}
}

// Init initializes the environment and returns a new context
func Init(versionTag string) (*context.NotesCtx, error) {
	paths := newPaths()

	if err := initFiles(paths); err != nil {
		return nil, errors.Wrap(err, "initializing files")
	}

	log.SetFile(context.LogPath(paths))

	ctx, err := setupCtx(paths, versionTag)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx builds the context from the settings file
func setupCtx(paths context.Paths, versionTag string) (context.NotesCtx, error) {
	settings, err := config.LoadSettings(context.SettingsPath(paths))
	if err != nil {
		return context.NotesCtx{}, errors.Wrap(err, "loading settings")
	}

	cf, err := config.New(settings, config.Dirs{Data: paths.Data, Home: paths.Home})
	if err != nil {
		return context.NotesCtx{}, errors.Wrap(err, "reading config")
	}
	if cf.Editor == "" {
		cf.Editor = getEditorCommand()
	}

	ret := context.NotesCtx{
		Paths:      paths,
		Version:    versionTag,
		Settings:   settings,
		Config:     cf,
		Clock:      clock.New(),
		HTTPClient: client.NewRateLimitedHTTPClient(),
	}

	return ret, nil
}

// getEditorCommand returns the system's editor command with appropriate flags,
// if necessary, to make the command wait until editor is close to exit.
func getEditorCommand() string {
	editor := os.Getenv("EDITOR")

	var ret string

	switch editor {
	case "atom":
		ret = "atom -w"
	case "subl":
		ret = "subl -n -w"
	case "code":
		ret = "code -n -w"
	case "mate":
		ret = "mate -w"
	case "vim":
		ret = "vim"
	case "nano":
		ret = "nano"
	case "emacs":
		ret = "emacs"
	case "nvim":
		ret = "nvim"
	default:
		ret = "vi"
	}

	return ret
}

// initSettingsFile populates a new settings file if it does not exist yet
func initSettingsFile(paths context.Paths) error {
	path := context.SettingsPath(paths)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if the settings file exists")
	}
	if ok {
		return nil
	}

	s, err := config.LoadSettings(path)
	if err != nil {
		return errors.Wrap(err, "loading settings")
	}

	s.Set(consts.SettingEditor, getEditorCommand())
	s.Set(consts.SettingPollInterval, config.Defaults[consts.SettingPollInterval])
	s.Set(consts.SettingExportExtension, config.Defaults[consts.SettingExportExtension])

	if err := s.Save(); err != nil {
		return errors.Wrap(err, "writing settings")
	}

	return nil
}

// initFiles creates, if necessary, the directories and files of the program
func initFiles(paths context.Paths) error {
	if err := context.InitDirs(paths); err != nil {
		return errors.Wrap(err, "creating the directories")
	}
	if err := initSettingsFile(paths); err != nil {
		return errors.Wrap(err, "generating the settings file")
	}

	return nil
}

// NewRemote returns a remote client, logged in with the persisted session if
// there is one
func NewRemote(ctx context.NotesCtx) *remote.Client {
	r := remote.New(ctx, tokens.NewStore())

	sess := ctx.Config.Session
	if sess == nil {
		return r
	}

	if err := r.RestoreSession(sess.Key, sess.Data, sess.ServerURL); err != nil {
		log.Warnf("could not restore the session, please login again: %s\n", err)
	}

	return r
}

// ErrNotLoggedIn is returned by commands that need a session when there is none
var ErrNotLoggedIn = errors.New("not logged in. Please run 'etenotes login' first")

// NewApp returns a started application instance
func NewApp(ctx context.NotesCtx, opts app.Options) (*app.App, error) {
	r := NewRemote(ctx)
	c := cache.New(ctx.Config.CachePath, r, r.Tokens(), ctx.Clock)

	a := app.New(ctx, r, c, opts)
	if err := a.Start(); err != nil {
		return nil, errors.Wrap(err, "starting")
	}

	return a, nil
}

// WithApp runs f with a started application instance that holds a session,
// then shuts the instance down
func WithApp(ctx context.NotesCtx, h app.Handler, f func(a *app.App) error) error {
	a, err := NewApp(ctx, app.Options{})
	if err != nil {
		return err
	}
	if !a.Remote().Authenticated() {
		return ErrNotLoggedIn
	}

	runErr := f(a)

	if err := a.Shutdown(h); err != nil {
		if runErr != nil {
			log.Errorf("shutting down: %s\n", err)
			return runErr
		}

		return errors.Wrap(err, "shutting down")
	}

	return runErr
}

// Refresh applies the remote changes, keeping the cached state if the
// server cannot be reached
func Refresh(a *app.App, h app.Handler) {
	if _, err := a.SyncOnce(false, h); err != nil {
		log.Warnf("could not reach the server, showing cached notes: %s\n", errors.Cause(err))
	}
}
