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

package app

import (
	"time"

	"github.com/dnote/etenotes/pkg/cli/config"
	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
)

// watchSettings reloads the settings when the settings file changes and
// hands the poll interval to the owner loop
func (a *App) watchSettings() error {
	path := a.ctx.Settings.Path()

	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write, watcher.Create)

	if err := w.Add(path); err != nil {
		return errors.Wrapf(err, "adding %s", path)
	}

	go func() {
		for {
			select {
			case ev := <-w.Event:
				log.Debug("settings changed: %s\n", ev)
				a.reloadSettings()
			case err := <-w.Error:
				log.Debug("watching settings: %s\n", err)
			case <-w.Closed:
				return
			}
		}
	}()

	go func() {
		if err := w.Start(a.opts.WatchInterval); err != nil {
			log.Debug("starting the settings watcher: %s\n", err)
		}
	}()
	w.Wait()

	a.watcher = w

	return nil
}

func (a *App) reloadSettings() {
	if err := a.ctx.Settings.Reload(); err != nil {
		log.Debug("reloading settings: %s\n", err)
		return
	}

	d, err := pollInterval(a.ctx.Settings)
	if err != nil {
		log.Debug("%s\n", err)
		return
	}

	// only the latest interval matters
	select {
	case <-a.reloads:
	default:
	}
	a.reloads <- d
}

func pollInterval(s *config.Settings) (time.Duration, error) {
	v, ok := s.Get(consts.SettingPollInterval)
	if !ok {
		v = config.Defaults[consts.SettingPollInterval]
	}

	return config.ParseInterval(v)
}

func (a *App) stopWatcher() {
	if a.watcher == nil {
		return
	}

	a.watcher.Close()
	a.watcher = nil
}
