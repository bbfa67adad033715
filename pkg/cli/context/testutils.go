/* Copyright (C) 2019, 2020, 2021, 2022, 2023, 2024, 2025 Dnote contributors
 *
 * This file is part of Dnote.
 *
 * Dnote is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * Dnote is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with Dnote.  If not, see <https://www.gnu.org/licenses/>.
 */

package context

import (
	"path/filepath"
	"testing"

	"github.com/dnote/etenotes/pkg/cli/config"
	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/clock"
	"github.com/pkg/errors"
)

// getDefaultTestPaths creates default test paths with all paths pointing to a temp directory
func getDefaultTestPaths(t *testing.T) Paths {
	tmpDir := t.TempDir()
	return Paths{
		Home:   tmpDir,
		Cache:  tmpDir,
		Config: tmpDir,
		Data:   tmpDir,
		State:  tmpDir,
	}
}

// InitTestCtx initializes a test context with empty settings and
// a temporary directory for all paths
func InitTestCtx(t *testing.T) NotesCtx {
	paths := getDefaultTestPaths(t)

	if err := InitDirs(paths); err != nil {
		t.Fatal(errors.Wrap(err, "creating test directories"))
	}

	settings, err := config.LoadSettings(SettingsPath(paths))
	if err != nil {
		t.Fatal(errors.Wrap(err, "loading settings"))
	}

	cf, err := config.New(settings, config.Dirs{Data: paths.Data, Home: paths.Home})
	if err != nil {
		t.Fatal(errors.Wrap(err, "building config"))
	}
	cf.ExportPath = filepath.Join(paths.Home, "export")
	cf.CachePath = filepath.Join(paths.Data, consts.AppName, consts.CacheFilename)

	return NotesCtx{
		Paths:    paths,
		Version:  "test",
		Settings: settings,
		Config:   cf,
		Clock:    clock.NewMock(), // Use a mock clock to test times
	}
}
