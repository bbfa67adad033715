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

	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/utils"
	"github.com/pkg/errors"
)

func appDirs(paths Paths) map[string]string {
	return map[string]string{
		"config": paths.Config,
		"data":   paths.Data,
		"cache":  paths.Cache,
		"state":  paths.State,
	}
}

// InitDirs creates the directories of the program if they don't already exist.
func InitDirs(paths Paths) error {
	for name, base := range appDirs(paths) {
		if base == "" {
			continue
		}

		dir := filepath.Join(base, consts.AppName)
		if err := utils.EnsureDir(dir); err != nil {
			return errors.Wrapf(err, "initializing %s dir", name)
		}
	}

	return nil
}

// SettingsPath returns the path to the settings file
func SettingsPath(paths Paths) string {
	return filepath.Join(paths.Config, consts.AppName, consts.SettingsFilename)
}

// LogPath returns the path to the log file
func LogPath(paths Paths) string {
	return filepath.Join(paths.State, consts.AppName, consts.LogFilename)
}

// TmpDir returns the directory for temporary files of the program
func TmpDir(paths Paths) string {
	return filepath.Join(paths.Cache, consts.AppName)
}
