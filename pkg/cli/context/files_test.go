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

package context

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dnote/etenotes/pkg/assert"
	"github.com/dnote/etenotes/pkg/cli/consts"
)

func assertDirsExist(t *testing.T, paths Paths) {
	for name, base := range appDirs(paths) {
		info, err := os.Stat(filepath.Join(base, consts.AppName))
		assert.Equalf(t, err, nil, name+" dir should exist")
		assert.Equal(t, info.IsDir(), true, name+" should be a directory")
	}
}

func TestInitDirs(t *testing.T) {
	tmpDir := t.TempDir()

	paths := Paths{
		Config: filepath.Join(tmpDir, "config"),
		Data:   filepath.Join(tmpDir, "data"),
		Cache:  filepath.Join(tmpDir, "cache"),
		State:  filepath.Join(tmpDir, "state"),
	}

	err := InitDirs(paths)
	assert.Equal(t, err, nil, "InitDirs should succeed")
	assertDirsExist(t, paths)

	// Call again - should be idempotent
	err = InitDirs(paths)
	assert.Equal(t, err, nil, "InitDirs should succeed when dirs already exist")
	assertDirsExist(t, paths)
}

func TestInitDirs_skipsEmpty(t *testing.T) {
	tmpDir := t.TempDir()

	paths := Paths{
		Config: filepath.Join(tmpDir, "config"),
	}

	err := InitDirs(paths)
	assert.Equal(t, err, nil, "InitDirs should succeed")

	_, err = os.Stat(filepath.Join(tmpDir, "config", consts.AppName))
	assert.Equal(t, err, nil, "config dir should exist")
}

func TestPaths(t *testing.T) {
	paths := Paths{
		Config: "/conf",
		Cache:  "/cache",
		State:  "/state",
	}

	assert.Equal(t, SettingsPath(paths), "/conf/etenotes/settings.yml", "settings path mismatch")
	assert.Equal(t, LogPath(paths), "/state/etenotes/etenotes.log", "log path mismatch")
	assert.Equal(t, TmpDir(paths), "/cache/etenotes", "tmp dir mismatch")
}
