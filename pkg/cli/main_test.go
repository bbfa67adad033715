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

package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dnote/etenotes/pkg/assert"
	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/dnote/etenotes/pkg/cli/testutils"
	"github.com/dnote/etenotes/pkg/cli/utils"
	"github.com/pkg/errors"
)

var binaryName = "test-etenotes"

// setupTestEnv creates a unique test directory for parallel test execution
func setupTestEnv(t *testing.T) (string, testutils.RunCmdOptions) {
	testDir := t.TempDir()
	opts := testutils.RunCmdOptions{
		Env: []string{
			fmt.Sprintf("XDG_CONFIG_HOME=%s", filepath.Join(testDir, "config")),
			fmt.Sprintf("XDG_DATA_HOME=%s", filepath.Join(testDir, "data")),
			fmt.Sprintf("XDG_CACHE_HOME=%s", filepath.Join(testDir, "cache")),
			fmt.Sprintf("XDG_STATE_HOME=%s", filepath.Join(testDir, "state")),
			"EDITOR=true",
		},
	}
	return testDir, opts
}

// setupLoggedIn starts a server with a user and logs the binary in to it
func setupLoggedIn(t *testing.T) (string, testutils.RunCmdOptions, *testutils.Server) {
	testDir, opts := setupTestEnv(t)

	server := testutils.NewServer(t)
	server.AddUser(t, remote.TestUsername, remote.TestPassword)

	testutils.RunCmd(t, opts, binaryName, "login", "-u", remote.TestUsername, "-p", remote.TestPassword, "-s", server.URL)

	return testDir, opts, server
}

func TestMain(m *testing.M) {
	if err := exec.Command("go", "build", "-o", binaryName).Run(); err != nil {
		log.Print(errors.Wrap(err, "building a binary").Error())
		os.Exit(1)
	}

	code := m.Run()
	os.Remove(binaryName)

	os.Exit(code)
}

func mustExist(t *testing.T, path, message string) {
	t.Helper()

	ok, err := utils.FileExists(path)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "checking if %s exists", path))
	}
	if !ok {
		t.Errorf("%s: %s does not exist", message, path)
	}
}

func TestInit(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	// Execute
	// run an arbitrary command due to https://github.com/spf13/cobra/issues/1056
	testutils.RunCmd(t, opts, binaryName, "version")

	// Test
	mustExist(t, filepath.Join(testDir, "config", consts.AppName, consts.SettingsFilename), "settings file was not initialized")
	mustExist(t, filepath.Join(testDir, "data", consts.AppName), "data directory was not initialized")
	mustExist(t, filepath.Join(testDir, "cache", consts.AppName), "cache directory was not initialized")
	mustExist(t, filepath.Join(testDir, "state", consts.AppName), "state directory was not initialized")

	b, err := os.ReadFile(filepath.Join(testDir, "config", consts.AppName, consts.SettingsFilename))
	assert.NilErr(t, err, "reading the settings file")
	assert.Equal(t, strings.Contains(string(b), consts.SettingPollInterval), true, "poll interval default missing")
}

func TestVersion(t *testing.T) {
	_, opts := setupTestEnv(t)

	out := testutils.RunCmd(t, opts, binaryName, "version")

	assert.Equal(t, strings.HasPrefix(out, consts.AppName+" "), true, "version output mismatch")
}

func TestInterval(t *testing.T) {
	t.Run("set and show", func(t *testing.T) {
		_, opts := setupTestEnv(t)

		testutils.RunCmd(t, opts, binaryName, "interval", "5")
		out := testutils.RunCmd(t, opts, binaryName, "interval")

		assert.Equal(t, strings.Contains(out, "polling every 5m0s"), true, "interval output mismatch")
	})

	t.Run("disable", func(t *testing.T) {
		_, opts := setupTestEnv(t)

		testutils.RunCmd(t, opts, binaryName, "interval", "0")
		out := testutils.RunCmd(t, opts, binaryName, "interval")

		assert.Equal(t, strings.Contains(out, "disabled"), true, "interval output mismatch")
	})

	t.Run("invalid", func(t *testing.T) {
		_, opts := setupTestEnv(t)

		testutils.RunCmdErr(t, opts, binaryName, "interval", "soon")
	})
}

func TestNotLoggedIn(t *testing.T) {
	testCases := [][]string{
		{"ls"},
		{"sync"},
		{"cat", "todo"},
		{"notebook", "add", "work"},
	}

	for _, args := range testCases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, opts := setupTestEnv(t)

			out := testutils.RunCmdErr(t, opts, binaryName, args...)

			assert.Equal(t, strings.Contains(out, "not logged in"), true, "output mismatch")
		})
	}
}

func TestLogin_wrongPassword(t *testing.T) {
	_, opts := setupTestEnv(t)
	server := testutils.NewServer(t)
	server.AddUser(t, remote.TestUsername, remote.TestPassword)

	out := testutils.RunCmdErr(t, opts, binaryName, "login", "-u", remote.TestUsername, "-p", "wrong", "-s", server.URL)

	assert.Equal(t, strings.Contains(out, "wrong credentials"), true, "output mismatch")
	assert.Equal(t, server.Sessions(), 0, "session count mismatch")
}

func TestAddNote(t *testing.T) {
	testDir, opts, server := setupLoggedIn(t)

	// Execute
	testutils.RunCmd(t, opts, binaryName, "notebook", "add", "work")
	testutils.RunCmd(t, opts, binaryName, "add", "work", "todo", "-c", "buy milk")

	// Test
	content := testutils.RunCmd(t, opts, binaryName, "cat", "todo", "--content-only")
	assert.Equal(t, strings.Contains(content, "buy milk"), true, "content mismatch")

	notebooks := testutils.RunCmd(t, opts, binaryName, "ls")
	assert.Equal(t, strings.Contains(notebooks, "work (1)"), true, "notebook listing mismatch")

	notes := testutils.RunCmd(t, opts, binaryName, "ls", "work")
	assert.Equal(t, strings.Contains(notes, "todo"), true, "note listing mismatch")
	assert.Equal(t, strings.Contains(notes, "todo *"), false, "note should have no unsaved changes")

	mustExist(t, filepath.Join(testDir, "data", consts.AppName, consts.CacheFilename), "cache was not written")
	assert.NotEqual(t, server.Writes(), 0, "nothing was written to the server")
}

func TestAddNote_stdin(t *testing.T) {
	_, opts, _ := setupLoggedIn(t)
	testutils.RunCmd(t, opts, binaryName, "notebook", "add", "work")

	testutils.MustWaitCmd(t, opts, testutils.UserContent, binaryName, "add", "work", "lorem")

	content := testutils.RunCmd(t, opts, binaryName, "cat", "lorem", "--content-only")
	assert.Equal(t, strings.Contains(content, "Lorem ipsum dolor sit amet"), true, "content mismatch")
}

func TestEditNote(t *testing.T) {
	_, opts, _ := setupLoggedIn(t)
	testutils.RunCmd(t, opts, binaryName, "notebook", "add", "work")
	testutils.RunCmd(t, opts, binaryName, "add", "work", "todo", "-c", "buy milk")

	testutils.RunCmd(t, opts, binaryName, "edit", "todo", "-c", "buy bread", "-n", "groceries")

	content := testutils.RunCmd(t, opts, binaryName, "cat", "groceries", "--content-only")
	assert.Equal(t, strings.Contains(content, "buy bread"), true, "content mismatch")

	testutils.RunCmdErr(t, opts, binaryName, "cat", "todo")
}

func TestEditNotebook(t *testing.T) {
	_, opts, _ := setupLoggedIn(t)
	testutils.RunCmd(t, opts, binaryName, "notebook", "add", "work")

	testutils.RunCmd(t, opts, binaryName, "notebook", "edit", "work", "--name", "office")

	out := testutils.RunCmd(t, opts, binaryName, "ls")
	assert.Equal(t, strings.Contains(out, "office (0)"), true, "notebook listing mismatch")
	assert.Equal(t, strings.Contains(out, "work (0)"), false, "old name should be gone")
}

func TestRemoveNote(t *testing.T) {
	t.Run("confirm", func(t *testing.T) {
		_, opts, _ := setupLoggedIn(t)
		testutils.RunCmd(t, opts, binaryName, "notebook", "add", "work")
		testutils.RunCmd(t, opts, binaryName, "add", "work", "todo", "-c", "buy milk")

		testutils.MustWaitCmd(t, opts, testutils.ConfirmRemoveNote, binaryName, "remove", "todo")

		out := testutils.RunCmd(t, opts, binaryName, "ls")
		assert.Equal(t, strings.Contains(out, "work (0)"), true, "note was not removed")
	})

	t.Run("cancel", func(t *testing.T) {
		_, opts, _ := setupLoggedIn(t)
		testutils.RunCmd(t, opts, binaryName, "notebook", "add", "work")
		testutils.RunCmd(t, opts, binaryName, "add", "work", "todo", "-c", "buy milk")

		testutils.MustWaitCmd(t, opts, testutils.CancelRemoveNote, binaryName, "remove", "todo")

		out := testutils.RunCmd(t, opts, binaryName, "ls")
		assert.Equal(t, strings.Contains(out, "work (1)"), true, "note should be kept")
	})
}

func TestRemoveNotebook(t *testing.T) {
	_, opts, _ := setupLoggedIn(t)
	testutils.RunCmd(t, opts, binaryName, "notebook", "add", "work")
	testutils.RunCmd(t, opts, binaryName, "notebook", "add", "home")
	testutils.RunCmd(t, opts, binaryName, "add", "work", "todo", "-c", "buy milk")

	testutils.MustWaitCmd(t, opts, testutils.ConfirmRemoveNotebook, binaryName, "notebook", "remove", "work")

	out := testutils.RunCmd(t, opts, binaryName, "ls")
	assert.Equal(t, strings.Contains(out, "work ("), false, "notebook was not removed")
	assert.Equal(t, strings.Contains(out, "home (0)"), true, "other notebook should be kept")
}

func TestSync_otherDevice(t *testing.T) {
	testDir, opts, server := setupLoggedIn(t)
	testutils.RunCmd(t, opts, binaryName, "notebook", "add", "work")

	// a second installation logged in to the same account
	_, other := setupTestEnv(t)
	testutils.RunCmd(t, other, binaryName, "login", "-u", remote.TestUsername, "-p", remote.TestPassword, "-s", server.URL)
	testutils.RunCmd(t, other, binaryName, "add", "work", "todo", "-c", "from the other device")

	out := testutils.RunCmd(t, opts, binaryName, "sync")
	assert.Equal(t, strings.Contains(out, "1 new notes"), true, "sync summary mismatch")

	content := testutils.RunCmd(t, opts, binaryName, "cat", "todo", "--content-only")
	assert.Equal(t, strings.Contains(content, "from the other device"), true, "content mismatch")

	testutils.RunCmd(t, opts, binaryName, "sync", "--full")
	mustExist(t, filepath.Join(testDir, "data", consts.AppName, consts.CacheFilename), "cache was not written")
}

func TestExport(t *testing.T) {
	testDir, opts, _ := setupLoggedIn(t)
	testutils.RunCmd(t, opts, binaryName, "notebook", "add", "work")
	testutils.RunCmd(t, opts, binaryName, "add", "work", "todo", "-c", "# buy milk")

	dir := filepath.Join(testDir, "exported")
	testutils.RunCmd(t, opts, binaryName, "export", "todo", "--dir", dir)

	entries, err := os.ReadDir(dir)
	assert.NilErr(t, err, "reading the export directory")
	assert.Len(t, entries, 1, "exported file count mismatch")

	b, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	assert.NilErr(t, err, "reading the exported file")
	assert.Equal(t, strings.Contains(string(b), "buy milk"), true, "exported content mismatch")
}

func TestLogout(t *testing.T) {
	testDir, opts, server := setupLoggedIn(t)
	testutils.RunCmd(t, opts, binaryName, "notebook", "add", "work")

	testutils.RunCmd(t, opts, binaryName, "logout")

	ok, err := utils.FileExists(filepath.Join(testDir, "data", consts.AppName, consts.CacheFilename))
	assert.NilErr(t, err, "checking the cache file")
	assert.Equal(t, ok, false, "cache should be removed")
	assert.Equal(t, server.Sessions(), 0, "session count mismatch")

	testutils.RunCmdErr(t, opts, binaryName, "ls")
}
