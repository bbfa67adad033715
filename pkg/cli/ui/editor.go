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

// Package ui provides the user interface for the program
package ui

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/utils"
	"github.com/pkg/errors"
)

// GetTmpContentPath returns the path to the temporary file containing
// content being added or edited
func GetTmpContentPath(ctx context.NotesCtx) (string, error) {
	for i := 0; ; i++ {
		filename := fmt.Sprintf("%s_%d.%s", consts.TmpContentFileBase, i, consts.TmpContentFileExt)
		candidate := filepath.Join(context.TmpDir(ctx.Paths), filename)

		ok, err := utils.FileExists(candidate)
		if err != nil {
			return "", errors.Wrapf(err, "checking if file exists at %s", candidate)
		}
		if !ok {
			return candidate, nil
		}
	}
}

func newEditorCmd(ctx context.NotesCtx, fpath string) (*exec.Cmd, error) {
	args := strings.Fields(ctx.Config.Editor)
	if len(args) == 0 {
		return nil, errors.New("no editor is configured")
	}
	args = append(args, fpath)

	return exec.Command(args[0], args[1:]...), nil
}

// GetEditorInput writes the initial content to a temporary file, lets the
// user edit it in a text editor and returns the result once the editor exits
func GetEditorInput(ctx context.NotesCtx, initial []byte) ([]byte, error) {
	fpath, err := GetTmpContentPath(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting the temporary content path")
	}

	if err := os.WriteFile(fpath, initial, 0600); err != nil {
		return nil, errors.Wrap(err, "creating a temporary content file")
	}
	defer os.Remove(fpath)

	cmd, err := newEditorCmd(ctx, fpath)
	if err != nil {
		return nil, errors.Wrap(err, "creating an editor command")
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "launching an editor")
	}
	if err := cmd.Wait(); err != nil {
		return nil, errors.Wrap(err, "waiting for the editor")
	}

	b, err := os.ReadFile(fpath)
	if err != nil {
		return nil, errors.Wrap(err, "reading the temporary content file")
	}

	return b, nil
}
