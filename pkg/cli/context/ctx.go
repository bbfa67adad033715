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

// Package context defines the runtime context of the program
package context

import (
	"net/http"

	"github.com/dnote/etenotes/pkg/cli/config"
	"github.com/dnote/etenotes/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
	State  string
}

// NotesCtx is a context holding the information of the current runtime
type NotesCtx struct {
	Paths      Paths
	Version    string
	Settings   *config.Settings
	Config     config.Config
	Clock      clock.Clock
	HTTPClient *http.Client
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx NotesCtx) NotesCtx {
	if ctx.Config.Session != nil {
		sess := *ctx.Config.Session
		sess.Key = []byte("1")
		sess.Data = []byte("1")
		ctx.Config.Session = &sess
	}

	return ctx
}
