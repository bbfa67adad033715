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

package remote

import (
	"testing"

	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/testutils"
	"github.com/dnote/etenotes/pkg/cli/tokens"
)

// Test credentials registered by InitTestClient
const (
	TestUsername = "alice"
	TestPassword = "pass1234"
)

// InitTestClient registers a user on the server and returns a client
// authenticated as that user, without a persisted session
func InitTestClient(t *testing.T, ctx context.NotesCtx, server *testutils.Server) *Client {
	server.AddUser(t, TestUsername, TestPassword)

	c := New(ctx, tokens.NewStore())
	if ok := c.Authenticate(TestUsername, TestPassword, server.URL, false); !ok {
		t.Fatal("authenticating the test client")
	}

	return c
}
