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

package etebase

import (
	"encoding/base64"
	"encoding/json"

	"github.com/dnote/etenotes/pkg/cli/client"
	"github.com/dnote/etenotes/pkg/cli/crypt"
	"github.com/pkg/errors"
)

// Account is an authenticated session with a sync server
type Account struct {
	client   *Client
	username string
	token    string
	key      []byte
}

// savedAccount is the plaintext of a saved session
type savedAccount struct {
	ServerURL string `json:"server_url"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	Key       []byte `json:"key"`
}

// Login authenticates the user with the server and returns the account
func Login(c *Client, username, password string) (*Account, error) {
	challenge, err := client.GetLoginChallenge(c.conn, username)
	if err != nil {
		return nil, errors.Wrap(err, "getting the login challenge")
	}

	salt, err := base64.StdEncoding.DecodeString(challenge.Salt)
	if err != nil {
		return nil, errors.Wrap(err, "decoding the salt")
	}

	keys, err := crypt.DeriveKeys(username, password, salt)
	if err != nil {
		return nil, errors.Wrap(err, "deriving keys")
	}

	resp, err := client.Login(c.conn, username, base64.StdEncoding.EncodeToString(keys.AuthKey))
	if err != nil {
		return nil, errors.Wrap(err, "logging in")
	}

	return &Account{
		client:   c,
		username: resp.Username,
		token:    resp.Token,
		key:      keys.EncryptionKey,
	}, nil
}

// Restore reconstructs an account from a blob produced by Save. No request
// is made to the server.
func Restore(c *Client, blob, key []byte) (*Account, error) {
	b, err := crypt.Open(key, blob)
	if err != nil {
		return nil, errors.Wrap(err, "decrypting the session")
	}

	var saved savedAccount
	if err := json.Unmarshal(b, &saved); err != nil {
		return nil, errors.Wrap(err, "unmarshalling the session")
	}
	if saved.Token == "" || len(saved.Key) != crypt.KeySize {
		return nil, errors.New("incomplete session")
	}

	return &Account{
		client:   c,
		username: saved.Username,
		token:    saved.Token,
		key:      saved.Key,
	}, nil
}

// Save exports the session encrypted with the given key
func (a *Account) Save(key []byte) ([]byte, error) {
	saved := savedAccount{
		ServerURL: a.client.ServerURL(),
		Username:  a.username,
		Token:     a.token,
		Key:       a.key,
	}

	b, err := json.Marshal(saved)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling the session")
	}

	blob, err := crypt.Seal(key, b)
	if err != nil {
		return nil, errors.Wrap(err, "encrypting the session")
	}

	return blob, nil
}

// Logout invalidates the session on the server
func (a *Account) Logout() error {
	if err := client.Logout(a.conn()); err != nil {
		return errors.Wrap(err, "logging out")
	}

	a.token = ""

	return nil
}

// Username returns the name of the user
func (a *Account) Username() string {
	return a.username
}

// ServerURL returns the URL of the server the account lives on
func (a *Account) ServerURL() string {
	return a.client.ServerURL()
}

// CollectionManager returns the manager of the collections of the account
func (a *Account) CollectionManager() *CollectionManager {
	return &CollectionManager{account: a}
}

func (a *Account) conn() client.Conn {
	return a.client.conn.WithToken(a.token)
}
