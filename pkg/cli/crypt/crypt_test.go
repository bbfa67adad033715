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

package crypt

import (
	"bytes"
	"testing"

	"github.com/dnote/etenotes/pkg/assert"
	"github.com/pkg/errors"
)

func TestSealOpen(t *testing.T) {
	key, err := RandomKey()
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating key"))
	}

	testCases := []struct {
		name      string
		plaintext []byte
	}{
		{
			name:      "text",
			plaintext: []byte("# groceries\n\n- [ ] milk\n"),
		},
		{
			name:      "empty",
			plaintext: []byte{},
		},
		{
			name:      "binary",
			plaintext: []byte{0, 1, 2, 255, 254},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sealed, err := Seal(key, tc.plaintext)
			if err != nil {
				t.Fatal(errors.Wrap(err, "sealing"))
			}
			if len(tc.plaintext) > 0 && bytes.Contains(sealed, tc.plaintext) {
				t.Error("sealed payload contains the plaintext")
			}

			got, err := Open(key, sealed)
			if err != nil {
				t.Fatal(errors.Wrap(err, "opening"))
			}

			assert.Equal(t, bytes.Equal(got, tc.plaintext), true, "plaintext mismatch")
		})
	}
}

func TestOpen_wrongKey(t *testing.T) {
	k1, _ := RandomKey()
	k2, _ := RandomKey()

	sealed, err := Seal(k1, []byte("secret"))
	if err != nil {
		t.Fatal(errors.Wrap(err, "sealing"))
	}

	_, err = Open(k2, sealed)
	assert.NotEqual(t, err, nil, "opening with a different key should fail")
}

func TestOpen_malformed(t *testing.T) {
	key, _ := RandomKey()

	_, err := Open(key, []byte("short"))
	assert.Equal(t, errors.Cause(err), ErrMalformed, "error mismatch")
}

func TestSeal_invalidKey(t *testing.T) {
	_, err := Seal([]byte("too short"), []byte("x"))
	assert.Equal(t, errors.Cause(err), ErrInvalidKey, "error mismatch")
}

func TestDeriveKeys(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, SaltSize)

	k1, err := DeriveKeys("alice", "hunter2", salt)
	if err != nil {
		t.Fatal(errors.Wrap(err, "deriving"))
	}
	k2, err := DeriveKeys("alice", "hunter2", salt)
	if err != nil {
		t.Fatal(errors.Wrap(err, "deriving again"))
	}
	k3, err := DeriveKeys("alice", "hunter3", salt)
	if err != nil {
		t.Fatal(errors.Wrap(err, "deriving with another password"))
	}

	assert.Equal(t, len(k1.EncryptionKey), KeySize, "key size mismatch")
	assert.Equal(t, bytes.Equal(k1.EncryptionKey, k2.EncryptionKey), true, "derivation should be deterministic")
	assert.Equal(t, bytes.Equal(k1.AuthKey, k1.EncryptionKey), false, "auth and encryption keys should differ")
	assert.Equal(t, bytes.Equal(k1.AuthKey, k3.AuthKey), false, "different passwords should give different keys")

	assert.Equal(t, VerifyAuthKey(k2.AuthKey, HashAuthKey(k1.AuthKey)), true, "verification should pass")
	assert.Equal(t, VerifyAuthKey(k3.AuthKey, HashAuthKey(k1.AuthKey)), false, "verification should fail")
}

func TestDeriveKeys_invalid(t *testing.T) {
	_, err := DeriveKeys("alice", "", make([]byte, SaltSize))
	assert.NotEqual(t, err, nil, "empty password should fail")

	_, err = DeriveKeys("alice", "pw", make([]byte, 3))
	assert.NotEqual(t, err, nil, "short salt should fail")
}
