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
	"bytes"
	"testing"

	"github.com/dnote/etenotes/pkg/assert"
	"github.com/dnote/etenotes/pkg/cli/client"
	"github.com/dnote/etenotes/pkg/cli/crypt"
	"github.com/dnote/etenotes/pkg/cli/testutils"
	"github.com/pkg/errors"
)

const testColType = "etebase.md.note"

func setupAccount(t *testing.T) (*testutils.Server, *Account) {
	server := testutils.NewServer(t)
	server.AddUser(t, "alice", "pass1234")

	c := NewClient(server.URL, "test", client.NewRateLimitedHTTPClient())
	account, err := Login(c, "alice", "pass1234")
	if err != nil {
		t.Fatal(errors.Wrap(err, "logging in"))
	}

	return server, account
}

func TestLogin_wrongPassword(t *testing.T) {
	server := testutils.NewServer(t)
	server.AddUser(t, "alice", "pass1234")

	c := NewClient(server.URL, "test", nil)
	_, err := Login(c, "alice", "nope")
	assert.Equal(t, errors.Cause(err), client.ErrInvalidLogin, "error mismatch")

	_, err = Login(c, "bob", "pass1234")
	assert.Equal(t, errors.Cause(err), client.ErrInvalidLogin, "unknown user error mismatch")
}

func TestNewClient_defaultServer(t *testing.T) {
	c := NewClient("", "test", nil)
	assert.Equal(t, c.ServerURL(), DefaultServerURL, "server url mismatch")
}

func TestAccountSaveRestore(t *testing.T) {
	server, account := setupAccount(t)

	key, err := crypt.RandomKey()
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating key"))
	}

	blob, err := account.Save(key)
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving"))
	}

	c := NewClient(server.URL, "test", nil)
	restored, err := Restore(c, blob, key)
	if err != nil {
		t.Fatal(errors.Wrap(err, "restoring"))
	}
	assert.Equal(t, restored.Username(), "alice", "username mismatch")

	// the restored session is usable without logging in again
	_, err = restored.CollectionManager().List(testColType, nil)
	assert.Equal(t, err, nil, "listing with the restored session")

	otherKey, _ := crypt.RandomKey()
	_, err = Restore(c, blob, otherKey)
	assert.NotEqual(t, err, nil, "restoring with a wrong key should fail")
}

func TestCollectionLifecycle(t *testing.T) {
	_, account := setupAccount(t)
	colMgr := account.CollectionManager()

	col, err := colMgr.Create(testColType, ItemMetadata{Name: "Work", Color: "#ff0000"}, nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating"))
	}
	if err := colMgr.Upload(col); err != nil {
		t.Fatal(errors.Wrap(err, "uploading"))
	}
	assert.NotEqual(t, col.Etag(), "", "etag should be set after upload")

	full, err := colMgr.List(testColType, nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}
	assert.Equal(t, len(full.Data), 1, "collection count mismatch")
	assert.Equal(t, full.Data[0].UID(), col.UID(), "uid mismatch")
	assert.Equal(t, full.Data[0].Meta().Name, "Work", "name mismatch")
	assert.Equal(t, full.Data[0].Meta().Color, "#ff0000", "color mismatch")

	// nothing changed since the last listing
	stoken := full.Stoken
	inc, err := colMgr.List(testColType, &FetchOptions{Stoken: &stoken})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing incrementally"))
	}
	assert.Equal(t, len(inc.Data), 0, "incremental listing should be empty")

	col.Delete()
	if err := colMgr.Upload(col); err != nil {
		t.Fatal(errors.Wrap(err, "uploading deletion"))
	}

	inc, err = colMgr.List(testColType, &FetchOptions{Stoken: &stoken})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing after deletion"))
	}
	assert.Equal(t, len(inc.Data), 1, "deleted collection should be listed incrementally")
	assert.Equal(t, inc.Data[0].IsDeleted(), true, "deleted flag mismatch")

	full, err = colMgr.List(testColType, nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing fully after deletion"))
	}
	assert.Equal(t, len(full.Data), 0, "full listing should skip deleted collections")
}

func TestItems(t *testing.T) {
	server, account := setupAccount(t)
	colMgr := account.CollectionManager()

	col, _ := colMgr.Create(testColType, ItemMetadata{Name: "Work"}, nil)
	if err := colMgr.Upload(col); err != nil {
		t.Fatal(errors.Wrap(err, "uploading collection"))
	}

	itemMgr := colMgr.ItemManager(col)
	item, err := itemMgr.Create(ItemMetadata{Type: "file", Name: "todo"}, []byte("- [ ] ship"))
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating item"))
	}
	if err := itemMgr.Batch([]*Item{item}); err != nil {
		t.Fatal(errors.Wrap(err, "uploading item"))
	}

	raw, ok := server.Item(col.UID(), item.UID())
	assert.Equal(t, ok, true, "item should be stored")
	assert.Equal(t, bytes.Contains([]byte(raw.Content), []byte("ship")), false, "server should not see plaintext")

	resp, err := itemMgr.List(nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing items"))
	}
	assert.Equal(t, len(resp.Data), 1, "item count mismatch")
	assert.Equal(t, string(resp.Data[0].Content()), "- [ ] ship", "content mismatch")
	assert.Equal(t, resp.Data[0].Meta().Name, "todo", "name mismatch")
}

func TestCacheSaveLoad(t *testing.T) {
	_, account := setupAccount(t)
	colMgr := account.CollectionManager()

	col, _ := colMgr.Create(testColType, ItemMetadata{Name: "Personal", Description: "home"}, nil)
	item, _ := colMgr.ItemManager(col).Create(ItemMetadata{Name: "n1"}, []byte("hello"))

	colBlob, err := colMgr.CacheSave(col)
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving collection"))
	}
	itemBlob, err := colMgr.ItemManager(col).CacheSave(item)
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving item"))
	}

	loadedCol, err := colMgr.CacheLoad(colBlob)
	if err != nil {
		t.Fatal(errors.Wrap(err, "loading collection"))
	}
	loadedItem, err := colMgr.ItemManager(loadedCol).CacheLoad(itemBlob)
	if err != nil {
		t.Fatal(errors.Wrap(err, "loading item"))
	}

	assert.Equal(t, loadedCol.UID(), col.UID(), "collection uid mismatch")
	assert.Equal(t, loadedCol.Meta().Description, "home", "description mismatch")
	assert.Equal(t, loadedItem.UID(), item.UID(), "item uid mismatch")
	assert.Equal(t, string(loadedItem.Content()), "hello", "content mismatch")

	_, err = colMgr.CacheLoad([]byte("{not json"))
	assert.NotEqual(t, err, nil, "loading garbage should fail")

	_, err = colMgr.CacheLoad([]byte(`{"version": 99}`))
	assert.Equal(t, errors.Cause(err), ErrCacheVersion, "version error mismatch")
}

func TestCacheSaveLoad_pending(t *testing.T) {
	_, account := setupAccount(t)
	colMgr := account.CollectionManager()

	col, _ := colMgr.Create(testColType, ItemMetadata{Name: "Personal"}, nil)
	itemMgr := colMgr.ItemManager(col)
	item, _ := itemMgr.Create(ItemMetadata{Name: "n1"}, []byte("hello"))

	pending := item.Pending("n1 renamed", []byte("unsaved"))
	assert.Equal(t, item.IsPending(), false, "original should not be pending")
	assert.Equal(t, string(item.Content()), "hello", "original content should be untouched")

	blob, err := itemMgr.CacheSave(pending)
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving item"))
	}
	loaded, err := itemMgr.CacheLoad(blob)
	if err != nil {
		t.Fatal(errors.Wrap(err, "loading item"))
	}

	assert.Equal(t, loaded.IsPending(), true, "pending flag mismatch")
	assert.Equal(t, loaded.Meta().Name, "n1 renamed", "name mismatch")
	assert.Equal(t, string(loaded.Content()), "unsaved", "content mismatch")
}

func TestCacheLoad_otherAccount(t *testing.T) {
	server, account := setupAccount(t)
	server.AddUser(t, "bob", "secret99")

	col, _ := account.CollectionManager().Create(testColType, ItemMetadata{Name: "Work"}, nil)
	blob, err := account.CollectionManager().CacheSave(col)
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving"))
	}

	bob, err := Login(NewClient(server.URL, "test", nil), "bob", "secret99")
	if err != nil {
		t.Fatal(errors.Wrap(err, "logging in as bob"))
	}

	_, err = bob.CollectionManager().CacheLoad(blob)
	assert.NotEqual(t, err, nil, "another account should not be able to load the blob")
}

func TestLogout(t *testing.T) {
	server, account := setupAccount(t)
	assert.Equal(t, server.Sessions(), 1, "session count before logout")

	if err := account.Logout(); err != nil {
		t.Fatal(errors.Wrap(err, "logging out"))
	}

	assert.Equal(t, server.Sessions(), 0, "session count after logout")
}
