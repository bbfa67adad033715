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
	"net/http"
	"sync"
	"testing"

	"github.com/dnote/etenotes/pkg/assert"
	"github.com/dnote/etenotes/pkg/cli/config"
	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/testutils"
	"github.com/dnote/etenotes/pkg/cli/tokens"
	"github.com/pkg/errors"
)

func setup(t *testing.T) (*testutils.Server, *Client) {
	server := testutils.NewServer(t)
	ctx := context.InitTestCtx(t)

	return server, InitTestClient(t, ctx, server)
}

func mustCreateNotebook(t *testing.T, c *Client, name string) *Notebook {
	nb, err := c.CreateNotebook(name, "", "")
	if err != nil {
		t.Fatal(errors.Wrapf(err, "creating notebook %s", name))
	}

	return nb
}

func mustCreateNote(t *testing.T, c *Client, nb *Notebook, name, content string) *Note {
	note, err := c.CreateNote(name, nb)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "creating note %s", name))
	}

	if content != "" {
		note.Content = []byte(content)
		note.Dirty = true
		if _, err := c.WriteNote(note, false); err != nil {
			t.Fatal(errors.Wrapf(err, "writing note %s", name))
		}
	}

	return note
}

func notebookUIDs(nbs []*Notebook) []string {
	ret := []string{}
	for _, nb := range nbs {
		ret = append(ret, nb.UID)
	}

	return ret
}

func TestAuthenticate(t *testing.T) {
	server := testutils.NewServer(t)
	server.AddUser(t, "alice", "pass1234")
	ctx := context.InitTestCtx(t)

	c := New(ctx, tokens.NewStore())
	assert.Equal(t, c.Authenticated(), false, "should start without a session")

	ok := c.Authenticate("alice", "pass1234", server.URL, true)
	assert.Equalf(t, ok, true, "authentication should succeed")
	assert.Equal(t, c.Authenticated(), true, "should hold a session")
	assert.Equal(t, c.Username(), "alice", "username mismatch")

	// the session is persisted and can be restored without the password
	settings, err := config.LoadSettings(ctx.Settings.Path())
	assert.NilErr(t, err, "reloading settings")
	sess, err := config.ReadSession(settings)
	assert.NilErr(t, err, "reading session")
	if sess == nil {
		t.Fatal("session should be persisted")
	}
	assert.Equal(t, sess.ServerURL, server.URL, "server url mismatch")
	assert.Equal(t, len(sess.Key), 32, "key length mismatch")

	restored := New(ctx, tokens.NewStore())
	assert.NilErr(t, restored.RestoreSession(sess.Key, sess.Data, sess.ServerURL), "restoring")
	assert.Equal(t, restored.Username(), "alice", "restored username mismatch")

	_, err = restored.ListNotebooks(false)
	assert.NilErr(t, err, "listing with the restored session")
}

func TestAuthenticate_failures(t *testing.T) {
	server := testutils.NewServer(t)
	server.AddUser(t, "alice", "pass1234")
	ctx := context.InitTestCtx(t)

	c := New(ctx, tokens.NewStore())

	assert.Equal(t, c.Authenticate("alice", "wrong", server.URL, true), false, "wrong password")
	assert.Equal(t, c.Authenticate("bob", "pass1234", server.URL, true), false, "unknown user")
	assert.Equal(t, c.Authenticate("alice", "pass1234", "http://127.0.0.1:1", true), false, "unreachable server")

	server.SetIncompatible(true)
	assert.Equal(t, c.Authenticate("alice", "pass1234", server.URL, true), false, "incompatible server")

	assert.Equal(t, c.Authenticated(), false, "should not hold a session")
	_, ok := ctx.Settings.Get(consts.SettingSessionData)
	assert.Equal(t, ok, false, "session should not be persisted")
}

func TestAuthenticate_noPersist(t *testing.T) {
	server := testutils.NewServer(t)
	server.AddUser(t, "alice", "pass1234")
	ctx := context.InitTestCtx(t)

	c := New(ctx, tokens.NewStore())
	assert.Equal(t, c.Authenticate("alice", "pass1234", server.URL, false), true, "authentication should succeed")

	_, ok := ctx.Settings.Get(consts.SettingSessionData)
	assert.Equal(t, ok, false, "session should not be persisted")
}

func TestRestoreSession_invalid(t *testing.T) {
	ctx := context.InitTestCtx(t)
	c := New(ctx, tokens.NewStore())

	err := c.RestoreSession(make([]byte, 32), []byte("garbage"), "")
	assert.NotEqual(t, err, nil, "restoring garbage should fail")
	assert.Equal(t, c.Authenticated(), false, "should not hold a session")
}

func TestNotLoggedIn(t *testing.T) {
	ctx := context.InitTestCtx(t)
	c := New(ctx, tokens.NewStore())

	_, err := c.ListNotebooks(false)
	assert.Equal(t, errors.Cause(err), ErrNotLoggedIn, "list error mismatch")
	_, err = c.CreateNotebook("a", "", "")
	assert.Equal(t, errors.Cause(err), ErrNotLoggedIn, "create error mismatch")
}

func TestListNotebooks_tokens(t *testing.T) {
	_, c := setup(t)
	store := c.Tokens()

	nb1 := mustCreateNotebook(t, c, "Personal")

	listing, err := c.ListNotebooks(false)
	assert.NilErr(t, err, "full listing")
	assert.DeepEqual(t, notebookUIDs(listing.Notebooks), []string{nb1.UID}, "full listing mismatch")
	t1 := store.Get(consts.ClassNotebook)
	if t1 == nil {
		t.Fatal("token should be stored after a listing")
	}

	nb2 := mustCreateNotebook(t, c, "Work")

	listing, err = c.ListNotebooks(true)
	assert.NilErr(t, err, "incremental listing")
	assert.DeepEqual(t, notebookUIDs(listing.Notebooks), []string{nb2.UID}, "incremental listing mismatch")
	t2 := store.Get(consts.ClassNotebook)
	assert.NotEqual(t, *t2, *t1, "token should advance")

	listing, err = c.ListNotebooks(true)
	assert.NilErr(t, err, "incremental listing without changes")
	assert.Equal(t, listing.Empty(), true, "listing should be empty")
	assert.Equal(t, *store.Get(consts.ClassNotebook), *t2, "token should stay")

	// a full listing ignores the held token
	listing, err = c.ListNotebooks(false)
	assert.NilErr(t, err, "full listing")
	assert.Len(t, listing.Notebooks, 2, "full listing count")
}

func TestListNotebooks_paginated(t *testing.T) {
	server, c := setup(t)
	server.SetPageSize(1)

	for _, name := range []string{"a", "b", "c"} {
		mustCreateNotebook(t, c, name)
	}

	before := server.Lists()
	listing, err := c.ListNotebooks(false)
	assert.NilErr(t, err, "full listing")
	assert.Len(t, listing.Notebooks, 3, "all pages should be fetched")
	assert.Equal(t, server.Lists()-before, 3, "page requests mismatch")

	token := *c.Tokens().Get(consts.ClassNotebook)

	listing, err = c.ListNotebooks(true)
	assert.NilErr(t, err, "incremental listing")
	assert.Equal(t, listing.Empty(), true, "the stored token should be the last page's")
	assert.Equal(t, *c.Tokens().Get(consts.ClassNotebook), token, "token mismatch")
}

func TestListNotebooks_failureKeepsToken(t *testing.T) {
	server, c := setup(t)
	mustCreateNotebook(t, c, "a")

	_, err := c.ListNotebooks(false)
	assert.NilErr(t, err, "listing")
	token := *c.Tokens().Get(consts.ClassNotebook)

	mustCreateNotebook(t, c, "b")
	server.SetFailing(true)

	_, err = c.ListNotebooks(true)
	assert.NotEqual(t, err, nil, "listing should fail")
	assert.Equal(t, *c.Tokens().Get(consts.ClassNotebook), token, "token should not change on failure")
}

func TestNotebookMutations(t *testing.T) {
	_, c := setup(t)

	nb, err := c.CreateNotebook("Personal", "home stuff", "#ff0000")
	assert.NilErr(t, err, "creating")
	assert.Equal(t, nb.Name, "Personal", "name mismatch")
	assert.Equal(t, nb.Description, "home stuff", "description mismatch")
	assert.Equal(t, nb.Color, "#ff0000", "color mismatch")

	_, err = c.ListNotebooks(false)
	assert.NilErr(t, err, "listing")

	nb.Name = "Home"
	nb.Color = "#00ff00"
	assert.NilErr(t, c.UpdateNotebook(nb), "updating")

	listing, err := c.ListNotebooks(true)
	assert.NilErr(t, err, "listing updates")
	assert.Len(t, listing.Notebooks, 1, "updated notebook count")
	assert.Equal(t, listing.Notebooks[0].Name, "Home", "updated name mismatch")
	assert.Equal(t, listing.Notebooks[0].Color, "#00ff00", "updated color mismatch")
	assert.Equal(t, listing.Notebooks[0].Description, "home stuff", "description should be kept")

	assert.NilErr(t, c.DeleteNotebook(nb), "deleting")

	listing, err = c.ListNotebooks(true)
	assert.NilErr(t, err, "listing deletions")
	assert.Len(t, listing.Notebooks, 0, "deleted notebooks should be filtered")
	assert.DeepEqual(t, listing.Removed, []string{nb.UID}, "removed mismatch")

	listing, err = c.ListNotebooks(false)
	assert.NilErr(t, err, "full listing")
	assert.Equal(t, listing.Empty(), true, "full listing should not include deleted notebooks")
}

func TestNotes(t *testing.T) {
	_, c := setup(t)
	nb := mustCreateNotebook(t, c, "Personal")

	note := mustCreateNote(t, c, nb, "todo", "")
	assert.Equal(t, note.NotebookUID, nb.UID, "notebook uid mismatch")
	assert.Equal(t, note.Dirty, false, "new note should be clean")
	assert.Equal(t, string(note.Content), "", "new note should be empty")
	assert.Equal(t, note.Item.Meta().Type, "file", "item type mismatch")

	note.Content = []byte("- milk")
	note.Dirty = true
	wrote, err := c.WriteNote(note, false)
	assert.NilErr(t, err, "writing")
	assert.Equal(t, wrote, true, "dirty note should be written")
	assert.Equal(t, note.Dirty, false, "dirty flag should be cleared")

	listing, err := c.ListNotes(nb, false)
	assert.NilErr(t, err, "listing")
	assert.Len(t, listing.Notes, 1, "note count")
	assert.Equal(t, listing.Notes[0].UID, note.UID, "uid mismatch")
	assert.Equal(t, listing.Notes[0].Name, "todo", "name mismatch")
	assert.Equal(t, string(listing.Notes[0].Content), "- milk", "content mismatch")

	assert.NilErr(t, c.DeleteNote(note), "deleting")

	listing, err = c.ListNotes(nb, true)
	assert.NilErr(t, err, "listing deletions")
	assert.Len(t, listing.Notes, 0, "deleted notes should be filtered")
	assert.DeepEqual(t, listing.Removed, []string{note.UID}, "removed mismatch")
}

func TestWriteNote_clean(t *testing.T) {
	server, c := setup(t)
	nb := mustCreateNotebook(t, c, "Personal")
	note := mustCreateNote(t, c, nb, "todo", "x")

	before := server.Writes()

	wrote, err := c.WriteNote(note, false)
	assert.NilErr(t, err, "writing")
	assert.Equal(t, wrote, false, "clean note should not be written")

	n, err := c.SaveNotes([]*Note{note}, false)
	assert.NilErr(t, err, "saving")
	assert.Equal(t, n, 0, "write count mismatch")
	assert.Equal(t, server.Writes(), before, "no request should reach the server")

	wrote, err = c.WriteNote(note, true)
	assert.NilErr(t, err, "forced writing")
	assert.Equal(t, wrote, true, "forced write should happen")
	assert.Equal(t, server.Writes(), before+1, "forced write should reach the server")
}

func TestSaveNotes(t *testing.T) {
	server, c := setup(t)
	nb := mustCreateNotebook(t, c, "Personal")
	n1 := mustCreateNote(t, c, nb, "n1", "")
	n2 := mustCreateNote(t, c, nb, "n2", "")
	n3 := mustCreateNote(t, c, nb, "n3", "")

	n1.Content, n1.Dirty = []byte("one"), true
	n3.Content, n3.Dirty = []byte("three"), true

	before := server.Writes()
	n, err := c.SaveNotes([]*Note{n1, n2, n3}, false)
	assert.NilErr(t, err, "saving")
	assert.Equal(t, n, 2, "write count mismatch")
	assert.Equal(t, server.Writes()-before, 2, "server writes mismatch")
	assert.Equal(t, n1.Dirty, false, "n1 should be clean")
	assert.Equal(t, n3.Dirty, false, "n3 should be clean")
}

func TestSaveNotes_failure(t *testing.T) {
	server, c := setup(t)
	nb := mustCreateNotebook(t, c, "Personal")
	n1 := mustCreateNote(t, c, nb, "n1", "")
	n2 := mustCreateNote(t, c, nb, "n2", "")

	n1.Content, n1.Dirty = []byte("one"), true
	n2.Content, n2.Dirty = []byte("two"), true

	server.SetFailing(true)

	_, err := c.SaveNotes([]*Note{n1, n2}, false)
	assert.NotEqual(t, err, nil, "saving should fail")
	assert.Equal(t, n1.Dirty, true, "n1 should stay dirty")
	assert.Equal(t, n2.Dirty, true, "n2 should stay dirty")
}

func TestListChanges(t *testing.T) {
	_, c := setup(t)
	nb1 := mustCreateNotebook(t, c, "a")
	nb2 := mustCreateNotebook(t, c, "b")
	mustCreateNote(t, c, nb1, "n1", "one")
	n2 := mustCreateNote(t, c, nb2, "n2", "two")

	_, err := c.ListNotebooks(false)
	assert.NilErr(t, err, "listing notebooks")
	for _, nb := range []*Notebook{nb1, nb2} {
		_, err := c.ListNotes(nb, false)
		assert.NilErr(t, err, "listing notes")
	}

	changes, err := c.ListChanges()
	assert.NilErr(t, err, "listing without changes")
	assert.Equal(t, changes.Empty(), true, "nothing should have changed")

	n2.Content, n2.Dirty = []byte("two v2"), true
	_, err = c.WriteNote(n2, false)
	assert.NilErr(t, err, "writing n2")
	nb3 := mustCreateNotebook(t, c, "c")

	changes, err = c.ListChanges()
	assert.NilErr(t, err, "listing changes")
	assert.DeepEqual(t, notebookUIDs(changes.Notebooks.Notebooks), []string{nb2.UID, nb3.UID}, "changed notebooks mismatch")
	assert.Len(t, changes.Notes.Notes, 1, "changed note count")
	assert.Equal(t, changes.Notes.Notes[0].UID, n2.UID, "changed note mismatch")
	assert.Equal(t, string(changes.Notes.Notes[0].Content), "two v2", "changed content mismatch")

	changes, err = c.ListChanges()
	assert.NilErr(t, err, "listing again")
	assert.Equal(t, changes.Empty(), true, "nothing should have changed since")
}

func TestListChanges_writeDuringListing(t *testing.T) {
	server, c := setup(t)
	nb1 := mustCreateNotebook(t, c, "a")
	nb2 := mustCreateNotebook(t, c, "b")
	na := mustCreateNote(t, c, nb1, "na", "a1")
	nb := mustCreateNote(t, c, nb2, "nb", "b1")

	_, err := c.ListChanges()
	assert.NilErr(t, err, "listing everything")

	// nb1 changes first so it is listed first
	na.Content, na.Dirty = []byte("a2"), true
	_, err = c.WriteNote(na, false)
	assert.NilErr(t, err, "writing na")
	nb.Content, nb.Dirty = []byte("b2"), true
	_, err = c.WriteNote(nb, false)
	assert.NilErr(t, err, "writing nb")

	// a second device writes na while nb2 is being listed
	other := New(context.InitTestCtx(t), tokens.NewStore())
	if ok := other.Authenticate(TestUsername, TestPassword, server.URL, false); !ok {
		t.Fatal("authenticating the other device")
	}
	otherNbs, err := other.ListNotebooks(false)
	assert.NilErr(t, err, "listing notebooks on the other device")
	var otherNb1 *Notebook
	for _, n := range otherNbs.Notebooks {
		if n.UID == nb1.UID {
			otherNb1 = n
		}
	}
	if otherNb1 == nil {
		t.Fatalf("notebook %s not found", nb1.UID)
	}
	otherNotes, err := other.ListNotes(otherNb1, false)
	assert.NilErr(t, err, "listing notes on the other device")
	otherNa := otherNotes.Notes[0]

	var once sync.Once
	var writeErr error
	server.OnRequest(func(r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/collections/"+nb2.UID+"/items" {
			return
		}

		once.Do(func() {
			otherNa.Content, otherNa.Dirty = []byte("a3"), true
			_, writeErr = other.WriteNote(otherNa, false)
		})
	})

	changes, err := c.ListChanges()
	assert.NilErr(t, err, "listing changes")
	assert.NilErr(t, writeErr, "writing during the listing")
	server.OnRequest(nil)

	got := map[string]string{}
	for _, n := range changes.Notes.Notes {
		got[n.UID] = string(n.Content)
	}
	assert.Equal(t, got[nb.UID], "b2", "nb content")

	changes, err = c.ListChanges()
	assert.NilErr(t, err, "listing again")
	assert.Len(t, changes.Notes.Notes, 1, "the write during the listing should be listed")
	assert.Equal(t, changes.Notes.Notes[0].UID, na.UID, "changed note mismatch")
	assert.Equal(t, string(changes.Notes.Notes[0].Content), "a3", "changed content mismatch")
}

func TestListChanges_failureKeepsTokens(t *testing.T) {
	server, c := setup(t)
	mustCreateNotebook(t, c, "a")

	_, err := c.ListNotebooks(false)
	assert.NilErr(t, err, "listing notebooks")
	before := c.Tokens().Pair()

	mustCreateNotebook(t, c, "b")
	server.SetFailing(true)

	_, err = c.ListChanges()
	assert.NotEqual(t, err, nil, "listing should fail")
	assert.DeepEqual(t, c.Tokens().Pair(), before, "tokens should not change")

	server.SetFailing(false)
	changes, err := c.ListChanges()
	assert.NilErr(t, err, "listing after recovery")
	assert.Len(t, changes.Notebooks.Notebooks, 1, "the change should be listed again")
}

func TestLogout(t *testing.T) {
	server := testutils.NewServer(t)
	server.AddUser(t, "alice", "pass1234")
	ctx := context.InitTestCtx(t)

	c := New(ctx, tokens.NewStore())
	assert.Equalf(t, c.Authenticate("alice", "pass1234", server.URL, true), true, "authenticating")
	_, err := c.ListNotebooks(false)
	assert.NilErr(t, err, "listing")
	assert.Equal(t, server.Sessions(), 1, "server session count")

	assert.NilErr(t, c.Logout(), "logging out")

	assert.Equal(t, c.Authenticated(), false, "should not hold a session")
	assert.Equal(t, server.Sessions(), 0, "server session should be ended")
	assert.DeepEqual(t, c.Tokens().Pair(), tokens.Pair{}, "tokens should be reset")

	settings, err := config.LoadSettings(ctx.Settings.Path())
	assert.NilErr(t, err, "reloading settings")
	sess, err := config.ReadSession(settings)
	assert.NilErr(t, err, "reading session")
	if sess != nil {
		t.Error("session should be cleared")
	}
	_, ok := settings.Get(consts.SettingSessionURL)
	assert.Equal(t, ok, false, "session url should be cleared")
}

func TestCacheHooks(t *testing.T) {
	_, c := setup(t)
	nb := mustCreateNotebook(t, c, "Personal")
	clean := mustCreateNote(t, c, nb, "clean", "saved")
	dirty := mustCreateNote(t, c, nb, "dirty", "saved")
	dirty.Content, dirty.Dirty = []byte("unsaved"), true

	nbBlob, err := c.CacheSaveNotebook(nb)
	assert.NilErr(t, err, "saving notebook")
	cleanBlob, err := c.CacheSaveNote(clean)
	assert.NilErr(t, err, "saving clean note")
	dirtyBlob, err := c.CacheSaveNote(dirty)
	assert.NilErr(t, err, "saving dirty note")

	loadedNb, err := c.CacheLoadNotebook(nbBlob)
	assert.NilErr(t, err, "loading notebook")
	assert.Equal(t, loadedNb.UID, nb.UID, "notebook uid mismatch")
	assert.Equal(t, loadedNb.Name, "Personal", "notebook name mismatch")

	loadedClean, err := c.CacheLoadNote(loadedNb, cleanBlob)
	assert.NilErr(t, err, "loading clean note")
	assert.Equal(t, loadedClean.UID, clean.UID, "clean uid mismatch")
	assert.Equal(t, loadedClean.NotebookUID, nb.UID, "clean notebook mismatch")
	assert.Equal(t, string(loadedClean.Content), "saved", "clean content mismatch")
	assert.Equal(t, loadedClean.Dirty, false, "clean note should load clean")

	loadedDirty, err := c.CacheLoadNote(loadedNb, dirtyBlob)
	assert.NilErr(t, err, "loading dirty note")
	assert.Equal(t, string(loadedDirty.Content), "unsaved", "dirty content mismatch")
	assert.Equal(t, loadedDirty.Dirty, true, "dirty note should load dirty")

	// the loaded handles are usable for writes
	_, err = c.WriteNote(loadedDirty, false)
	assert.NilErr(t, err, "writing a loaded note")
	listing, err := c.ListNotes(loadedNb, false)
	assert.NilErr(t, err, "listing")
	for _, n := range listing.Notes {
		if n.UID == dirty.UID {
			assert.Equal(t, string(n.Content), "unsaved", "written content mismatch")
		}
	}
}

func TestNoteCopy(t *testing.T) {
	n := &Note{UID: "n1", Content: []byte("a"), Dirty: true}
	c := n.Copy()
	c.Content[0] = 'b'
	c.Dirty = false

	assert.Equal(t, string(n.Content), "a", "content should not be shared")
	assert.Equal(t, n.Dirty, true, "dirty should not be shared")
}
