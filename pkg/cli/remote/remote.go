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

// Package remote adapts the encrypted sync library to notebooks and notes.
// It is the only package that talks to the sync server.
package remote

import (
	"net/http"
	"sync"

	"github.com/dnote/etenotes/pkg/cli/config"
	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/crypt"
	"github.com/dnote/etenotes/pkg/cli/etebase"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/tokens"
	"github.com/dnote/etenotes/pkg/clock"
	"github.com/pkg/errors"
)

// ErrNotLoggedIn is an error for an operation that requires a session
var ErrNotLoggedIn = errors.New("not logged in")

// Notebook is a collection of notes
type Notebook struct {
	UID         string
	Name        string
	Color       string
	Description string
	Collection  *etebase.Collection
}

// Note is a note in a notebook. Dirty is true when Content has local
// changes that are not pushed yet.
type Note struct {
	UID         string
	NotebookUID string
	Name        string
	Content     []byte
	Dirty       bool
	Item        *etebase.Item

	collection *etebase.Collection
}

// Copy returns a copy of the note with its own content and item. The
// notebook handle is shared.
func (n *Note) Copy() *Note {
	c := *n
	c.Content = append([]byte(nil), n.Content...)
	if n.Item != nil {
		c.Item = n.Item.Clone()
	}

	return &c
}

func newNotebook(col *etebase.Collection) *Notebook {
	meta := col.Meta()

	return &Notebook{
		UID:         col.UID(),
		Name:        meta.Name,
		Color:       meta.Color,
		Description: meta.Description,
		Collection:  col,
	}
}

func newNote(nb *Notebook, item *etebase.Item) *Note {
	return &Note{
		UID:         item.UID(),
		NotebookUID: nb.UID,
		Name:        item.Meta().Name,
		Content:     append([]byte(nil), item.Content()...),
		Item:        item,
		collection:  nb.Collection,
	}
}

// Client is the adapter between the application and the sync server
type Client struct {
	version    string
	httpClient *http.Client
	settings   *config.Settings
	clock      clock.Clock
	tokens     *tokens.Store

	mu      sync.RWMutex
	account *etebase.Account
}

// New returns a client without a session
func New(ctx context.NotesCtx, store *tokens.Store) *Client {
	c := ctx.Clock
	if c == nil {
		c = clock.New()
	}

	return &Client{
		version:    ctx.Version,
		httpClient: ctx.HTTPClient,
		settings:   ctx.Settings,
		clock:      c,
		tokens:     store,
	}
}

// Tokens returns the sync token store of the client
func (r *Client) Tokens() *tokens.Store {
	return r.tokens
}

func (r *Client) setAccount(a *etebase.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.account = a
}

func (r *Client) getAccount() (*etebase.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.account == nil {
		return nil, ErrNotLoggedIn
	}

	return r.account, nil
}

func (r *Client) collectionManager() (*etebase.CollectionManager, error) {
	a, err := r.getAccount()
	if err != nil {
		return nil, err
	}

	return a.CollectionManager(), nil
}

// Authenticated returns true if the client holds a session
func (r *Client) Authenticated() bool {
	_, err := r.getAccount()
	return err == nil
}

// Username returns the user of the session, or an empty string without one
func (r *Client) Username() string {
	a, err := r.getAccount()
	if err != nil {
		return ""
	}

	return a.Username()
}

// Authenticate logs in to the server at serverURL, or the default server if
// it is empty. Servers other than the default must pass the compatibility
// check. With persist, the session is sealed with a fresh key and written to
// the settings so that it can be restored later. Failures are logged and
// reported as false.
func (r *Client) Authenticate(username, password, serverURL string, persist bool) bool {
	c := etebase.NewClient(serverURL, r.version, r.httpClient)

	if c.ServerURL() != etebase.DefaultServerURL {
		ok, err := etebase.IsEtebaseServer(c)
		if err != nil {
			log.Debug("checking the server %s: %s\n", c.ServerURL(), err)
			return false
		}
		if !ok {
			log.Debug("%s is not a compatible server\n", c.ServerURL())
			return false
		}
	}

	account, err := etebase.Login(c, username, password)
	if err != nil {
		log.Debug("authenticating: %s\n", err)
		return false
	}
	r.setAccount(account)

	if persist {
		if err := r.persistSession(account); err != nil {
			log.Errorf("saving the session: %s\n", err)
		}
	}

	log.Debug("authenticated as %s\n", account.Username())
	return true
}

func (r *Client) persistSession(account *etebase.Account) error {
	if r.settings == nil {
		return errors.New("no settings store")
	}

	key, err := crypt.RandomKey()
	if err != nil {
		return errors.Wrap(err, "generating the session key")
	}
	blob, err := account.Save(key)
	if err != nil {
		return errors.Wrap(err, "sealing the session")
	}

	config.WriteSession(r.settings, config.Session{
		ServerURL: account.ServerURL(),
		Key:       key,
		Data:      blob,
	})
	if err := r.settings.Save(); err != nil {
		return errors.Wrap(err, "writing settings")
	}

	return nil
}

// RestoreSession reconstructs a session persisted by Authenticate. No
// request is made to the server.
func (r *Client) RestoreSession(key, blob []byte, serverURL string) error {
	c := etebase.NewClient(serverURL, r.version, r.httpClient)

	account, err := etebase.Restore(c, blob, key)
	if err != nil {
		return errors.Wrap(err, "restoring the session")
	}
	r.setAccount(account)

	return nil
}

// Logout ends the session. The server logout is best effort. The persisted
// session and the sync tokens are always cleared.
func (r *Client) Logout() error {
	account, err := r.getAccount()
	if err == nil {
		if err := account.Logout(); err != nil {
			log.Debug("logging out of the server: %s\n", err)
		}
	}

	r.setAccount(nil)
	r.tokens.Reset()

	if r.settings == nil {
		return nil
	}

	config.ClearSession(r.settings)
	if err := r.settings.Save(); err != nil {
		return errors.Wrap(err, "writing settings")
	}

	return nil
}

// NotebookListing is the result of a notebook listing. Removed holds the
// uids of notebooks deleted since the previous listing.
type NotebookListing struct {
	Notebooks []*Notebook
	Removed   []string
}

// NoteListing is the result of a note listing. Removed holds the uids of
// notes deleted since the previous listing.
type NoteListing struct {
	Notes   []*Note
	Removed []string
}

// Empty returns true if the listing has no entries
func (l *NoteListing) Empty() bool {
	return len(l.Notes) == 0 && len(l.Removed) == 0
}

// Empty returns true if the listing has no entries
func (l *NotebookListing) Empty() bool {
	return len(l.Notebooks) == 0 && len(l.Removed) == 0
}

func (r *Client) stoken(class consts.ResourceClass, incremental bool) *string {
	if !incremental {
		return nil
	}

	return r.tokens.Get(class)
}

func (r *Client) listNotebooks(cm *etebase.CollectionManager, stoken *string) (*NotebookListing, *string, error) {
	ret := &NotebookListing{}

	for {
		resp, err := cm.List(consts.CollectionType, &etebase.FetchOptions{Stoken: stoken})
		if err != nil {
			return nil, nil, errors.Wrap(err, "listing notebooks")
		}

		for _, col := range resp.Data {
			if col.IsDeleted() {
				ret.Removed = append(ret.Removed, col.UID())
				continue
			}

			ret.Notebooks = append(ret.Notebooks, newNotebook(col))
		}

		token := resp.Stoken
		stoken = &token

		if resp.Done {
			return ret, stoken, nil
		}
	}
}

func (r *Client) listNotes(cm *etebase.CollectionManager, nb *Notebook, stoken *string, ret *NoteListing) (*string, error) {
	im := cm.ItemManager(nb.Collection)

	for {
		resp, err := im.List(&etebase.FetchOptions{Stoken: stoken})
		if err != nil {
			return nil, errors.Wrapf(err, "listing notes of %s", nb.UID)
		}

		for _, item := range resp.Data {
			if item.IsDeleted() {
				ret.Removed = append(ret.Removed, item.UID())
				continue
			}

			ret.Notes = append(ret.Notes, newNote(nb, item))
		}

		token := resp.Stoken
		stoken = &token

		if resp.Done {
			return stoken, nil
		}
	}
}

// ListNotebooks lists the notebooks, only the changed ones if incremental
// and a notebook token is held. The returned token is stored once all pages
// are fetched.
func (r *Client) ListNotebooks(incremental bool) (*NotebookListing, error) {
	cm, err := r.collectionManager()
	if err != nil {
		return nil, err
	}

	ret, token, err := r.listNotebooks(cm, r.stoken(consts.ClassNotebook, incremental))
	if err != nil {
		return nil, err
	}

	r.tokens.Set(consts.ClassNotebook, token)

	return ret, nil
}

// ListNotes lists the notes of the notebook, only the changed ones if
// incremental and a note token is held. The returned token is stored once
// all pages are fetched.
func (r *Client) ListNotes(nb *Notebook, incremental bool) (*NoteListing, error) {
	cm, err := r.collectionManager()
	if err != nil {
		return nil, err
	}

	ret := &NoteListing{}
	token, err := r.listNotes(cm, nb, r.stoken(consts.ClassNote, incremental), ret)
	if err != nil {
		return nil, err
	}

	r.tokens.Set(consts.ClassNote, token)

	return ret, nil
}

// Changes are the notebooks and notes changed since the held tokens
type Changes struct {
	Notebooks *NotebookListing
	Notes     *NoteListing
}

// Empty returns true if nothing changed
func (c *Changes) Empty() bool {
	return c.Notebooks.Empty() && c.Notes.Empty()
}

// ListChanges lists the notebooks changed since the held notebook token,
// then the notes of those notebooks changed since the held note token. Both
// tokens are stored only once every listing succeeded, so that a failure
// leaves the changes to be listed again. The note token kept is the one of
// the first listing: a note written while a later notebook is listed has
// changed after it and is listed again by the next round.
func (r *Client) ListChanges() (*Changes, error) {
	cm, err := r.collectionManager()
	if err != nil {
		return nil, err
	}

	nbs, nbToken, err := r.listNotebooks(cm, r.tokens.Get(consts.ClassNotebook))
	if err != nil {
		return nil, err
	}

	notes := &NoteListing{}
	since := r.tokens.Get(consts.ClassNote)
	var noteToken *string
	for _, nb := range nbs.Notebooks {
		token, err := r.listNotes(cm, nb, since, notes)
		if err != nil {
			return nil, err
		}

		if noteToken == nil {
			noteToken = token
		}
	}

	r.tokens.Set(consts.ClassNotebook, nbToken)
	if noteToken != nil {
		r.tokens.Set(consts.ClassNote, noteToken)
	}

	return &Changes{Notebooks: nbs, Notes: notes}, nil
}
