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

package testutils

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dnote/etenotes/pkg/cli/client"
	"github.com/dnote/etenotes/pkg/cli/crypt"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type serverUser struct {
	salt       []byte
	authDigest string
}

type collectionRecord struct {
	owner   string
	changed int
	col     client.RespCollection
}

type itemRecord struct {
	changed int
	item    client.RespItem
}

// Server is an in-memory sync server speaking the wire protocol of the client package
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	users       map[string]serverUser
	tokens      map[string]string
	collections map[string]*collectionRecord
	items       map[string]map[string]*itemRecord
	counter     int
	pageSize    int
	failing     bool
	incompat    bool
	writes      int
	lists       int
	hook        func(r *http.Request)
}

// route represents a single route of the server
type route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	Auth    bool
}

// NewServer starts a new in-memory sync server that is closed when the test ends
func NewServer(t *testing.T) *Server {
	s := &Server{
		users:       map[string]serverUser{},
		tokens:      map[string]string{},
		collections: map[string]*collectionRecord{},
		items:       map[string]map[string]*itemRecord{},
	}

	s.Server = httptest.NewServer(s.newRouter())
	t.Cleanup(s.Close)

	return s
}

func (s *Server) newRouter() http.Handler {
	routes := []route{
		{"GET", "/is_etebase", s.isEtebase, false},
		{"POST", "/login_challenge", s.loginChallenge, false},
		{"POST", "/login", s.login, false},
		{"POST", "/logout", s.logout, true},
		{"GET", "/collections", s.listCollections, true},
		{"PUT", "/collections/{uid}", s.uploadCollection, true},
		{"GET", "/collections/{uid}/items", s.listItems, true},
		{"POST", "/collections/{uid}/items/batch", s.batchItems, true},
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()

	for _, r := range routes {
		h := r.Handler
		if r.Auth {
			h = s.auth(h)
		}

		api.Handle(r.Pattern, s.failable(h)).Methods(r.Method)
	}

	return router
}

// AddUser registers a user with the given password
func (s *Server) AddUser(t *testing.T, username, password string) {
	salt, err := crypt.RandomBytes(crypt.SaltSize)
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating salt"))
	}

	keys, err := crypt.DeriveKeys(username, password, salt)
	if err != nil {
		t.Fatal(errors.Wrap(err, "deriving keys"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[username] = serverUser{
		salt:       salt,
		authDigest: crypt.HashAuthKey(keys.AuthKey),
	}
}

// SetFailing makes every request fail with an internal server error
func (s *Server) SetFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failing = failing
}

// SetIncompatible makes the server fail the compatibility check
func (s *Server) SetIncompatible(incompat bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.incompat = incompat
}

// OnRequest sets a function called with every request before it is served.
// It is called without the server lock held, so it may make requests itself.
func (s *Server) OnRequest(f func(r *http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hook = f
}

// SetPageSize sets the max number of entries per listing page. Zero means unlimited.
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pageSize = n
}

// Writes returns the number of successful write requests served so far
func (s *Server) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writes
}

// Lists returns the number of listing requests served so far
func (s *Server) Lists() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lists
}

// Sessions returns the number of live auth tokens
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tokens)
}

// Item returns the stored item of the collection, if any
func (s *Server) Item(colUID, uid string) (client.RespItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.items[colUID][uid]
	if !ok {
		return client.RespItem{}, false
	}

	return rec.item, true
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) failable(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		failing := s.failing
		hook := s.hook
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if failing {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		h(w, r)
	}
}

const usernameHeader = "X-Test-Username"

func (s *Server) auth(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Token ")

		s.mu.Lock()
		username, ok := s.tokens[token]
		s.mu.Unlock()

		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		r.Header.Set(usernameHeader, username)
		h(w, r)
	}
}

func (s *Server) isEtebase(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	incompat := s.incompat
	s.mu.Unlock()

	if incompat {
		http.NotFound(w, r)
		return
	}

	respondJSON(w, client.IsEtebaseResp{Etebase: true})
}

func (s *Server) loginChallenge(w http.ResponseWriter, r *http.Request) {
	var p client.LoginChallengePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	u, ok := s.users[p.Username]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	respondJSON(w, client.LoginChallengeResp{
		Salt: base64.StdEncoding.EncodeToString(u.salt),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var p client.LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	authKey, err := base64.StdEncoding.DecodeString(p.AuthKey)
	if err != nil {
		http.Error(w, "malformed auth key", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[p.Username]
	if !ok || !crypt.VerifyAuthKey(authKey, u.authDigest) {
		http.Error(w, "wrong credentials", http.StatusUnauthorized)
		return
	}

	b, err := crypt.RandomBytes(16)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	s.tokens[token] = p.Username

	respondJSON(w, client.LoginResp{Token: token, Username: p.Username})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Token ")

	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// parseStoken returns the change counter the stoken refers to, or -1 for a full listing
func parseStoken(r *http.Request) (int, error) {
	v := r.URL.Query().Get("stoken")
	if v == "" {
		return -1, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Errorf("invalid stoken %q", v)
	}

	return n, nil
}

// page returns the window of the sorted change counters to respond with, and
// whether it is the last one
func (s *Server) page(n int) (int, bool) {
	if s.pageSize == 0 || n <= s.pageSize {
		return n, true
	}

	return s.pageSize, false
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	username := r.Header.Get(usernameHeader)
	colType := r.URL.Query().Get("type")

	since, err := parseStoken(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists++

	var recs []*collectionRecord
	for _, rec := range s.collections {
		if rec.owner != username || rec.col.Type != colType {
			continue
		}
		if since < 0 && rec.col.Deleted {
			continue
		}
		if rec.changed <= since {
			continue
		}

		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].changed < recs[j].changed })

	n, done := s.page(len(recs))
	resp := client.CollectionListResp{
		Data:   []client.RespCollection{},
		Stoken: strconv.Itoa(s.counter),
		Done:   done,
	}
	for _, rec := range recs[:n] {
		resp.Data = append(resp.Data, rec.col)
	}
	if !done {
		resp.Stoken = strconv.Itoa(recs[n-1].changed)
	}

	respondJSON(w, resp)
}

func (s *Server) uploadCollection(w http.ResponseWriter, r *http.Request) {
	username := r.Header.Get(usernameHeader)
	uid := mux.Vars(r)["uid"]

	var col client.RespCollection
	if err := json.NewDecoder(r.Body).Decode(&col); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if col.UID != uid {
		http.Error(w, "uid mismatch", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[uid]
	if ok && rec.owner != username {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if !ok {
		rec = &collectionRecord{owner: username}
		s.collections[uid] = rec
	}

	s.counter++
	s.writes++
	col.Etag = strconv.Itoa(s.counter)
	rec.col = col
	rec.changed = s.counter

	respondJSON(w, client.EtagResp{Etag: col.Etag})
}

func (s *Server) ownedCollection(w http.ResponseWriter, r *http.Request) (*collectionRecord, bool) {
	username := r.Header.Get(usernameHeader)
	uid := mux.Vars(r)["uid"]

	rec, ok := s.collections[uid]
	if !ok || rec.owner != username {
		http.Error(w, "collection not found", http.StatusNotFound)
		return nil, false
	}

	return rec, true
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	since, err := parseStoken(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.ownedCollection(w, r)
	if !ok {
		return
	}

	s.lists++

	var recs []*itemRecord
	for _, it := range s.items[rec.col.UID] {
		if since < 0 && it.item.Deleted {
			continue
		}
		if it.changed <= since {
			continue
		}

		recs = append(recs, it)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].changed < recs[j].changed })

	n, done := s.page(len(recs))
	resp := client.ItemListResp{
		Data:   []client.RespItem{},
		Stoken: strconv.Itoa(s.counter),
		Done:   done,
	}
	for _, it := range recs[:n] {
		resp.Data = append(resp.Data, it.item)
	}
	if !done {
		resp.Stoken = strconv.Itoa(recs[n-1].changed)
	}

	respondJSON(w, resp)
}

func (s *Server) batchItems(w http.ResponseWriter, r *http.Request) {
	var p client.BatchItemsPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.ownedCollection(w, r)
	if !ok {
		return
	}

	items, ok := s.items[rec.col.UID]
	if !ok {
		items = map[string]*itemRecord{}
		s.items[rec.col.UID] = items
	}

	s.counter++
	s.writes++

	resp := client.BatchItemsResp{Etags: []string{}}
	for _, it := range p.Items {
		it.Etag = strconv.Itoa(s.counter)
		items[it.UID] = &itemRecord{changed: s.counter, item: it}
		resp.Etags = append(resp.Etags, it.Etag)
	}

	// a change to the items is a change to the collection
	rec.changed = s.counter

	respondJSON(w, resp)
}
