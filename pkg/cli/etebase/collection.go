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
	"encoding/json"

	"github.com/dnote/etenotes/pkg/cli/client"
	"github.com/dnote/etenotes/pkg/cli/utils"
	"github.com/pkg/errors"
)

// Collection is a decrypted collection of items
type Collection struct {
	uid     string
	colType string
	meta    ItemMetadata
	content []byte
	deleted bool
	etag    string
}

// UID returns the unique identifier of the collection
func (c *Collection) UID() string {
	return c.uid
}

// Type returns the collection type
func (c *Collection) Type() string {
	return c.colType
}

// Meta returns the metadata of the collection
func (c *Collection) Meta() ItemMetadata {
	return c.meta
}

// SetMeta replaces the metadata of the collection
func (c *Collection) SetMeta(meta ItemMetadata) {
	c.meta = meta
}

// Content returns the content of the collection
func (c *Collection) Content() []byte {
	return c.content
}

// SetContent replaces the content of the collection
func (c *Collection) SetContent(content []byte) {
	c.content = content
}

// IsDeleted returns true if the collection was deleted
func (c *Collection) IsDeleted() bool {
	return c.deleted
}

// Delete marks the collection as deleted. The deletion takes effect once uploaded.
func (c *Collection) Delete() {
	c.deleted = true
}

// Etag returns the revision of the collection the server last acknowledged
func (c *Collection) Etag() string {
	return c.etag
}

// CollectionListResponse is a page of a collection listing
type CollectionListResponse struct {
	Data   []*Collection
	Stoken string
	Done   bool
}

// CollectionManager manages the collections of an account
type CollectionManager struct {
	account *Account
}

// Create returns a new collection that exists only locally until uploaded
func (m *CollectionManager) Create(colType string, meta ItemMetadata, content []byte) (*Collection, error) {
	uid, err := utils.GenerateUUID()
	if err != nil {
		return nil, errors.Wrap(err, "generating uid")
	}

	return &Collection{
		uid:     uid,
		colType: colType,
		meta:    meta,
		content: content,
	}, nil
}

// List lists the collections of the given type. With a sync token in the
// options, only the collections changed since then are listed, deleted ones included.
func (m *CollectionManager) List(colType string, opts *FetchOptions) (*CollectionListResponse, error) {
	resp, err := client.ListCollections(m.account.conn(), colType, opts.toList())
	if err != nil {
		return nil, errors.Wrap(err, "listing collections")
	}

	ret := &CollectionListResponse{
		Stoken: resp.Stoken,
		Done:   resp.Done,
	}
	for _, rc := range resp.Data {
		col, err := m.decrypt(rc)
		if err != nil {
			return nil, errors.Wrapf(err, "decrypting collection %s", rc.UID)
		}

		ret.Data = append(ret.Data, col)
	}

	return ret, nil
}

// Upload creates or updates the collection on the server
func (m *CollectionManager) Upload(col *Collection) error {
	rc, err := m.encrypt(col)
	if err != nil {
		return errors.Wrapf(err, "encrypting collection %s", col.uid)
	}

	resp, err := client.UploadCollection(m.account.conn(), rc)
	if err != nil {
		return errors.Wrap(err, "uploading")
	}

	col.etag = resp.Etag

	return nil
}

// ItemManager returns the manager of the items of the collection
func (m *CollectionManager) ItemManager(col *Collection) *ItemManager {
	return &ItemManager{
		account: m.account,
		colUID:  col.uid,
	}
}

type cachedCollection struct {
	Version int                   `json:"version"`
	Data    client.RespCollection `json:"data"`
}

// CacheSave serializes the collection into an opaque blob. Metadata and
// content stay encrypted with the account key.
func (m *CollectionManager) CacheSave(col *Collection) ([]byte, error) {
	rc, err := m.encrypt(col)
	if err != nil {
		return nil, errors.Wrapf(err, "encrypting collection %s", col.uid)
	}

	b, err := json.Marshal(cachedCollection{Version: cacheVersion, Data: rc})
	if err != nil {
		return nil, errors.Wrap(err, "marshalling")
	}

	return b, nil
}

// CacheLoad reconstructs a collection from a blob produced by CacheSave. It
// fails if the blob was saved by another account.
func (m *CollectionManager) CacheLoad(blob []byte) (*Collection, error) {
	var cached cachedCollection
	if err := json.Unmarshal(blob, &cached); err != nil {
		return nil, errors.Wrap(err, "unmarshalling")
	}
	if cached.Version != cacheVersion {
		return nil, errors.Wrapf(ErrCacheVersion, "got %d", cached.Version)
	}

	return m.decrypt(cached.Data)
}

func (m *CollectionManager) encrypt(col *Collection) (client.RespCollection, error) {
	key := m.account.key

	meta, err := sealMeta(key, col.meta)
	if err != nil {
		return client.RespCollection{}, errors.Wrap(err, "sealing metadata")
	}
	content, err := sealField(key, col.content)
	if err != nil {
		return client.RespCollection{}, errors.Wrap(err, "sealing content")
	}

	return client.RespCollection{
		UID:     col.uid,
		Type:    col.colType,
		Meta:    meta,
		Content: content,
		Deleted: col.deleted,
		Etag:    col.etag,
	}, nil
}

func (m *CollectionManager) decrypt(rc client.RespCollection) (*Collection, error) {
	key := m.account.key

	meta, err := openMeta(key, rc.Meta)
	if err != nil {
		return nil, err
	}
	content, err := openField(key, rc.Content)
	if err != nil {
		return nil, errors.Wrap(err, "decrypting content")
	}

	return &Collection{
		uid:     rc.UID,
		colType: rc.Type,
		meta:    meta,
		content: content,
		deleted: rc.Deleted,
		etag:    rc.Etag,
	}, nil
}
