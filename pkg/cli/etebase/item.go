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

// Item is a decrypted item of a collection
type Item struct {
	uid     string
	meta    ItemMetadata
	content []byte
	deleted bool
	etag    string
	pending bool
}

// UID returns the unique identifier of the item
func (i *Item) UID() string {
	return i.uid
}

// Meta returns the metadata of the item
func (i *Item) Meta() ItemMetadata {
	return i.meta
}

// SetMeta replaces the metadata of the item
func (i *Item) SetMeta(meta ItemMetadata) {
	i.meta = meta
}

// Content returns the content of the item
func (i *Item) Content() []byte {
	return i.content
}

// SetContent replaces the content of the item
func (i *Item) SetContent(content []byte) {
	i.content = content
}

// IsDeleted returns true if the item was deleted
func (i *Item) IsDeleted() bool {
	return i.deleted
}

// Delete marks the item as deleted. The deletion takes effect once uploaded.
func (i *Item) Delete() {
	i.deleted = true
}

// Pending returns a copy of the item with local changes that are not
// uploaded yet. It is meant to be cached, not uploaded.
func (i *Item) Pending(name string, content []byte) *Item {
	c := *i
	c.meta.Name = name
	c.content = append([]byte(nil), content...)
	c.pending = true

	return &c
}

// Clone returns a copy of the item that can be changed and uploaded
// without affecting the original
func (i *Item) Clone() *Item {
	c := *i
	c.content = append([]byte(nil), i.content...)

	return &c
}

// IsPending returns true if the item was cached with changes that are not uploaded yet
func (i *Item) IsPending() bool {
	return i.pending
}

// Etag returns the revision of the item the server last acknowledged
func (i *Item) Etag() string {
	return i.etag
}

// ItemListResponse is a page of an item listing
type ItemListResponse struct {
	Data   []*Item
	Stoken string
	Done   bool
}

// ItemManager manages the items of one collection
type ItemManager struct {
	account *Account
	colUID  string
}

// Create returns a new item that exists only locally until uploaded
func (m *ItemManager) Create(meta ItemMetadata, content []byte) (*Item, error) {
	uid, err := utils.GenerateUUID()
	if err != nil {
		return nil, errors.Wrap(err, "generating uid")
	}

	return &Item{
		uid:     uid,
		meta:    meta,
		content: content,
	}, nil
}

// List lists the items of the collection. With a sync token in the options,
// only the items changed since then are listed, deleted ones included.
func (m *ItemManager) List(opts *FetchOptions) (*ItemListResponse, error) {
	resp, err := client.ListItems(m.account.conn(), m.colUID, opts.toList())
	if err != nil {
		return nil, errors.Wrap(err, "listing items")
	}

	ret := &ItemListResponse{
		Stoken: resp.Stoken,
		Done:   resp.Done,
	}
	for _, ri := range resp.Data {
		item, err := m.decrypt(ri)
		if err != nil {
			return nil, errors.Wrapf(err, "decrypting item %s", ri.UID)
		}

		ret.Data = append(ret.Data, item)
	}

	return ret, nil
}

// Batch creates or updates the given items on the server in one request
func (m *ItemManager) Batch(items []*Item) error {
	if len(items) == 0 {
		return nil
	}

	payload := make([]client.RespItem, 0, len(items))
	for _, item := range items {
		ri, err := m.encrypt(item)
		if err != nil {
			return errors.Wrapf(err, "encrypting item %s", item.uid)
		}

		payload = append(payload, ri)
	}

	resp, err := client.BatchItems(m.account.conn(), m.colUID, payload)
	if err != nil {
		return errors.Wrap(err, "uploading")
	}

	for i, etag := range resp.Etags {
		if i < len(items) {
			items[i].etag = etag
		}
	}

	return nil
}

type cachedItem struct {
	Version int             `json:"version"`
	Data    client.RespItem `json:"data"`
	Pending bool            `json:"pending,omitempty"`
}

// CacheSave serializes the item into an opaque blob. Metadata and content
// stay encrypted with the account key.
func (m *ItemManager) CacheSave(item *Item) ([]byte, error) {
	ri, err := m.encrypt(item)
	if err != nil {
		return nil, errors.Wrapf(err, "encrypting item %s", item.uid)
	}

	b, err := json.Marshal(cachedItem{Version: cacheVersion, Data: ri, Pending: item.pending})
	if err != nil {
		return nil, errors.Wrap(err, "marshalling")
	}

	return b, nil
}

// CacheLoad reconstructs an item from a blob produced by CacheSave. It fails
// if the blob was saved by another account.
func (m *ItemManager) CacheLoad(blob []byte) (*Item, error) {
	var cached cachedItem
	if err := json.Unmarshal(blob, &cached); err != nil {
		return nil, errors.Wrap(err, "unmarshalling")
	}
	if cached.Version != cacheVersion {
		return nil, errors.Wrapf(ErrCacheVersion, "got %d", cached.Version)
	}

	item, err := m.decrypt(cached.Data)
	if err != nil {
		return nil, err
	}
	item.pending = cached.Pending

	return item, nil
}

func (m *ItemManager) encrypt(item *Item) (client.RespItem, error) {
	key := m.account.key

	meta, err := sealMeta(key, item.meta)
	if err != nil {
		return client.RespItem{}, errors.Wrap(err, "sealing metadata")
	}
	content, err := sealField(key, item.content)
	if err != nil {
		return client.RespItem{}, errors.Wrap(err, "sealing content")
	}

	return client.RespItem{
		UID:     item.uid,
		Meta:    meta,
		Content: content,
		Deleted: item.deleted,
		Etag:    item.etag,
	}, nil
}

func (m *ItemManager) decrypt(ri client.RespItem) (*Item, error) {
	key := m.account.key

	meta, err := openMeta(key, ri.Meta)
	if err != nil {
		return nil, err
	}
	content, err := openField(key, ri.Content)
	if err != nil {
		return nil, errors.Wrap(err, "decrypting content")
	}

	return &Item{
		uid:     ri.UID,
		meta:    meta,
		content: content,
		deleted: ri.Deleted,
		etag:    ri.Etag,
	}, nil
}
