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

// Package tokens keeps the sync tokens of the last listings, one per resource class
package tokens

import (
	"sync"

	"github.com/dnote/etenotes/pkg/cli/consts"
)

// Pair holds the sync tokens of notebooks and notes. A nil token means that
// a full listing is required.
type Pair struct {
	Notebook *string
	Note     *string
}

// Store holds the sync token of each resource class. It is safe for
// concurrent use.
type Store struct {
	mu   sync.RWMutex
	pair Pair
}

// NewStore returns a store holding no tokens
func NewStore() *Store {
	return &Store{}
}

func copyToken(token *string) *string {
	if token == nil {
		return nil
	}

	v := *token
	return &v
}

// Get returns the token of the resource class, or nil if there is none
func (s *Store) Get(class consts.ResourceClass) *string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch class {
	case consts.ClassNotebook:
		return copyToken(s.pair.Notebook)
	case consts.ClassNote:
		return copyToken(s.pair.Note)
	}

	return nil
}

// Set replaces the token of the resource class
func (s *Store) Set(class consts.ResourceClass, token *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch class {
	case consts.ClassNotebook:
		s.pair.Notebook = copyToken(token)
	case consts.ClassNote:
		s.pair.Note = copyToken(token)
	}
}

// Pair returns a copy of both tokens
func (s *Store) Pair() Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Pair{
		Notebook: copyToken(s.pair.Notebook),
		Note:     copyToken(s.pair.Note),
	}
}

// Restore replaces both tokens
func (s *Store) Restore(p Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pair = Pair{
		Notebook: copyToken(p.Notebook),
		Note:     copyToken(p.Note),
	}
}

// Reset drops both tokens so that the next listings are full
func (s *Store) Reset() {
	s.Restore(Pair{})
}
