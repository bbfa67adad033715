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

// Package config provides the settings store and the configuration derived from it
package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dnote/etenotes/pkg/cli/consts"
	"github.com/dnote/etenotes/pkg/cli/utils"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Defaults are the values of the settings that are not set. The paths that
// are empty here are derived from the directories of the user in New.
var Defaults = map[string]string{
	consts.SettingPollInterval:    "0",
	consts.SettingCachePath:       "",
	consts.SettingExportPath:      "",
	consts.SettingExportExtension: "txt",
	consts.SettingEditor:          "",
}

// Settings is a key/value store persisted as a YAML file
type Settings struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// LoadSettings reads the settings file at the given path. A missing file
// yields an empty store that is created on the first Save.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{
		path:   path,
		values: map[string]string{},
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the path to the settings file
func (s *Settings) Path() string {
	return s.path
}

// Reload discards the values in memory and reads the settings file again
func (s *Settings) Reload() error {
	values := map[string]string{}

	b, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "reading settings file")
	}
	if err == nil {
		if err := yaml.Unmarshal(b, &values); err != nil {
			return errors.Wrap(err, "unmarshalling settings")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = values

	return nil
}

// Get returns the value of the key and whether it is set
func (s *Settings) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

// Set sets the value of the key in memory
func (s *Settings) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
}

// Delete removes the keys in memory
func (s *Settings) Delete(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.values, k)
	}
}

// Keys returns the sorted keys that are set
func (s *Settings) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := make([]string, 0, len(s.values))
	for k := range s.values {
		ret = append(ret, k)
	}
	sort.Strings(ret)

	return ret
}

// Save writes the settings to the settings file
func (s *Settings) Save() error {
	s.mu.RLock()
	b, err := yaml.Marshal(s.values)
	s.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "marshalling settings into YAML")
	}

	if err := utils.EnsureDir(filepath.Dir(s.path)); err != nil {
		return errors.Wrap(err, "creating the settings dir")
	}
	if err := utils.WriteFileAtomic(s.path, b, 0600); err != nil {
		return errors.Wrap(err, "writing the settings file")
	}

	return nil
}

// Session is a persisted login
type Session struct {
	ServerURL string
	// Key protects Data
	Key  []byte
	Data []byte
}

// Config is the configuration of the program, read once from the settings
type Config struct {
	// PollInterval is the interval between background polls. Zero disables polling.
	PollInterval    time.Duration
	CachePath       string
	ExportPath      string
	ExportExtension string
	Editor          string
	// Session is nil if no login is persisted
	Session *Session
}

// Dirs are the directories of the user that default paths derive from
type Dirs struct {
	Data string
	Home string
}

func lookup(s *Settings, key string) string {
	if v, ok := s.Get(key); ok && v != "" {
		return v
	}

	return Defaults[key]
}

// ParseInterval parses a poll interval in minutes
func ParseInterval(v string) (time.Duration, error) {
	if !utils.IsNumber(v) {
		return 0, errors.Errorf("invalid interval %q", v)
	}

	minutes, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid interval %q", v)
	}

	return time.Duration(minutes) * time.Minute, nil
}

// ReadSession returns the persisted login, or nil if there is none or it is incomplete
func ReadSession(s *Settings) (*Session, error) {
	url, _ := s.Get(consts.SettingSessionURL)
	key, hasKey := s.Get(consts.SettingSessionKey)
	data, hasData := s.Get(consts.SettingSessionData)
	if !hasKey || !hasData {
		return nil, nil
	}

	k, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, errors.Wrap(err, "decoding session key")
	}
	d, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding session data")
	}

	return &Session{
		ServerURL: url,
		Key:       k,
		Data:      d,
	}, nil
}

// WriteSession sets the settings entries of a login
func WriteSession(s *Settings, sess Session) {
	s.Set(consts.SettingSessionURL, sess.ServerURL)
	s.Set(consts.SettingSessionKey, base64.StdEncoding.EncodeToString(sess.Key))
	s.Set(consts.SettingSessionData, base64.StdEncoding.EncodeToString(sess.Data))
}

// ClearSession removes the settings entries of a login
func ClearSession(s *Settings) {
	s.Delete(consts.SettingSessionURL, consts.SettingSessionKey, consts.SettingSessionData)
}

// New builds the configuration from the settings, falling back to Defaults
func New(s *Settings, dirs Dirs) (Config, error) {
	interval, err := ParseInterval(lookup(s, consts.SettingPollInterval))
	if err != nil {
		return Config{}, errors.Wrap(err, "reading the poll interval")
	}

	cachePath := lookup(s, consts.SettingCachePath)
	if cachePath == "" {
		cachePath = filepath.Join(dirs.Data, consts.AppName, consts.CacheFilename)
	}
	exportPath := lookup(s, consts.SettingExportPath)
	if exportPath == "" {
		exportPath = dirs.Home
	}

	sess, err := ReadSession(s)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading the session")
	}

	return Config{
		PollInterval:    interval,
		CachePath:       cachePath,
		ExportPath:      exportPath,
		ExportExtension: lookup(s, consts.SettingExportExtension),
		Editor:          lookup(s, consts.SettingEditor),
		Session:         sess,
	}, nil
}
