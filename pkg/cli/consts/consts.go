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

// Package consts provides definitions of constants
package consts

var (
	// AppName is the name of the program, also used as the directory name
	// for its files
	AppName = "etenotes"
	// SettingsFilename is the name of the settings file
	SettingsFilename = "settings.yml"
	// CacheFilename is the name of the local cache file
	CacheFilename = "etenotes-cache.db"
	// LogFilename is the name of the log file
	LogFilename = "etenotes.log"
	// TmpContentFileBase is the base for the filename for a temporary content
	TmpContentFileBase = "ETENOTES_TMPCONTENT"
	// TmpContentFileExt is the extension for the temporary content file
	TmpContentFileExt = "md"
	// CollectionType is the collection type under which notebooks are stored remotely
	CollectionType = "etebase.md.note"
)

// ResourceClass identifies a kind of remote resource tracked by a sync token
type ResourceClass string

const (
	// ClassNotebook is the resource class of notebooks
	ClassNotebook ResourceClass = "notebook"
	// ClassNote is the resource class of notes
	ClassNote ResourceClass = "note"
)

// Settings keys
const (
	// SettingPollInterval is the interval in minutes between background polls. 0 disables polling.
	SettingPollInterval = "tasks/update_notebooks/interval"
	// SettingCachePath is the path to the cache file
	SettingCachePath = "cache/path"
	// SettingExportPath is the directory notes are exported to
	SettingExportPath = "export/path"
	// SettingExportExtension is the file extension used for exported notes
	SettingExportExtension = "export/extension"
	// SettingEditor is the editor command
	SettingEditor = "editor"
	// SettingSessionURL is the server URL of the stored session
	SettingSessionURL = "session/url"
	// SettingSessionKey is the base64 encoded key protecting the stored session
	SettingSessionKey = "session/key"
	// SettingSessionData is the encrypted session blob
	SettingSessionData = "session/sessiondata"
)

// System keys in the cache database
const (
	// SystemSchema is the key for schema in the system table
	SystemSchema = "schema"
	// SystemNotebookToken is the sync token of the notebook listing at the time of the snapshot
	SystemNotebookToken = "notebook_stoken"
	// SystemNoteToken is the sync token of the note listing at the time of the snapshot
	SystemNoteToken = "note_stoken"
	// SystemSavedAt is the unix timestamp at which the snapshot was written
	SystemSavedAt = "saved_at"
)
