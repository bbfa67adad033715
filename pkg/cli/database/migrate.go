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

package database

import (
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

// migrationTable is the table in which applied migrations are recorded
const migrationTable = "migrations"

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1-init",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS system
				(
					key string NOT NULL PRIMARY KEY,
					value text NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS notebooks
				(
					uid text NOT NULL PRIMARY KEY,
					position integer NOT NULL,
					blob blob NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS notes
				(
					uid text NOT NULL PRIMARY KEY,
					notebook_uid text NOT NULL,
					position integer NOT NULL,
					blob blob NOT NULL
				)`,
			},
			Down: []string{
				"DROP TABLE notes",
				"DROP TABLE notebooks",
				"DROP TABLE system",
			},
		},
		{
			Id: "2-notes-notebook-index",
			Up: []string{
				"CREATE INDEX IF NOT EXISTS index_notes_notebook_uid ON notes(notebook_uid)",
			},
			Down: []string{
				"DROP INDEX index_notes_notebook_uid",
			},
		},
	},
}

func init() {
	migrate.SetTable(migrationTable)
}

// Migrate applies all pending migrations to the database and returns the
// number of migrations applied
func Migrate(db *DB) (int, error) {
	n, err := migrate.Exec(db.Conn, "sqlite3", migrations, migrate.Up)
	if err != nil {
		return n, errors.Wrap(err, "running migrations")
	}

	return n, nil
}

// Pending returns the number of migrations not yet applied
func Pending(db *DB) (int, error) {
	plan, _, err := migrate.PlanMigration(db.Conn, "sqlite3", migrations, migrate.Up, 0)
	if err != nil {
		return 0, errors.Wrap(err, "planning migrations")
	}

	return len(plan), nil
}
