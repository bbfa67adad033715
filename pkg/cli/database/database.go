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
	"database/sql"

	// sqlite driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// DB contains a database connection and an optional transaction
type DB struct {
	Conn *sql.DB
	Tx   *sql.Tx
}

// Open opens a connection to the sqlite database at the given path
func Open(p string) (*DB, error) {
	db, err := sql.Open("sqlite3", p)
	if err != nil {
		return nil, errors.Wrap(err, "opening db connection")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connecting to the database")
	}

	return &DB{Conn: db}, nil
}

// Begin begins a transaction
func (d *DB) Begin() (*DB, error) {
	tx, err := d.Conn.Begin()
	if err != nil {
		return nil, err
	}

	return &DB{Conn: d.Conn, Tx: tx}, nil
}

// Commit commits a transaction
func (d *DB) Commit() error {
	if d.Tx == nil {
		return errors.New("no transaction")
	}

	return d.Tx.Commit()
}

// Rollback rolls back a transaction
func (d *DB) Rollback() error {
	if d.Tx == nil {
		return errors.New("no transaction")
	}

	return d.Tx.Rollback()
}

// Exec executes a sql statement
func (d *DB) Exec(query string, values ...interface{}) (sql.Result, error) {
	if d.Tx != nil {
		return d.Tx.Exec(query, values...)
	}

	return d.Conn.Exec(query, values...)
}

// Query queries rows
func (d *DB) Query(query string, values ...interface{}) (*sql.Rows, error) {
	if d.Tx != nil {
		return d.Tx.Query(query, values...)
	}

	return d.Conn.Query(query, values...)
}

// QueryRow queries a row
func (d *DB) QueryRow(query string, values ...interface{}) *sql.Row {
	if d.Tx != nil {
		return d.Tx.QueryRow(query, values...)
	}

	return d.Conn.QueryRow(query, values...)
}

// Close closes a db connection
func (d *DB) Close() error {
	return d.Conn.Close()
}
