/* Copyright (C) 2019, 2020, 2021, 2022, 2023, 2024, 2025 Dnote contributors
 *
 * This file is part of Dnote.
 *
 * Dnote is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * Dnote is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with Dnote.  If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"os"

	"github.com/dnote/etenotes/pkg/cli/infra"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	// commands
	"github.com/dnote/etenotes/pkg/cli/cmd/add"
	"github.com/dnote/etenotes/pkg/cli/cmd/cat"
	"github.com/dnote/etenotes/pkg/cli/cmd/edit"
	"github.com/dnote/etenotes/pkg/cli/cmd/export"
	"github.com/dnote/etenotes/pkg/cli/cmd/interval"
	"github.com/dnote/etenotes/pkg/cli/cmd/login"
	"github.com/dnote/etenotes/pkg/cli/cmd/logout"
	"github.com/dnote/etenotes/pkg/cli/cmd/ls"
	"github.com/dnote/etenotes/pkg/cli/cmd/notebook"
	"github.com/dnote/etenotes/pkg/cli/cmd/remove"
	"github.com/dnote/etenotes/pkg/cli/cmd/root"
	"github.com/dnote/etenotes/pkg/cli/cmd/sync"
	"github.com/dnote/etenotes/pkg/cli/cmd/version"
	"github.com/dnote/etenotes/pkg/cli/cmd/watch"
)

// versionTag is populated during link time
var versionTag = "master"

func main() {
	// .env in the working directory overrides the environment in development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("reading .env: %s\n", err)
	}

	ctx, err := infra.Init(versionTag)
	if err != nil {
		panic(errors.Wrap(err, "initializing context"))
	}
	defer log.Close()

	root.Register(remove.NewCmd(*ctx))
	root.Register(edit.NewCmd(*ctx))
	root.Register(login.NewCmd(*ctx))
	root.Register(logout.NewCmd(*ctx))
	root.Register(add.NewCmd(*ctx))
	root.Register(ls.NewCmd(*ctx))
	root.Register(sync.NewCmd(*ctx))
	root.Register(watch.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))
	root.Register(cat.NewCmd(*ctx))
	root.Register(notebook.NewCmd(*ctx))
	root.Register(export.NewCmd(*ctx))
	root.Register(interval.NewCmd(*ctx))

	if err := root.Execute(); err != nil {
		log.Errorf("%s\n", err.Error())
		log.Close()
		os.Exit(1)
	}
}
