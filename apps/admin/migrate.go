package main

import (
	"github.com/trezcool/darasa/core"
	appfs "github.com/trezcool/darasa/fs"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/goose"
)

var gooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) createDB() error {
	return database.CreateIfNotExist(core.Conf)
}

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(args[0], cli.db, appfs.FS, "migrations", args[1:]...)
}
