package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

var logger core.Logger

func main() {
	logger = logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie("opening database", err)
	defer db.Close()
	errAndDie("pinging database", db.Ping())

	dbx := sqlx.NewDb(db, core.Conf.Database.Engine)

	// start CLI
	cli := commandLine{
		db:       db,
		progRepo: sqlxrepos.NewProgressRepository(dbx),
		roomRepo: sqlxrepos.NewRoomRepository(dbx),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		os.Exit(1)
	}
}

func errAndDie(msg string, err error) {
	if err != nil {
		logger.Fatal(msg+": "+err.Error(), err)
	}
}
