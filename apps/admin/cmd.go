package main

import (
	"bufio"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/room"
)

var (
	stdin io.Reader = os.Stdin // mockable

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")
)

type commandLine struct {
	db       *sql.DB
	progRepo progress.Repository
	roomRepo room.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb - create the app user and database if missing")
	fmt.Println("  migrate COMMAND [args] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  resetprogress -user USER -course COURSE - zero a user's progress on a course")
	fmt.Println("  closeroom -room ROOM - permanently close a breakout room")
	fmt.Println("  deleteroom -room ROOM - delete a breakout room; its participants become unassigned")
	fmt.Println("  rooms - list breakout rooms")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resetProgressCmd := flag.NewFlagSet("resetprogress", flag.ExitOnError)
	resetProgressUser := resetProgressCmd.String("user", "", "The user's id.")
	resetProgressCourse := resetProgressCmd.String("course", "", "The course's id.")

	closeRoomCmd := flag.NewFlagSet("closeroom", flag.ExitOnError)
	closeRoomID := closeRoomCmd.String("room", "", "The room's id.")

	deleteRoomCmd := flag.NewFlagSet("deleteroom", flag.ExitOnError)
	deleteRoomID := deleteRoomCmd.String("room", "", "The room's id.")

	switch args[1] {
	case "createdb":
		return cli.createDB()
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "resetprogress":
		if err := resetProgressCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetProgressUser == "" || *resetProgressCourse == "" {
			resetProgressCmd.Usage()
			return errHelp
		}
		if !cli.confirm(fmt.Sprintf("reset all progress of user %q on course %q?", *resetProgressUser, *resetProgressCourse)) {
			return errAborted
		}
		return cli.resetProgress(*resetProgressUser, *resetProgressCourse)
	case "closeroom":
		if err := closeRoomCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *closeRoomID == "" {
			closeRoomCmd.Usage()
			return errHelp
		}
		return cli.closeRoom(*closeRoomID)
	case "deleteroom":
		if err := deleteRoomCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deleteRoomID == "" {
			deleteRoomCmd.Usage()
			return errHelp
		}
		if !cli.confirm(fmt.Sprintf("delete room %q?", *deleteRoomID)) {
			return errAborted
		}
		return cli.deleteRoom(*deleteRoomID)
	case "rooms":
		return cli.listRooms()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	sc := bufio.NewScanner(stdin)
	if !sc.Scan() {
		return false
	}
	ans := strings.ToLower(strings.TrimSpace(sc.Text()))
	return ans == "y" || ans == "yes"
}
