package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"testing"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/room"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var (
	progRepo progress.Repository
	roomRepo room.Repository
)

func setup(t *testing.T) *commandLine {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed, %v", err)
	}
	progRepo = inmemdb.NewProgressRepository(db)
	roomRepo = inmemdb.NewRoomRepository(db)

	return &commandLine{
		progRepo: progRepo,
		roomRepo: roomRepo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "room", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resetProgress(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	cs := course.Structure{{ID: "s1", Contents: []string{"c1", "c2"}}}
	svc := progress.NewService(progRepo, nil, nil, nil)
	rec, err := svc.GetOrCreate(ctx, "u1", "crs1", cs)
	if err != nil {
		t.Fatalf("GetOrCreate() failed, %v", err)
	}
	if rec, err = svc.MarkCompleted(ctx, rec, cs, "c1"); err != nil {
		t.Fatalf("MarkCompleted() failed, %v", err)
	}
	if rec.OverallProgress == 0 {
		t.Fatal("expected some progress before reset")
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetprogress"}, wantErr: errHelp},
		{name: "user but no course", args: []string{"resetprogress", "-user", "u1"}, wantErr: errHelp},
		{name: "declined", args: []string{"resetprogress", "-user", "u1", "-course", "crs1"}, wantErr: errAborted},
		{name: "record not found", args: []string{"resetprogress", "-user", "lol", "-course", "crs1"}, wantErr: progress.ErrNotFound},
		{name: "reset", args: []string{"resetprogress", "-user", "u1", "-course", "crs1"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		if tt.wantErr == errAborted {
			stdin = strings.NewReader("n\n")
		} else {
			stdin = strings.NewReader("y\n")
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := progRepo.GetRecord(ctx, "u1", "crs1")
				if err != nil {
					t.Fatalf("GetRecord() failed, %v", err)
				}
				if refreshed.OverallProgress != 0 || len(refreshed.CompletedContents) != 0 {
					t.Error("failed to reset progress")
				}
				if refreshed.StartedAt.IsZero() {
					t.Error("reset must preserve StartedAt")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_rooms(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	svc := room.NewService(roomRepo)
	rm, err := svc.Create(ctx, room.NewRoom{Topic: "Algebra", MaxCapacity: 2})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if _, err = svc.Join(ctx, rm.ID, room.Identity{UserID: "u1", DisplayName: "Awe"}); err != nil {
		t.Fatalf("Join() failed, %v", err)
	}

	tests := []cliTest{
		{name: "list", args: []string{"rooms"}},
		{name: "closeroom: no args", args: []string{"closeroom"}, wantErr: errHelp},
		{name: "closeroom: not found", args: []string{"closeroom", "-room", "lol"}, wantErr: room.ErrNotFound},
		{name: "closeroom", args: []string{"closeroom", "-room", rm.ID}},
		{name: "deleteroom: no args", args: []string{"deleteroom"}, wantErr: errHelp},
		{name: "deleteroom: declined", args: []string{"deleteroom", "-room", rm.ID}, wantErr: errAborted},
		{name: "deleteroom", args: []string{"deleteroom", "-room", rm.ID}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		if tt.wantErr == errAborted {
			stdin = strings.NewReader("\n")
		} else {
			stdin = strings.NewReader("y\n")
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil && err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err = roomRepo.GetRoom(ctx, rm.ID); err != room.ErrNotFound {
		t.Errorf("GetRoom() after delete error = %v, want %v", err, room.ErrNotFound)
	}
}
