package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/darasa/core/room"
)

func (cli *commandLine) closeRoom(roomID string) error {
	ctx := context.Background()

	rm, err := cli.roomRepo.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	rm.Close(time.Now().UTC())
	if _, err = cli.roomRepo.UpdateRoom(ctx, rm); err != nil {
		return err
	}
	fmt.Printf("room %q has been closed\n", roomID)
	return nil
}

func (cli *commandLine) deleteRoom(roomID string) error {
	ctx := context.Background()

	rm, err := cli.roomRepo.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err = cli.roomRepo.DeleteRoom(ctx, roomID); err != nil {
		return err
	}
	fmt.Printf("room %q has been deleted\n", roomID)
	for _, p := range rm.Participants {
		fmt.Printf("unassigned: %s (%s)\n", p.UserID, p.DisplayName)
	}
	return nil
}

func (cli *commandLine) listRooms() error {
	rooms, err := cli.roomRepo.QueryRooms(context.Background())
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		fmt.Println("no rooms")
		return nil
	}
	for _, rm := range rooms {
		leader := "-"
		if l, ok := rm.Leader(); ok {
			leader = l.UserID
		}
		fmt.Printf("%s | %s | %s | %d/%d | leader: %s\n",
			rm.ID, rm.Topic, rm.Status, len(rm.Participants), rm.MaxCapacity, leader)
	}
	return nil
}
