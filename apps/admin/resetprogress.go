package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetProgress(userID, courseID string) error {
	ctx := context.Background()

	rec, err := cli.progRepo.GetRecord(ctx, userID, courseID)
	if err != nil {
		return err
	}
	rec.Reset()
	if _, err = cli.progRepo.UpdateRecord(ctx, rec); err != nil {
		return err
	}
	fmt.Printf("progress of user %q on course %q has been reset\n", userID, courseID)
	return nil
}
