// roomctl 운영용 방 관리 도구
//
//	roomctl list
//	roomctl prune -older-than 720h [-dry-run]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/database"
	"whiteboard-backend/internal/janitor"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/store"
)

var errUsage = errors.New("usage: roomctl <list|prune> [flags]")

type openFunc func(ctx context.Context) (store.Store, error)

func main() {
	err := run(context.Background(), os.Args[1:], openStore, os.Stdout)
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, errUsage)
		os.Exit(2)
	}
	if err != nil {
		logrus.Fatalf("roomctl: %v", err)
	}
}

func openStore(ctx context.Context) (store.Store, error) {
	cfg, err := config.LoadStore()
	if err != nil {
		return nil, fmt.Errorf("load store config: %w", err)
	}
	return database.Open(ctx, cfg)
}

// run 은 종료 전에 항상 스토어를 닫음. main 만 프로세스를 끝냄
func run(ctx context.Context, args []string, open openFunc, out io.Writer) error {
	if len(args) < 1 || (args[0] != "list" && args[0] != "prune") {
		return errUsage
	}

	st, err := open(ctx)
	if err != nil {
		return fmt.Errorf("connect to store: %w", err)
	}
	defer func() {
		if cerr := st.Close(ctx); cerr != nil {
			logrus.WithError(cerr).Warn("failed to close store")
		}
	}()

	switch args[0] {
	case "list":
		err = list(ctx, st, out)
	default:
		err = prune(ctx, st, args[1:], out)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}

func list(ctx context.Context, st store.Store, out io.Writer) error {
	rooms, err := st.ListAll(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tMEMBERS\tCANVAS\tUPDATED")
	for _, r := range rooms {
		fmt.Fprintf(w, "%s\t%s\t%d\t%t\t%s\n",
			r.Code, r.RoomName, len(r.Members), r.CanvasData != "", r.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func prune(ctx context.Context, st store.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("prune", flag.ContinueOnError)
	olderThan := fs.Duration("older-than", 30*24*time.Hour, "delete rooms not updated within this window")
	dryRun := fs.Bool("dry-run", false, "only print the rooms that would be deleted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *olderThan <= 0 {
		return fmt.Errorf("-older-than must be positive")
	}

	if *dryRun {
		rooms, err := st.ListAll(ctx)
		if err != nil {
			return err
		}
		for _, code := range stale(rooms, time.Now().Add(-*olderThan)) {
			fmt.Fprintln(out, code)
		}
		return nil
	}

	// 오프라인 도구라 라이브 연결 정보 없음
	deleted, err := janitor.New(st, nil, *olderThan).Run(ctx)
	if err != nil {
		return err
	}
	logrus.Infof("Deleted %d rooms", len(deleted))
	for _, code := range deleted {
		fmt.Fprintln(out, code)
	}
	return nil
}

func stale(rooms []model.Room, cutoff time.Time) []string {
	var codes []string
	for _, r := range rooms {
		if r.UpdatedAt.Before(cutoff) {
			codes = append(codes, r.Code)
		}
	}
	return codes
}
