package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/lumenraw/imagecore/cmd/imagecore/cmd"
	"github.com/lumenraw/imagecore/logging"
)

var (
	GitSHA string = "NA"
)

func main() {
	ctx, cnc := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cnc()
	go func() {
		defer cnc() // restores default signal handling so a second ctrl-c kills the process
		<-ctx.Done()
	}()
	ctx = logging.AppendCtx(ctx,
		slog.Group("imagecore",
			slog.String("git", GitSHA),
			slog.String("run", uuid.NewString()),
		))
	if err := cmd.NewRoot(ctx, GitSHA).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
