package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/KevinTCoughlin/moria-server-manager/internal/cli"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Main(ctx, os.Args[1:], fmt.Sprintf("%s (%s)", version, commit), os.Stderr)
	stop()
	os.Exit(code)
}
