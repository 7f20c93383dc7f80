package main

import (
	"context"
	"os"

	"github.com/mamaar/sweeper/internal/cli"
)

func main() {
	app := cli.NewApp()
	app.Initialize()
	os.Exit(app.Run(context.Background()))
}
