package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/daybook/internal/client/cli"
	"github.com/dmitrijs2005/daybook/internal/client/config"
	"github.com/dmitrijs2005/daybook/internal/flagx"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	args := flagx.RemoveArgs(os.Args[1:], config.FlagNames)
	if err := cli.Execute(ctx, cfg, args); err != nil {
		log.Fatalf("%v", err)
	}
}
