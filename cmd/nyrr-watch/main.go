package main

import (
	"context"

	"github.com/pfrederiksen/nyrr-watch/internal/cli"
)

func main() {
	cli.Execute(context.Background())
}
