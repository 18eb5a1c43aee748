package main

import (
	"os"

	"github.com/funvibe/wirevm/pkg/cli"
)

func main() {
	os.Exit(cli.Entry())
}
