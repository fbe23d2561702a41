package main

import (
	"os"

	"licence-desk/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
