package main

import (
	"os"

	"github.com/hashicorp-forge/hyperresource/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
