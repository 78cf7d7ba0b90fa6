package main

import (
	"github.com/oneconcern/ctxmon/cmd/ctxmon/cmd"
)

func main() {
	cmd.Execute()
}
