package main

import (
	_ "time/tzdata"

	"github.com/teemow/meetbook/cmd"
)

// version will be set by goreleaser during build
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
