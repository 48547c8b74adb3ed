package main

import (
	"os"

	"github.com/kyunghoon/twasm/cmd/twasm/commands"
	"github.com/kyunghoon/twasm/pkg/client"
)

var version string = "dev"

func main() {
	c := client.New()
	err := commands.Run(c, version)
	if err != nil {
		os.Stderr.WriteString(err.Error())
		os.Stderr.WriteString("\n")
		os.Exit(1)
		return
	}
}
