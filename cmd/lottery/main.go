package main

import (
	"github.com/lotterynft/lottery-client/cmd/lottery/cmd"
)

func main() {
	cmd.Execute()
}
