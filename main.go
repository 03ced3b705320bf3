package main

import (
	"github.com/antworks/antexec/cmd"
)

func main() {
	cmd.Execute()
}
